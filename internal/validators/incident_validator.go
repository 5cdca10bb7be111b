package validators

type ReportIncidentRequest struct {
	UserID      int64  `json:"-" validate:"gt=0"`
	Type        string `json:"type" validate:"required,incident_type"`
	Description string `json:"description" validate:"description"`
	TripID      *int64 `json:"id_trajet" validate:"omitempty,gt=0"`
}

func ValidateReportIncident(req *ReportIncidentRequest) ValidationErrors {
	return ValidateStruct(req)
}
