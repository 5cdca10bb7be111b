package validators

type CreateRideRequestRequest struct {
	ClientID int64  `json:"-" validate:"gt=0"`
	Pickup   string `json:"lieu_depart" validate:"required,location"`
	Dropoff  string `json:"lieu_arrivee" validate:"required,location"`
}

type UpdateRideRequestRequest struct {
	Pickup  *string `json:"lieu_depart" validate:"omitempty,location"`
	Dropoff *string `json:"lieu_arrivee" validate:"omitempty,location"`
}

type RideRequestStatusRequest struct {
	Status string `json:"statut" validate:"required,oneof=acceptee refusee annulee"`
}

type locationPair struct {
	Pickup  string `json:"lieu_depart" validate:"required,location"`
	Dropoff string `json:"lieu_arrivee" validate:"required,location"`
}

func ValidateCreateRideRequest(req *CreateRideRequestRequest) ValidationErrors {
	errors := ValidateStruct(req)
	if len(errors) == 0 {
		errors = append(errors, distinctLocations(req.Pickup, req.Dropoff)...)
	}
	return errors
}

func ValidateUpdateRideRequest(req *UpdateRideRequestRequest) ValidationErrors {
	errors := ValidateStruct(req)
	if req.Pickup == nil && req.Dropoff == nil {
		errors = append(errors, ValidationError{
			Field:   "body",
			Tag:     "required",
			Message: "At least one of lieu_depart or lieu_arrivee is required",
		})
	}
	return errors
}

func ValidateRideRequestStatus(req *RideRequestStatusRequest) ValidationErrors {
	return ValidateStruct(req)
}

// ValidateLocations checks the pickup/dropoff pair a request would end up
// with after a partial update.
func ValidateLocations(pickup, dropoff string) ValidationErrors {
	errors := ValidateStruct(&locationPair{Pickup: pickup, Dropoff: dropoff})
	if len(errors) == 0 {
		errors = append(errors, distinctLocations(pickup, dropoff)...)
	}
	return errors
}

func distinctLocations(pickup, dropoff string) ValidationErrors {
	if !SameLocation(pickup, dropoff) {
		return nil
	}
	return ValidationErrors{{
		Field:   "lieu_arrivee",
		Tag:     "nefield",
		Message: "Pickup and dropoff locations must be different",
	}}
}
