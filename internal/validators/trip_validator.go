package validators

import (
	"time"
)

type CreateTripRequest struct {
	RideRequestID int64      `json:"id_demande_course" validate:"gt=0"`
	PickupAt      *time.Time `json:"date_prise_en_charge" validate:"required"`
	DropoffAt     *time.Time `json:"date_depose" validate:"required"`
}

type TripScheduleRequest struct {
	PickupAt  *time.Time `json:"date_prise_en_charge" validate:"required"`
	DropoffAt *time.Time `json:"date_depose" validate:"required"`
}

type TripStatusRequest struct {
	Status string `json:"statut" validate:"required,oneof=en_attente en_cours termine"`
}

func ValidateCreateTrip(req *CreateTripRequest) ValidationErrors {
	errors := ValidateStruct(req)
	return append(errors, validateSchedule(req.PickupAt, req.DropoffAt)...)
}

func ValidateTripSchedule(req *TripScheduleRequest) ValidationErrors {
	errors := ValidateStruct(req)
	return append(errors, validateSchedule(req.PickupAt, req.DropoffAt)...)
}

func ValidateTripStatus(req *TripStatusRequest) ValidationErrors {
	return ValidateStruct(req)
}

func validateSchedule(pickup, dropoff *time.Time) ValidationErrors {
	if pickup == nil || dropoff == nil {
		return nil
	}
	if dropoff.Before(*pickup) {
		return ValidationErrors{{
			Field:   "date_depose",
			Tag:     "gtefield",
			Message: "Dropoff time must not be before pickup time",
		}}
	}
	return nil
}
