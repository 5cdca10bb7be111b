package models

import (
	"time"
)

type TripStatus string

const (
	TripStatusPending    TripStatus = "en_attente"
	TripStatusInProgress TripStatus = "en_cours"
	TripStatusCompleted  TripStatus = "termine"
)

func (s TripStatus) IsValid() bool {
	switch s {
	case TripStatusPending, TripStatusInProgress, TripStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether a trip in status s may move to next.
// Trips only move forward: en_attente -> en_cours -> termine.
func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	switch s {
	case TripStatusPending:
		return next == TripStatusInProgress
	case TripStatusInProgress:
		return next == TripStatusCompleted
	}
	return false
}

type Trip struct {
	ID            int64      `json:"id_trajet" gorm:"column:id_trajet;primaryKey;autoIncrement" bson:"_id"`
	DriverID      int64      `json:"id_personnel" gorm:"column:id_personnel;not null;index" bson:"id_personnel"`
	RideRequestID int64      `json:"id_demande_course" gorm:"column:id_demande_course;not null;uniqueIndex" bson:"id_demande_course"`
	PickupAt      time.Time  `json:"date_prise_en_charge" gorm:"column:date_prise_en_charge;not null;index" bson:"date_prise_en_charge"`
	DropoffAt     time.Time  `json:"date_depose" gorm:"column:date_depose;not null" bson:"date_depose"`
	Status        TripStatus `json:"statut" gorm:"column:statut;size:20;not null;index" bson:"statut"`
}

func (Trip) TableName() string {
	return "trajets"
}

// DayPlanning is one calendar day of a driver's schedule.
type DayPlanning struct {
	Date  string  `json:"date"`
	Trips []*Trip `json:"trajets"`
}
