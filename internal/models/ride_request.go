package models

import (
	"time"
)

type RideRequestStatus string

const (
	RideRequestStatusPending   RideRequestStatus = "en_attente"
	RideRequestStatusAccepted  RideRequestStatus = "acceptee"
	RideRequestStatusRefused   RideRequestStatus = "refusee"
	RideRequestStatusCancelled RideRequestStatus = "annulee"
)

// IsValid reports whether s is one of the known ride request statuses.
func (s RideRequestStatus) IsValid() bool {
	switch s {
	case RideRequestStatusPending, RideRequestStatusAccepted, RideRequestStatusRefused, RideRequestStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether s is a status a pending request can move to.
// Terminal requests never change status again.
func (s RideRequestStatus) IsTerminal() bool {
	return s == RideRequestStatusAccepted || s == RideRequestStatusRefused || s == RideRequestStatusCancelled
}

type RideRequest struct {
	ID          int64             `json:"id_demande_course" gorm:"column:id_demande_course;primaryKey;autoIncrement" bson:"_id"`
	ClientID    int64             `json:"id_client" gorm:"column:id_client;not null;index" bson:"id_client"`
	Pickup      string            `json:"lieu_depart" gorm:"column:lieu_depart;size:255;not null" bson:"lieu_depart"`
	Dropoff     string            `json:"lieu_arrivee" gorm:"column:lieu_arrivee;size:255;not null" bson:"lieu_arrivee"`
	RequestedAt time.Time         `json:"date_demande" gorm:"column:date_demande;not null;index" bson:"date_demande"`
	Status      RideRequestStatus `json:"statut" gorm:"column:statut;size:20;not null;index" bson:"statut"`
	Trip        *Trip             `json:"trajet,omitempty" gorm:"-" bson:"-"`
}

func (RideRequest) TableName() string {
	return "demandes_course"
}

func (r *RideRequest) IsPending() bool {
	return r.Status == RideRequestStatusPending
}
