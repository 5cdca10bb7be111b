package models

import (
	"time"
)

type IncidentType string
type IncidentStatus string

const (
	IncidentTypeAccident   IncidentType = "accident"
	IncidentTypeAggression IncidentType = "agression"
	IncidentTypeBreakdown  IncidentType = "panne"
	IncidentTypeOther      IncidentType = "autre"

	IncidentStatusOpen     IncidentStatus = "ouvert"
	IncidentStatusResolved IncidentStatus = "traite"
)

var IncidentTypes = []IncidentType{
	IncidentTypeAccident,
	IncidentTypeAggression,
	IncidentTypeBreakdown,
	IncidentTypeOther,
}

func (t IncidentType) IsValid() bool {
	for _, known := range IncidentTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Incident struct {
	ID          int64          `json:"id_incident" gorm:"column:id_incident;primaryKey;autoIncrement" bson:"_id"`
	UserID      int64          `json:"id_utilisateur" gorm:"column:id_utilisateur;not null;index" bson:"id_utilisateur"`
	TripID      *int64         `json:"id_trajet" gorm:"column:id_trajet;index" bson:"id_trajet,omitempty"`
	Type        IncidentType   `json:"type" gorm:"column:type;size:20;not null" bson:"type"`
	Description string         `json:"description" gorm:"column:description;type:text" bson:"description"`
	ReportedAt  time.Time      `json:"date_incident" gorm:"column:date_incident;not null;index" bson:"date_incident"`
	Status      IncidentStatus `json:"statut" gorm:"column:statut;size:20;not null;index" bson:"statut"`
	ResolvedAt  *time.Time     `json:"date_traitement,omitempty" gorm:"column:date_traitement" bson:"date_traitement,omitempty"`
}

func (Incident) TableName() string {
	return "incidents"
}

func (i *Incident) IsResolved() bool {
	return i.Status == IncidentStatusResolved
}
