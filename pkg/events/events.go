// Package events carries domain notifications out of the services to the
// websocket hub, a redis channel and a kafka topic.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	RideRequestCreated       = "demande.created"
	RideRequestUpdated       = "demande.updated"
	RideRequestStatusChanged = "demande.status_changed"
	RideRequestDeleted       = "demande.deleted"
	TripCreated              = "trajet.created"
	TripRescheduled          = "trajet.rescheduled"
	TripStatusChanged        = "trajet.status_changed"
	IncidentReported         = "incident.reported"
	IncidentResolved         = "incident.resolved"
)

// Rooms a websocket client can be a member of.
const (
	RoomDrivers = "drivers"
	RoomAdmins  = "admins"
)

func ClientRoom(clientID int64) string {
	return fmt.Sprintf("client_%d", clientID)
}

func PersonnelRoom(personnelID int64) string {
	return fmt.Sprintf("personnel_%d", personnelID)
}

type Event struct {
	Type string `json:"type"`
	// Key identifies the aggregate, e.g. "trajet:12". Kafka partitions on it.
	Key        string      `json:"key"`
	Rooms      []string    `json:"rooms,omitempty"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func New(eventType, key string, payload interface{}, rooms ...string) Event {
	return Event{
		Type:       eventType,
		Key:        key,
		Rooms:      rooms,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

// NewNopPublisher drops every event.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

// Fanout delivers to every sink and joins their errors.
type Fanout struct {
	sinks []Publisher
}

func NewFanout(sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Add(sink Publisher) {
	f.sinks = append(f.sinks, sink)
}

func (f *Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
