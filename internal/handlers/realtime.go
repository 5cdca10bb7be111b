package handlers

import (
	"hotelops/internal/models"
	"hotelops/pkg/events"
	"hotelops/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// WebSocketSubscriber joins the caller to the rooms its role listens on.
func WebSocketSubscriber(c *gin.Context) (*websocket.Subscriber, error) {
	actor, err := currentActor(c)
	if err != nil {
		return nil, err
	}

	subscriber := &websocket.Subscriber{UserID: actor.UserID}
	switch actor.Role {
	case models.RoleClient:
		if actor.ClientID > 0 {
			subscriber.Rooms = append(subscriber.Rooms, events.ClientRoom(actor.ClientID))
		}
	case models.RoleDriver:
		subscriber.Rooms = append(subscriber.Rooms, events.RoomDrivers)
		if actor.PersonnelID > 0 {
			subscriber.Rooms = append(subscriber.Rooms, events.PersonnelRoom(actor.PersonnelID))
		}
	case models.RoleAdmin:
		subscriber.Rooms = append(subscriber.Rooms, events.RoomAdmins)
	}
	return subscriber, nil
}
