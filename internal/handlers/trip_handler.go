package handlers

import (
	"hotelops/internal/models"
	"hotelops/internal/services"
	"hotelops/internal/utils"
	"hotelops/internal/validators"

	"github.com/gin-gonic/gin"
)

type TripHandler struct {
	tripService services.TripService
}

func NewTripHandler(tripService services.TripService) *TripHandler {
	return &TripHandler{
		tripService: tripService,
	}
}

func (h *TripHandler) GetMine(c *gin.Context) {
	driverID, err := driverOf(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	dateMin, dateMax, err := dateFilters(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	trips, err := h.tripService.GetByDriver(c.Request.Context(), driverID, services.TripFilters{
		Status:  c.Query("statut"),
		DateMin: dateMin,
		DateMax: dateMax,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Trips retrieved successfully", trips)
}

// GetPlanning returns the driver's trips grouped by day.
func (h *TripHandler) GetPlanning(c *gin.Context) {
	driverID, err := driverOf(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	dateMin, dateMax, err := dateFilters(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	planning, err := h.tripService.GetPlanningByDay(c.Request.Context(), driverID, dateMin, dateMax)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Planning retrieved successfully", planning)
}

func (h *TripHandler) GetByID(c *gin.Context) {
	driverID, err := driverOf(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := pathID(c, "id", "id_trajet")
	if err != nil {
		_ = c.Error(err)
		return
	}

	trip, err := h.tripService.GetByID(c.Request.Context(), id, driverID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Trip retrieved successfully", trip)
}

func (h *TripHandler) Create(c *gin.Context) {
	driverID, err := driverOf(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req validators.CreateTripRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	trip, err := h.tripService.Create(c.Request.Context(), driverID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.CreatedResponse(c, "Trip created successfully", trip)
}

// UpdateSchedule lets the client who owns the ride request move a pending trip.
func (h *TripHandler) UpdateSchedule(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	clientID, err := profileID(actor.ClientID, models.RoleClient)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := pathID(c, "id", "id_trajet")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req validators.TripScheduleRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	trip, err := h.tripService.UpdateSchedule(c.Request.Context(), id, clientID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Trip schedule updated successfully", trip)
}

func (h *TripHandler) ChangeStatus(c *gin.Context) {
	driverID, err := driverOf(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := pathID(c, "id", "id_trajet")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req validators.TripStatusRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	if err := checked(validators.ValidateTripStatus(&req)); err != nil {
		_ = c.Error(err)
		return
	}

	trip, err := h.tripService.ChangeStatus(c.Request.Context(), id, req.Status, driverID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Trip status updated successfully", trip)
}

func driverOf(c *gin.Context) (int64, error) {
	actor, err := currentActor(c)
	if err != nil {
		return 0, err
	}
	return profileID(actor.PersonnelID, "personnel")
}
