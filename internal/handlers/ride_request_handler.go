package handlers

import (
	"hotelops/internal/models"
	"hotelops/internal/services"
	"hotelops/internal/utils"
	"hotelops/internal/validators"

	"github.com/gin-gonic/gin"
)

type RideRequestHandler struct {
	rideRequestService services.RideRequestService
}

func NewRideRequestHandler(rideRequestService services.RideRequestService) *RideRequestHandler {
	return &RideRequestHandler{
		rideRequestService: rideRequestService,
	}
}

// GetMine lists the calling client's requests, newest first.
func (h *RideRequestHandler) GetMine(c *gin.Context) {
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
	dateMin, dateMax, err := dateFilters(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	requests, err := h.rideRequestService.GetByClient(c.Request.Context(), clientID, services.RideRequestFilters{
		Status:  c.Query("statut"),
		DateMin: dateMin,
		DateMax: dateMax,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Ride requests retrieved successfully", requests)
}

// GetPending lists requests waiting for a driver, oldest first.
func (h *RideRequestHandler) GetPending(c *gin.Context) {
	dateMin, dateMax, err := dateFilters(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	requests, err := h.rideRequestService.GetPending(c.Request.Context(), services.RideRequestFilters{
		DateMin: dateMin,
		DateMax: dateMax,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Pending ride requests retrieved successfully", requests)
}

func (h *RideRequestHandler) GetByID(c *gin.Context) {
	request, err := h.loadVisible(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Ride request retrieved successfully", request)
}

func (h *RideRequestHandler) Create(c *gin.Context) {
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

	var req validators.CreateRideRequestRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	req.ClientID = clientID

	request, err := h.rideRequestService.Create(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.CreatedResponse(c, "Ride request created successfully", request)
}

func (h *RideRequestHandler) Update(c *gin.Context) {
	request, err := h.loadVisible(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req validators.UpdateRideRequestRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	updated, err := h.rideRequestService.Update(c.Request.Context(), request.ID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Ride request updated successfully", updated)
}

// ChangeStatus accepts, refuses or cancels a pending request. Clients may
// only cancel their own.
func (h *RideRequestHandler) ChangeStatus(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req validators.RideRequestStatusRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	if err := checked(validators.ValidateRideRequestStatus(&req)); err != nil {
		_ = c.Error(err)
		return
	}
	if actor.IsClient() && req.Status != string(models.RideRequestStatusCancelled) {
		_ = c.Error(utils.NewPermissionError("clients may only cancel their ride requests"))
		return
	}

	request, err := h.loadVisible(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	updated, err := h.rideRequestService.ChangeStatus(c.Request.Context(), request.ID, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Ride request status updated successfully", updated)
}

func (h *RideRequestHandler) Delete(c *gin.Context) {
	request, err := h.loadVisible(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.rideRequestService.Delete(c.Request.Context(), request.ID); err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Ride request deleted successfully", nil)
}

// loadVisible fetches the request named by the path and hides other
// clients' requests from a client caller.
func (h *RideRequestHandler) loadVisible(c *gin.Context) (*models.RideRequest, error) {
	actor, err := currentActor(c)
	if err != nil {
		return nil, err
	}
	id, err := pathID(c, "id", "id_demande_course")
	if err != nil {
		return nil, err
	}

	request, err := h.rideRequestService.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if actor.IsClient() && request.ClientID != actor.ClientID {
		return nil, utils.NewPermissionError("ride request belongs to another client")
	}
	return request, nil
}
