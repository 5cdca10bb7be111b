package handlers

import (
	"hotelops/internal/services"
	"hotelops/internal/utils"
	"hotelops/internal/validators"

	"github.com/gin-gonic/gin"
)

type IncidentHandler struct {
	incidentService services.IncidentService
}

func NewIncidentHandler(incidentService services.IncidentService) *IncidentHandler {
	return &IncidentHandler{
		incidentService: incidentService,
	}
}

func (h *IncidentHandler) Report(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req validators.ReportIncidentRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	req.UserID = actor.UserID

	incident, err := h.incidentService.Report(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.CreatedResponse(c, "Incident reported successfully", incident)
}

func (h *IncidentHandler) GetAll(c *gin.Context) {
	incidents, err := h.incidentService.GetAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Incidents retrieved successfully", incidents)
}

func (h *IncidentHandler) GetByTrip(c *gin.Context) {
	tripID, err := pathID(c, "id", "id_trajet")
	if err != nil {
		_ = c.Error(err)
		return
	}

	incidents, err := h.incidentService.GetByTripID(c.Request.Context(), tripID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Incidents retrieved successfully", incidents)
}

func (h *IncidentHandler) GetByID(c *gin.Context) {
	id, err := pathID(c, "id", "id_incident")
	if err != nil {
		_ = c.Error(err)
		return
	}

	incident, err := h.incidentService.FindByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Incident retrieved successfully", incident)
}

func (h *IncidentHandler) Resolve(c *gin.Context) {
	id, err := pathID(c, "id", "id_incident")
	if err != nil {
		_ = c.Error(err)
		return
	}

	incident, err := h.incidentService.Resolve(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SuccessResponse(c, "Incident marked as resolved", incident)
}
