package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salespipe/internal/models"
	"salespipe/internal/services"
)

type LeadHandler struct {
	Service  *services.LeadService
	Pipeline *services.PipelineService
}

func NewLeadHandler(service *services.LeadService, pipe *services.PipelineService) *LeadHandler {
	return &LeadHandler{Service: service, Pipeline: pipe}
}

func (h *LeadHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var lead models.Lead
	if err := c.ShouldBindJSON(&lead); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.Create(a, &lead); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func (h *LeadHandler) GetByID(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	lead, err := h.Service.GetByID(a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	leads, err := h.Service.List(a, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, leads)
}

type leadStatusRequest struct {
	Status models.LeadStatus `json:"status" binding:"required"`
}

// UpdateStatus flips the open/cancelled tag; the stage graph is untouched.
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req leadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.UpdateStatus(a, c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DaysInStage reports the dwell time of a lead in its current stage.
func (h *LeadHandler) DaysInStage(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	lead, err := h.Service.GetByID(a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stage":         lead.Stage,
		"days_in_stage": h.Pipeline.DaysInCurrentStage(lead.StageEnteredAt),
	})
}
