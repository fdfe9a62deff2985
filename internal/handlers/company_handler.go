package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salespipe/internal/models"
	"salespipe/internal/services"
)

type CompanyHandler struct {
	Service *services.CompanyService
}

func NewCompanyHandler(service *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{Service: service}
}

func (h *CompanyHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var company models.Company
	if err := c.ShouldBindJSON(&company); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.Create(a, &company); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *CompanyHandler) GetByID(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	company, err := h.Service.GetByID(a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if company == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	companies, err := h.Service.List(a, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

type companyStatusRequest struct {
	Status models.CompanyStatus `json:"status" binding:"required"`
}

func (h *CompanyHandler) UpdateStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req companyStatusRequest
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
