package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"salespipe/internal/pdf"
	"salespipe/internal/pipeline"
	"salespipe/internal/services"
)

type ReportHandler struct {
	Stats *services.StatsService
	PDF   pdf.Generator
}

func NewReportHandler(stats *services.StatsService, gen pdf.Generator) *ReportHandler {
	return &ReportHandler{Stats: stats, PDF: gen}
}

func (h *ReportHandler) parseScope(c *gin.Context) (pipeline.EntityKind, services.StatsScope, bool) {
	kind, err := pipeline.ParseKind(c.DefaultQuery("kind", "lead"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	scope := services.StatsScope(c.DefaultQuery("scope", "me"))
	switch scope {
	case services.ScopeMe, services.ScopeTeam, services.ScopeAll:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be me, team or all"})
		return "", "", false
	}
	return kind, scope, true
}

func (h *ReportHandler) GetStats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	kind, scope, ok := h.parseScope(c)
	if !ok {
		return
	}
	result, err := h.Stats.Compute(a, kind, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetStatsPDF renders the same aggregates as a downloadable summary.
func (h *ReportHandler) GetStatsPDF(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	kind, scope, ok := h.parseScope(c)
	if !ok {
		return
	}
	result, err := h.Stats.Compute(a, kind, scope)
	if err != nil {
		respondError(c, err)
		return
	}

	data := pdf.SummaryData{
		Kind:             string(kind),
		Scope:            string(scope),
		GeneratedAt:      time.Now(),
		TotalValue:       result.TotalValue.StringFixed(2),
		ConversionRate:   result.ConversionRate,
		AvgDaysToConvert: result.AvgDaysToConvert,
		PendingCount:     result.PendingCount,
	}
	chain, err := pipeline.Chain(kind)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, def := range chain {
		data.Rows = append(data.Rows, pdf.SummaryRow{
			StageLabel: def.Label,
			Count:      result.PerStage[def.ID],
		})
	}

	path, err := h.PDF.GenerateSummary(data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.FileAttachment(path, "pipeline_summary.pdf")
}
