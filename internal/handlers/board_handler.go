package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salespipe/internal/pipeline"
	"salespipe/internal/services"
)

// BoardHandler exposes the role-filtered kanban board and the single
// transition entry point.
type BoardHandler struct {
	Board    *services.BoardService
	Pipeline *services.PipelineService
}

func NewBoardHandler(board *services.BoardService, pipe *services.PipelineService) *BoardHandler {
	return &BoardHandler{Board: board, Pipeline: pipe}
}

func (h *BoardHandler) GetBoard(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	kind, err := pipeline.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	board, err := h.Board.VisibleBoard(a, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// TransitionRequestBody carries the drag-and-drop commit. ExpectedStage is
// the stage the client observed; it implements the optimistic-concurrency
// contract — a stale value earns 409 and the client must re-fetch.
type TransitionRequestBody struct {
	TargetStage   string  `json:"target_stage" binding:"required"`
	ExpectedStage string  `json:"expected_stage" binding:"required"`
	AssigneeID    *string `json:"assignee_id,omitempty"`
}

func (h *BoardHandler) Transition(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	kind, err := pipeline.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body TransitionRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := pipeline.ParseStage(kind, body.TargetStage)
	if err != nil {
		respondError(c, err)
		return
	}
	expected, err := pipeline.ParseStage(kind, body.ExpectedStage)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.Pipeline.Transition(a, services.TransitionRequest{
		Kind:       kind,
		EntityID:   c.Param("id"),
		Target:     target,
		Expected:   expected,
		AssigneeID: body.AssigneeID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// History returns the append-only stage trail of one entity.
func (h *BoardHandler) History(c *gin.Context) {
	if _, ok := actor(c); !ok {
		return
	}
	kind, err := pipeline.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	trail, err := h.Pipeline.Trail(kind, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trail)
}
