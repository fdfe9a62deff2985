package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salespipe/internal/middleware"
	"salespipe/internal/models"
	"salespipe/internal/pipeline"
)

// actor pulls the authenticated actor or aborts with 401.
func actor(c *gin.Context) (models.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor in context"})
	}
	return a, ok
}

// respondError maps engine sentinels onto HTTP codes. Conflict (409) is the
// only response a client should retry, after re-fetching the entity.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pipeline.ErrUnknownStage):
		status = http.StatusBadRequest
	case errors.Is(err, pipeline.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, pipeline.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, pipeline.ErrEntityArchived):
		status = http.StatusGone
	case errors.Is(err, pipeline.ErrInvalidTransition), errors.Is(err, pipeline.ErrAssigneeRequired):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pagination(c *gin.Context) (limit, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "100"))
	if err != nil || size < 1 {
		size = 100
	}
	return size, (page - 1) * size
}
