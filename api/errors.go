package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luxtouch/spadispatch/internal/domain"
)

// respondError maps the core error taxonomy onto HTTP statuses. Conflict and
// expired are distinct so clients can tell "too slow" from "gone stale"
// from "bad input".
func respondError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "request no longer pending"})
	case errors.Is(err, domain.ErrRequestExpired):
		c.JSON(http.StatusGone, gin.H{"error": "request has expired"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
