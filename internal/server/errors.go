package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

// AbortWithError maps internal errors onto JSON error responses.
func AbortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
