package handler

import (
	"errors"
	"net/http"

	"storehub/internal/service"
	"storehub/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps service-level rejections to HTTP statuses:
// not-found 404, permission denial 403, stale status conflict 409.
// Anything else is treated as a client-side 400.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrStaleState):
		status = http.StatusConflict
	}
	c.JSON(status, response.Error(status, err.Error()))
}
