// Package v1 provides the HTTP handlers of the director API.
package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/director/internal/domain"
	apperrors "github.com/xiaot623/gogo/director/internal/errors"
	"github.com/xiaot623/gogo/director/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Job API
	e.POST("/api/jobs/quote", h.Quote)
	e.POST("/api/jobs/execute", h.Execute)
	e.GET("/api/jobs/:job_id", h.GetJob)

	// Agent API
	e.GET("/api/agents", h.ListAgents)
	e.GET("/api/agents/:name/health", h.AgentHealth)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": domain.Timestamp(time.Now()),
		"uptime":    h.service.Uptime().Seconds(),
	})
}

// statusOf maps an error code to its HTTP status.
func statusOf(code apperrors.Code) int {
	switch code {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodePolicyViolation:
		return http.StatusUnprocessableEntity
	case apperrors.CodePlanning:
		return http.StatusBadGateway
	case apperrors.CodeNoAgentsAvailable, apperrors.CodeRegistryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {error, message} plus any extra fields.
func writeError(c echo.Context, err error, extra map[string]interface{}) error {
	code := apperrors.CodeOf(err)
	status := statusOf(code)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	body := map[string]interface{}{
		"error":   code.Title(),
		"message": err.Error(),
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(status, body)
}
