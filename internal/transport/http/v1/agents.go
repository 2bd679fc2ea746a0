package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListAgents lists all registered agents.
// GET /api/agents
func (h *Handler) ListAgents(c echo.Context) error {
	ctx := c.Request().Context()

	agents, err := h.service.ListAgents(ctx)
	if err != nil {
		return writeError(c, err, nil)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"agents": agents,
	})
}

// AgentHealth probes one agent. Unhealthy agents are reported with 503.
// GET /api/agents/:name/health
func (h *Handler) AgentHealth(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")

	health, err := h.service.CheckAgentHealth(ctx, name)
	if err != nil {
		return writeError(c, err, nil)
	}

	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, health)
}
