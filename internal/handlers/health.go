package handlers

import (
	"net/http"

	"github.com/bobmcallan/purelymail-mcp/internal/common"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger *common.Logger
	mode   string
	tools  int
}

// NewHealthHandler creates a new health handler reporting the execution mode
// ("live" or "replay") and the number of registered tools.
func NewHealthHandler(logger *common.Logger, mode string, tools int) *HealthHandler {
	return &HealthHandler{logger: logger, mode: mode, tools: tools}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"mode":   h.mode,
		"tools":  h.tools,
	})
}
