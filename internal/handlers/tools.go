package handlers

import (
	"net/http"

	"github.com/bobmcallan/purelymail-mcp/internal/common"
	"github.com/bobmcallan/purelymail-mcp/internal/openapi"
	"github.com/bobmcallan/purelymail-mcp/internal/tools"
)

// ToolInfo is one entry of the tool catalog.
type ToolInfo struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Operations  []string            `json:"operations"`
	InputSchema *openapi.SchemaNode `json:"input_schema"`
}

// ToolCatalog lists the descriptors of a registry in registration order.
func ToolCatalog(registry *tools.Registry) []ToolInfo {
	list := registry.List()
	out := make([]ToolInfo, 0, len(list))
	for _, d := range list {
		out = append(out, ToolInfo{
			Name:        d.Name,
			Description: d.Description,
			Operations:  d.Operations,
			InputSchema: d.InputSchema,
		})
	}
	return out
}

// ToolsHandler serves the registered tool catalog.
type ToolsHandler struct {
	logger   *common.Logger
	registry *tools.Registry
}

// NewToolsHandler creates a catalog handler over registry.
func NewToolsHandler(logger *common.Logger, registry *tools.Registry) *ToolsHandler {
	return &ToolsHandler{logger: logger, registry: registry}
}

// ServeHTTP handles GET /api/tools.
func (h *ToolsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count": h.registry.Len(),
		"tools": ToolCatalog(h.registry),
	})
}
