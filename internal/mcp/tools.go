// Package mcp exposes the tool registry over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/purelymail-mcp/internal/common"
	"github.com/bobmcallan/purelymail-mcp/internal/tools"
)

// Observer receives the outcome of every tool call.
type Observer interface {
	ObserveToolCall(tool, outcome string, d time.Duration)
}

// BuildMCPTool converts a descriptor into an mcp.Tool carrying its input schema.
func BuildMCPTool(d *tools.Descriptor) (mcp.Tool, error) {
	schema, err := json.Marshal(d.InputSchema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to encode input schema for %s: %w", d.Name, err)
	}
	return mcp.NewToolWithRawSchema(d.Name, d.Description, schema), nil
}

// ToolHandler runs a descriptor for an MCP tool call. Failures are reported
// as error results so the session keeps serving.
func ToolHandler(d *tools.Descriptor, observer Observer, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := r.GetArguments()
		if args == nil && r.GetRawArguments() != nil {
			if observer != nil {
				observer.ObserveToolCall(d.Name, "invalid_arguments", 0)
			}
			logger.Warn().Str("tool", d.Name).Str("type", fmt.Sprintf("%T", r.GetRawArguments())).Msg("tool arguments are not an object")
			return errorResult("Error: arguments must be an object"), nil
		}

		start := time.Now()
		result, err := d.Execute(ctx, args)
		duration := time.Since(start)

		outcome := "success"
		if err != nil {
			outcome = string(tools.KindOf(err))
			if outcome == "" {
				outcome = "error"
			}
		}
		if observer != nil {
			observer.ObserveToolCall(d.Name, outcome, duration)
		}

		if err != nil {
			logger.Warn().Str("tool", d.Name).Str("outcome", outcome).Err(err).Msg("tool call failed")
			return errorResult("Error: " + err.Error()), nil
		}

		logger.Debug().Str("tool", d.Name).Int64("duration_ms", duration.Milliseconds()).Msg("tool call succeeded")
		return jsonResult(result)
	}
}

// RegisterTools adds every tool in the registry to s and returns how many
// were registered.
func RegisterTools(s *server.MCPServer, registry *tools.Registry, observer Observer, logger *common.Logger) int {
	count := 0
	for _, d := range registry.List() {
		tool, err := BuildMCPTool(d)
		if err != nil {
			logger.Warn().Str("tool", d.Name).Err(err).Msg("skipping tool")
			continue
		}
		s.AddTool(tool, ToolHandler(d, observer, logger))
		count++
	}
	return count
}
