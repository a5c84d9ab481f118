package tools

import "github.com/bobmcallan/purelymail-mcp/internal/openapi"

const noDescription = "No description available"

// Describe builds a tool description from an operation's summary and description.
func Describe(op *openapi.Operation) string {
	summary, description := op.Summary, op.Description
	switch {
	case summary != "" && description != "" && summary != description:
		return summary + ". " + description
	case summary != "":
		return summary
	case description != "":
		return description
	default:
		return noDescription
	}
}
