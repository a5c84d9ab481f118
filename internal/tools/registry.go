package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/purelymail-mcp/internal/common"
	"github.com/bobmcallan/purelymail-mcp/internal/openapi"
)

// Registry holds the assembled tools in registration order. It is not
// modified after Build returns.
type Registry struct {
	tools  []*Descriptor
	byName map[string]*Descriptor
	logger *common.Logger
}

func newRegistry(logger *common.Logger) *Registry {
	return &Registry{
		byName: make(map[string]*Descriptor),
		logger: logger,
	}
}

// add registers d unless its name is invalid or already taken; the first
// registration of a name wins.
func (r *Registry) add(d *Descriptor) bool {
	ops := strings.Join(d.Operations, ", ")

	if !openapi.ValidName(d.Name) {
		r.logger.Warn().Str("operations", ops).Str("name", d.Name).Msg("Skipping tool with empty or invalid name")
		return false
	}
	if existing, ok := r.byName[d.Name]; ok {
		r.logger.Warn().
			Str("tool", d.Name).
			Str("registered", strings.Join(existing.Operations, ", ")).
			Str("skipped", ops).
			Msg("Duplicate tool name, keeping first registration")
		return false
	}

	r.byName[d.Name] = d
	r.tools = append(r.tools, d)
	return true
}

// List returns the tools in registration order.
func (r *Registry) List() []*Descriptor {
	out := make([]*Descriptor, len(r.tools))
	copy(out, r.tools)
	return out
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Invoke runs the named tool.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return d.Execute(ctx, args)
}
