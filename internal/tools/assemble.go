package tools

import (
	"context"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/bobmcallan/purelymail-mcp/internal/common"
	"github.com/bobmcallan/purelymail-mcp/internal/openapi"
)

// actionParam is the discriminator property of per-resource tools.
const actionParam = "action"

// Strategy selects how operations are grouped into tools.
type Strategy string

const (
	// PerOperation registers one tool per operation.
	PerOperation Strategy = "per_operation"
	// PerResource registers one tool per resource with an action argument.
	PerResource Strategy = "per_resource"
)

// ParseStrategy parses a configured strategy name. Empty selects PerOperation.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.TrimSpace(strings.ToLower(s))) {
	case "", PerOperation:
		return PerOperation, nil
	case PerResource:
		return PerResource, nil
	default:
		return "", fmt.Errorf("unknown tool strategy %q", s)
	}
}

// Descriptor is one callable tool.
type Descriptor struct {
	Name        string
	Description string
	InputSchema *openapi.SchemaNode
	Execute     Executor
	// Operations lists the raw operation ids the tool serves.
	Operations []string
}

// Assembler turns extracted operations into tool descriptors.
type Assembler struct {
	dispatcher *Dispatcher
	logger     *common.Logger
}

// NewAssembler creates an assembler whose executors come from dispatcher.
func NewAssembler(dispatcher *Dispatcher, logger *common.Logger) *Assembler {
	return &Assembler{dispatcher: dispatcher, logger: logger}
}

// AssembleOperation builds the tool for a single operation.
func (a *Assembler) AssembleOperation(entry openapi.Entry, schema *openapi.SchemaNode) *Descriptor {
	op := entry.Operation
	return &Descriptor{
		Name:        openapi.Normalize(op.OperationID),
		Description: Describe(op),
		InputSchema: schema,
		Execute:     a.dispatcher.MakeExecutor(entry.Path, entry.Method, op.OperationID),
		Operations:  []string{op.OperationID},
	}
}

// AssembleResource builds the tool for a resource from its per-operation
// members. The "action" argument names the member operation by raw id; the
// remaining arguments go to that member unchanged.
func (a *Assembler) AssembleResource(resource string, members []*Descriptor) *Descriptor {
	schema := openapi.NewObjectSchema()
	action := &openapi.SchemaNode{
		Type:        "string",
		Description: "The operation to perform",
		Enum:        []any{},
	}
	schema.Properties.Set(actionParam, action)
	schema.Required = append(schema.Required, actionParam)

	byAction := make(map[string]*Descriptor, len(members))
	var actions []string
	for _, m := range members {
		for _, id := range m.Operations {
			if _, dup := byAction[id]; dup {
				continue
			}
			byAction[id] = m
			actions = append(actions, id)
			action.Enum = append(action.Enum, id)
		}
		mergeProperties(schema.Properties, m.InputSchema)
	}

	return &Descriptor{
		Name:        openapi.Normalize("manage_" + resource),
		Description: fmt.Sprintf("Manage %s operations. Available actions: %s", resource, strings.Join(actions, ", ")),
		InputSchema: schema,
		Execute:     resourceExecutor(byAction),
		Operations:  actions,
	}
}

// mergeProperties copies properties from src that dst does not have yet.
func mergeProperties(dst *orderedmap.OrderedMap[string, *openapi.SchemaNode], src *openapi.SchemaNode) {
	if src == nil || src.Properties == nil {
		return
	}
	for pair := src.Properties.Oldest(); pair != nil; pair = pair.Next() {
		if _, exists := dst.Get(pair.Key); exists {
			continue
		}
		dst.Set(pair.Key, pair.Value)
	}
}

func resourceExecutor(byAction map[string]*Descriptor) Executor {
	return func(ctx context.Context, input map[string]any) (any, error) {
		action, _ := input[actionParam].(string)
		member, ok := byAction[action]
		if !ok {
			return nil, &DispatchError{Kind: KindUnknownOperation, OperationID: action}
		}

		args := make(map[string]any, len(input))
		for k, v := range input {
			if k == actionParam {
				continue
			}
			args[k] = v
		}
		return member.Execute(ctx, args)
	}
}

// Build extracts every operation in doc and assembles the registry for strategy.
func (a *Assembler) Build(doc *openapi.Document, strategy Strategy) *Registry {
	resolver := openapi.NewResolver(doc, a.logger)
	entries := openapi.ExtractOperations(doc)
	registry := newRegistry(a.logger)

	if strategy == PerResource {
		for _, group := range openapi.GroupByResource(entries) {
			members := make([]*Descriptor, 0, len(group.Entries))
			for _, e := range group.Entries {
				members = append(members, a.AssembleOperation(e, resolver.RequestSchema(e.Operation)))
			}
			registry.add(a.AssembleResource(group.Resource, members))
		}
	} else {
		for _, e := range entries {
			registry.add(a.AssembleOperation(e, resolver.RequestSchema(e.Operation)))
		}
	}

	a.logger.Debug().Str("strategy", string(strategy)).Int("operations", len(entries)).Int("tools", registry.Len()).Msg("tools assembled")
	return registry
}
