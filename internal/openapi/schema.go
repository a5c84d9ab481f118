package openapi

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/bobmcallan/purelymail-mcp/internal/common"
)

// ErrUnresolvedSchema marks a request body whose references could not be
// followed. The resolver absorbs it and falls back to an empty object schema.
var ErrUnresolvedSchema = errors.New("unresolved request schema")

// SchemaNode is a JSON Schema fragment in the subset tools accept.
type SchemaNode struct {
	Type        string
	Description string
	Default     json.RawMessage
	Enum        []any
	Items       *SchemaNode
	Properties  *orderedmap.OrderedMap[string, *SchemaNode]
	Required    []string
}

// NewObjectSchema returns {type: object, properties: {}, required: []}.
func NewObjectSchema() *SchemaNode {
	return &SchemaNode{
		Type:       "object",
		Properties: orderedmap.New[string, *SchemaNode](),
		Required:   []string{},
	}
}

type schemaJSON struct {
	Type        string                                      `json:"type"`
	Description string                                      `json:"description,omitempty"`
	Default     json.RawMessage                             `json:"default,omitempty"`
	Enum        []any                                       `json:"enum,omitempty"`
	Items       *SchemaNode                                 `json:"items,omitempty"`
	Properties  *orderedmap.OrderedMap[string, *SchemaNode] `json:"properties,omitempty"`
	Required    *[]string                                   `json:"required,omitempty"`
}

// MarshalJSON keeps property order and emits "required" whenever it is set,
// so a top-level schema always carries both "properties" and "required".
func (n SchemaNode) MarshalJSON() ([]byte, error) {
	out := schemaJSON{
		Type:        n.Type,
		Description: n.Description,
		Default:     n.Default,
		Enum:        n.Enum,
		Items:       n.Items,
		Properties:  n.Properties,
	}
	if n.Required != nil {
		required := n.Required
		out.Required = &required
	}
	return json.Marshal(out)
}

// Property returns the named property, if any.
func (n *SchemaNode) Property(name string) (*SchemaNode, bool) {
	if n.Properties == nil {
		return nil, false
	}
	return n.Properties.Get(name)
}

// PropertyNames returns property names in declaration order.
func (n *SchemaNode) PropertyNames() []string {
	if n.Properties == nil {
		return nil
	}
	names := make([]string, 0, n.Properties.Len())
	for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Translate copies a schema fragment into a SchemaNode. It never fails:
// unexpected shapes produce the closest node it can build, and nested $ref
// pointers are not followed.
func Translate(fragment []byte) *SchemaNode {
	return translate(gjson.ParseBytes(fragment))
}

func translate(src gjson.Result) *SchemaNode {
	node := &SchemaNode{Type: "string"}
	if !src.IsObject() {
		return node
	}

	if t := src.Get("type"); t.Type == gjson.String && t.Str != "" {
		node.Type = t.Str
	}
	if d := src.Get("description"); d.Type == gjson.String {
		node.Description = d.Str
	}
	if def := src.Get("default"); def.Exists() {
		node.Default = json.RawMessage(def.Raw)
	}
	if enum := src.Get("enum"); enum.IsArray() {
		node.Enum = []any{}
		enum.ForEach(func(_, value gjson.Result) bool {
			node.Enum = append(node.Enum, json.RawMessage(value.Raw))
			return true
		})
	}

	switch node.Type {
	case "array":
		if items := src.Get("items"); items.Exists() && items.Type != gjson.Null {
			node.Items = translate(items)
		}
	case "object":
		if props := src.Get("properties"); props.IsObject() {
			node.Properties = orderedmap.New[string, *SchemaNode]()
			props.ForEach(func(key, value gjson.Result) bool {
				node.Properties.Set(key.String(), translate(value))
				return true
			})
		}
	}

	return node
}

// Resolver builds request input schemas from a document's components.
type Resolver struct {
	doc    *Document
	logger *common.Logger
}

// NewResolver creates a resolver over doc.
func NewResolver(doc *Document, logger *common.Logger) *Resolver {
	return &Resolver{doc: doc, logger: logger}
}

// RequestSchema returns the object schema for op's JSON request body. It
// follows the operation's requestBody reference into components.requestBodies,
// then the application/json schema reference into components.schemas. Any
// broken link yields an empty object schema.
func (r *Resolver) RequestSchema(op *Operation) *SchemaNode {
	schema, err := r.resolve(op)
	if err != nil {
		if r.logger != nil {
			r.logger.Debug().
				Str("operation_id", op.OperationID).
				Err(err).
				Msg("Request schema not resolved, using empty object")
		}
		return NewObjectSchema()
	}
	return schema
}

func (r *Resolver) resolve(op *Operation) (*SchemaNode, error) {
	if op.RequestBody == nil || op.RequestBody.Ref == "" {
		return NewObjectSchema(), nil
	}

	bodyName := op.RequestBody.Name()
	body, ok := r.doc.Components.RequestBodies[bodyName]
	if !ok {
		return nil, fmt.Errorf("%w: request body %q not found", ErrUnresolvedSchema, bodyName)
	}

	schemaRef := gjson.GetBytes(body, "content.application/json.schema.$ref")
	if schemaRef.Type != gjson.String || schemaRef.Str == "" {
		return nil, fmt.Errorf("%w: request body %q has no application/json schema reference", ErrUnresolvedSchema, bodyName)
	}

	schemaName := refName(schemaRef.Str)
	data, ok := r.doc.Components.Schemas[schemaName]
	if !ok {
		return nil, fmt.Errorf("%w: schema %q not found", ErrUnresolvedSchema, schemaName)
	}

	src := gjson.ParseBytes(data)
	schema := NewObjectSchema()
	if props := src.Get("properties"); props.IsObject() {
		props.ForEach(func(key, value gjson.Result) bool {
			schema.Properties.Set(key.String(), translate(value))
			return true
		})
	}
	if required := src.Get("required"); required.IsArray() {
		required.ForEach(func(_, value gjson.Result) bool {
			if value.Type != gjson.String {
				return true
			}
			if _, ok := schema.Properties.Get(value.Str); ok {
				schema.Required = append(schema.Required, value.Str)
			}
			return true
		})
	}

	return schema, nil
}
