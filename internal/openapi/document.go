// Package openapi loads an OpenAPI/Swagger document and derives the operations,
// names and input schemas that become MCP tools.
package openapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrInvalidDocument is returned by Parse for input that is not a JSON object.
var ErrInvalidDocument = errors.New("invalid API document")

var errNotOperation = errors.New("not an operation object")

// PathItem maps a method key ("get", "post", ...) to its raw operation JSON.
// Members that are not operations (parameters, summary) are kept raw and
// skipped at extraction time.
type PathItem = orderedmap.OrderedMap[string, json.RawMessage]

// Document is the parsed API description. It is read-only after Parse.
type Document struct {
	OpenAPI    string                                    `json:"openapi,omitempty"`
	Swagger    string                                    `json:"swagger,omitempty"`
	Info       json.RawMessage                           `json:"info,omitempty"`
	Paths      *orderedmap.OrderedMap[string, *PathItem] `json:"paths"`
	Components Components                                `json:"components"`
}

// Components holds the named definitions referenced from operations.
type Components struct {
	Schemas       map[string]json.RawMessage `json:"schemas,omitempty"`
	RequestBodies map[string]json.RawMessage `json:"requestBodies,omitempty"`
}

// Reference is a {"$ref": "#/components/..."} pointer.
type Reference struct {
	Ref string `json:"$ref"`
}

// Name returns the last "/"-separated segment of the reference.
func (r *Reference) Name() string {
	if r == nil {
		return ""
	}
	return refName(r.Ref)
}

// Operation is the subset of an OpenAPI operation object used for tools.
type Operation struct {
	OperationID string          `json:"operationId"`
	Summary     string          `json:"summary,omitempty"`
	Description string          `json:"description,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	RequestBody *Reference      `json:"requestBody,omitempty"`
	Responses   json.RawMessage `json:"responses,omitempty"`
}

// ResponseExample returns the application/json example declared for a
// response status. A missing or null example reports false.
func (op *Operation) ResponseExample(status string) (json.RawMessage, bool) {
	if len(op.Responses) == 0 {
		return nil, false
	}
	res := gjson.GetBytes(op.Responses, gjson.Escape(status)+".content.application/json.example")
	if !res.Exists() || res.Type == gjson.Null {
		return nil, false
	}
	return json.RawMessage(res.Raw), true
}

// HasResponse reports whether the operation declares the given status.
func (op *Operation) HasResponse(status string) bool {
	if len(op.Responses) == 0 {
		return false
	}
	return gjson.GetBytes(op.Responses, gjson.Escape(status)).Exists()
}

// Parse decodes a JSON document. Only a document that is not a JSON object
// is rejected: path entries that are not objects (such as x- extensions with
// scalar values) are skipped, and malformed components are treated as absent.
func Parse(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("failed to parse API document: %w", ErrInvalidDocument)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("failed to parse API document: %w: top level is not an object", ErrInvalidDocument)
	}

	doc := &Document{
		OpenAPI: stringField(root, "openapi"),
		Swagger: stringField(root, "swagger"),
		Paths:   orderedmap.New[string, *PathItem](),
		Components: Components{
			Schemas:       rawObject(root.Get("components.schemas")),
			RequestBodies: rawObject(root.Get("components.requestBodies")),
		},
	}
	if info := root.Get("info"); info.Exists() {
		doc.Info = json.RawMessage(info.Raw)
	}

	root.Get("paths").ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		item := orderedmap.New[string, json.RawMessage]()
		value.ForEach(func(method, op gjson.Result) bool {
			item.Set(method.String(), json.RawMessage(op.Raw))
			return true
		})
		doc.Paths.Set(key.String(), item)
		return true
	})

	return doc, nil
}

// rawObject copies the members of an object result, or returns nil.
func rawObject(r gjson.Result) map[string]json.RawMessage {
	if !r.IsObject() {
		return nil
	}
	out := make(map[string]json.RawMessage)
	r.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = json.RawMessage(value.Raw)
		return true
	})
	return out
}

// stringField returns r[key] when it is a JSON string, else "".
func stringField(r gjson.Result, key string) string {
	v := r.Get(key)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read API document %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Title returns info.title, or an empty string.
func (d *Document) Title() string {
	return gjson.GetBytes(d.Info, "title").String()
}

// Version returns info.version, or an empty string.
func (d *Document) Version() string {
	return gjson.GetBytes(d.Info, "version").String()
}

// Operation looks up the operation at path for method, matching the method
// case-insensitively. It reports false when the path, method or a decodable
// operation is missing.
func (d *Document) Operation(path, method string) (*Operation, bool) {
	item, ok := d.Paths.Get(path)
	if !ok || item == nil {
		return nil, false
	}
	for pair := item.Oldest(); pair != nil; pair = pair.Next() {
		if !strings.EqualFold(pair.Key, method) {
			continue
		}
		op, err := decodeOperation(pair.Value)
		if err != nil {
			return nil, false
		}
		return op, true
	}
	return nil, false
}

// decodeOperation reads an operation object field by field. A field with the
// wrong type is treated as absent; only a value that is not an object fails.
func decodeOperation(raw json.RawMessage) (*Operation, error) {
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return nil, errNotOperation
	}

	op := &Operation{
		OperationID: stringField(r, "operationId"),
		Summary:     stringField(r, "summary"),
		Description: stringField(r, "description"),
	}
	if tags := r.Get("tags"); tags.IsArray() {
		for _, t := range tags.Array() {
			if t.Type == gjson.String {
				op.Tags = append(op.Tags, t.Str)
			}
		}
	}
	if ref := stringField(r.Get("requestBody"), "$ref"); ref != "" {
		op.RequestBody = &Reference{Ref: ref}
	}
	if responses := r.Get("responses"); responses.IsObject() {
		op.Responses = json.RawMessage(responses.Raw)
	}
	return op, nil
}

func refName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
