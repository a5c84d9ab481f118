package specfetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoSpec is returned when the download holds no recognisable document.
	ErrNoSpec = errors.New("no API document found in source")
	// ErrNotOpenAPI is returned when the extracted object lacks openapi, swagger and info.
	ErrNotOpenAPI = errors.New("not a valid OpenAPI/Swagger specification")
)

var assignment = regexp.MustCompile(`window\.swaggerSpec\s*=`)

// Extract turns a downloaded source into indented JSON with key order
// preserved. The source may be plain JSON, YAML, or a script assigning an
// object literal to window.swaggerSpec.
func Extract(content []byte) ([]byte, error) {
	literal := bytes.TrimSpace(content)
	if loc := assignment.FindIndex(literal); loc != nil {
		obj, err := objectLiteral(literal[loc[1]:])
		if err != nil {
			return nil, err
		}
		literal = obj
	}
	if len(literal) == 0 {
		return nil, ErrNoSpec
	}

	raw := literal
	if !json.Valid(raw) {
		var err error
		if raw, err = yamlToJSON(literal); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
	}

	if err := validate(raw); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to format document: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func validate(raw []byte) error {
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return ErrNotOpenAPI
	}
	if !root.Get("openapi").Exists() && !root.Get("swagger").Exists() && !root.Get("info").Exists() {
		return ErrNotOpenAPI
	}
	return nil
}

// objectLiteral returns the balanced {...} at the start of src, skipping
// braces inside quoted strings and comments.
func objectLiteral(src []byte) ([]byte, error) {
	start := bytes.IndexByte(src, '{')
	if start < 0 {
		return nil, ErrNoSpec
	}

	depth := 0
	for i := start; i < len(src); i++ {
		switch src[i] {
		case '"', '\'', '`':
			end := skipString(src, i)
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated string", ErrNoSpec)
			}
			i = end
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			} else if i+1 < len(src) && src[i+1] == '*' {
				end := bytes.Index(src[i+2:], []byte("*/"))
				if end < 0 {
					return nil, fmt.Errorf("%w: unterminated comment", ErrNoSpec)
				}
				i += end + 3
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return src[start : i+1], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: unbalanced braces", ErrNoSpec)
}

// skipString returns the index of the closing quote matching src[open].
func skipString(src []byte, open int) int {
	quote := src[open]
	for i := open + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return -1
}

// yamlToJSON decodes a YAML (or JS object literal) document into JSON without
// losing mapping order.
func yamlToJSON(src []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeNode(&buf, &doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return ErrNoSpec
		}
		return writeNode(buf, n.Content[0])
	case yaml.AliasNode:
		return writeNode(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, n.Content[i].Value); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeNode(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		if n.ShortTag() == "!!str" {
			return writeString(buf, n.Value)
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("scalar %q at line %d: %w", n.Value, n.Line, err)
		}
		buf.Write(data)
	default:
		return fmt.Errorf("unsupported node at line %d", n.Line)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
