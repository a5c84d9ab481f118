package openapi

import (
	"fmt"
	"io"
	"strings"
)

// DefaultCategory heads report sections for untagged operations.
const DefaultCategory = "General"

// WriteEndpointReport writes a markdown listing of every operation in doc,
// grouped by first tag in order of first appearance. Operations without an
// operationId are listed too.
func WriteEndpointReport(w io.Writer, doc *Document) error {
	type line struct {
		method string
		path   string
		op     *Operation
	}

	var order []string
	groups := make(map[string][]line)

	if doc != nil && doc.Paths != nil {
		for path := doc.Paths.Oldest(); path != nil; path = path.Next() {
			if path.Value == nil {
				continue
			}
			for method := path.Value.Oldest(); method != nil; method = method.Next() {
				op, err := decodeOperation(method.Value)
				if err != nil {
					continue
				}
				category := DefaultCategory
				if len(op.Tags) > 0 && op.Tags[0] != "" {
					category = op.Tags[0]
				}
				if _, seen := groups[category]; !seen {
					order = append(order, category)
				}
				groups[category] = append(groups[category], line{
					method: strings.ToUpper(method.Key),
					path:   path.Key,
					op:     op,
				})
			}
		}
	}

	var b strings.Builder
	b.WriteString("# PurelyMail API Endpoints\n\n")
	b.WriteString("Generated from Swagger specification\n\n")

	for _, category := range order {
		fmt.Fprintf(&b, "## %s\n\n", category)
		for _, l := range groups[category] {
			fmt.Fprintf(&b, "### %s %s\n", l.method, l.path)
			fmt.Fprintf(&b, "- **Operation ID**: %s\n", orNA(l.op.OperationID))
			fmt.Fprintf(&b, "- **Summary**: %s\n", orNA(l.op.Summary))
			fmt.Fprintf(&b, "- **Description**: %s\n\n", orNA(l.op.Description))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
