package openapi

import "strings"

// DefaultResource is the resource key for operations without tags.
const DefaultResource = "general"

// Entry is one operation found in the document.
type Entry struct {
	Path      string
	Method    string
	Operation *Operation
}

// ResourceGroup collects the entries served by one per-resource tool.
type ResourceGroup struct {
	Resource string
	Entries  []Entry
}

// OperationIDs returns the raw operation ids of the group's entries in order.
func (g ResourceGroup) OperationIDs() []string {
	ids := make([]string, len(g.Entries))
	for i, e := range g.Entries {
		ids[i] = e.Operation.OperationID
	}
	return ids
}

// ExtractOperations walks every path and method in document order and
// returns each operation carrying an operationId. Members of a path item that
// do not decode to an operation are skipped.
func ExtractOperations(doc *Document) []Entry {
	if doc == nil || doc.Paths == nil {
		return nil
	}

	var entries []Entry
	for path := doc.Paths.Oldest(); path != nil; path = path.Next() {
		if path.Value == nil {
			continue
		}
		for method := path.Value.Oldest(); method != nil; method = method.Next() {
			op, err := decodeOperation(method.Value)
			if err != nil || op.OperationID == "" {
				continue
			}
			entries = append(entries, Entry{
				Path:      path.Key,
				Method:    strings.ToUpper(method.Key),
				Operation: op,
			})
		}
	}
	return entries
}

// ResourceKey derives a resource key from an operation's first tag:
// lowercased with spaces replaced by underscores, or DefaultResource.
func ResourceKey(op *Operation) string {
	if op == nil || len(op.Tags) == 0 || op.Tags[0] == "" {
		return DefaultResource
	}
	return strings.ReplaceAll(strings.ToLower(op.Tags[0]), " ", "_")
}

// GroupByResource groups entries by path. Every operation of a path joins the
// resource named by the last operation seen for that path. Groups keep the
// order in which they first appear.
func GroupByResource(entries []Entry) []ResourceGroup {
	pathResource := make(map[string]string)
	for _, e := range entries {
		pathResource[e.Path] = ResourceKey(e.Operation)
	}

	index := make(map[string]int)
	var groups []ResourceGroup
	for _, e := range entries {
		resource := pathResource[e.Path]
		i, ok := index[resource]
		if !ok {
			i = len(groups)
			index[resource] = i
			groups = append(groups, ResourceGroup{Resource: resource})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}
