package openapi

import "strings"

// Normalize converts a free-form operation id into a tool name: lowercase,
// each run of characters outside [a-z0-9] collapsed to one underscore, with
// leading and trailing underscores removed.
//
//	Normalize("Create User")              == "create_user"
//	Normalize("  Get--Ownership_Code!!") == "get_ownership_code"
func Normalize(id string) string {
	lower := strings.ToLower(id)

	var b strings.Builder
	b.Grow(len(lower))

	pending := false
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteByte(c)
			continue
		}
		pending = true
	}

	return b.String()
}

// ValidName reports whether name is non-empty and uses only [a-z0-9_].
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}
