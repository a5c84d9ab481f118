package client

import "fmt"

type fallbackFunc func(params map[string]any) any

// builtinFallbacks answers PurelyMail operations whose document entry carries
// no example. Keys are raw operation ids.
var builtinFallbacks = map[string]fallbackFunc{
	"Create User": func(p map[string]any) any {
		return message("Mock: Created user %s@%s", param(p, "userName"), param(p, "domainName"))
	},
	"Delete User": func(p map[string]any) any {
		return message("Mock: Deleted user %s", param(p, "userName"))
	},
	"List Users": func(map[string]any) any {
		return result(map[string]any{
			"users": []any{"user1@example.com", "user2@example.com", "admin@example.com"},
		})
	},
	"Modify User": func(p map[string]any) any {
		return message("Mock: Modified user %s", param(p, "userName"))
	},
	"Get User": func(map[string]any) any {
		return result(map[string]any{
			"enableSearchIndexing":           true,
			"recoveryEnabled":                true,
			"requireTwoFactorAuthentication": false,
			"enableSpamFiltering":            true,
			"resetMethods":                   []any{},
		})
	},
	"Create or update Password Reset Method": func(p map[string]any) any {
		return message("Mock: Updated password reset method for %s", param(p, "userName"))
	},
	"Delete Password Reset Method": func(p map[string]any) any {
		return message("Mock: Deleted password reset method for %s", param(p, "userName"))
	},
	"List Password Reset Methods": func(map[string]any) any {
		return result(map[string]any{
			"users": []any{
				map[string]any{
					"type":          "email",
					"target":        "recovery@example.com",
					"description":   "Recovery email",
					"allowMfaReset": true,
				},
			},
		})
	},
	"Create Routing Rule": func(p map[string]any) any {
		return message("Mock: Created routing rule for %s", param(p, "domainName"))
	},
	"Delete Routing Rule": func(p map[string]any) any {
		return message("Mock: Deleted routing rule %s", param(p, "routingRuleId"))
	},
	"List Routing Rules": func(map[string]any) any {
		return result(map[string]any{
			"rules": []any{
				map[string]any{
					"id":              1,
					"domainName":      "example.com",
					"prefix":          false,
					"matchUser":       "contact",
					"targetAddresses": []any{"admin@example.com"},
					"catchall":        false,
				},
			},
		})
	},
	"Add Domain": func(p map[string]any) any {
		return message("Mock: Added domain %s", param(p, "domainName"))
	},
	"Get Ownership Code": func(map[string]any) any {
		return result(map[string]any{"code": "purelymail-verification-12345abcdef"})
	},
	"List Domains": func(map[string]any) any {
		return result(map[string]any{
			"domains": []any{
				map[string]any{
					"name":                  "example.com",
					"allowAccountReset":     true,
					"symbolicSubaddressing": true,
					"isShared":              false,
					"dnsSummary": map[string]any{
						"passesMx":    true,
						"passesSpf":   true,
						"passesDkim":  true,
						"passesDmarc": true,
					},
				},
			},
		})
	},
	"Update Domain Settings": func(p map[string]any) any {
		return message("Mock: Updated settings for domain %s", param(p, "name"))
	},
	"Delete Domain": func(p map[string]any) any {
		return message("Mock: Deleted domain %s", param(p, "name"))
	},
	"Create App Password": func(map[string]any) any {
		return result(map[string]any{"appPassword": "mock-app-password-123456789"})
	},
	"Delete App Password": func(p map[string]any) any {
		return message("Mock: Deleted app password for %s", param(p, "userName"))
	},
	"Check Account Credit": func(map[string]any) any {
		return result(map[string]any{"credit": "25.50"})
	},
}

// Fallback returns the built-in answer for operationID, or nil when the
// table has no entry for it.
func Fallback(operationID string, params map[string]any) any {
	fn, ok := builtinFallbacks[operationID]
	if !ok {
		return nil
	}
	return fn(params)
}

func message(format string, args ...any) map[string]any {
	return map[string]any{
		"success": true,
		"message": fmt.Sprintf(format, args...),
	}
}

func result(v map[string]any) map[string]any {
	return map[string]any{"result": v}
}

func param(p map[string]any, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
