package rbac

// RolePermissions is the default policy. Patterns ending in "*" match by prefix.
var RolePermissions = map[string][]string{
	"reviewer": {
		"answer:compare",
		"profile:view",
		"user:change_password",
	},
	"editor": {
		"answer:compare",
		"profile:*",
		"history:view",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
