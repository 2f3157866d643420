package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"question:view",
		"instance:view",
		"submission:create",
		"submission:view-own",
	},
	"teacher": {
		"question:create",
		"question:view",
		"question:list",
		"instance:create",
		"instance:view",
		"instance:view-answer",
		"submission:create",
		"submission:view-all",
	},
	"admin": {
		"*", // everything
	},
}
