package auth

// Role is an account's access level
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleMod     Role = "mod"
	RoleTagger  Role = "tagger"
	RoleVisitor Role = "visitor"
)

// Action is something a role may be permitted to do
type Action string

const (
	ActionCreateAccounts      Action = "create-accounts"
	ActionCreateAdminAccounts Action = "create-admin-accounts"
	ActionUploadImages        Action = "upload-images"
	ActionDeleteImages        Action = "delete-images"
	ActionCreateTags          Action = "create-tags"
	ActionAssignTags          Action = "assign-tags"
	ActionEditTags            Action = "edit-tags"
	ActionDeleteTags          Action = "delete-tags"
	ActionView                Action = "view"
)

// PermissionTable maps roles to their granted actions. Built once at load
// time and never mutated afterwards.
type PermissionTable map[Role]map[Action]bool

// DefaultPermissions returns the fixed role-permission matrix.
func DefaultPermissions() PermissionTable {
	grants := map[Role][]Action{
		RoleOwner: {
			ActionCreateAccounts, ActionCreateAdminAccounts,
			ActionUploadImages, ActionDeleteImages,
			ActionCreateTags, ActionAssignTags, ActionEditTags, ActionDeleteTags,
			ActionView,
		},
		RoleAdmin: {
			ActionCreateAccounts,
			ActionUploadImages, ActionDeleteImages,
			ActionCreateTags, ActionAssignTags, ActionEditTags, ActionDeleteTags,
			ActionView,
		},
		RoleMod: {
			ActionUploadImages, ActionDeleteImages,
			ActionCreateTags, ActionAssignTags, ActionEditTags, ActionDeleteTags,
			ActionView,
		},
		RoleTagger: {
			ActionCreateTags, ActionAssignTags, ActionEditTags, ActionDeleteTags,
			ActionView,
		},
		RoleVisitor: {
			ActionView,
		},
	}

	table := make(PermissionTable, len(grants))
	for role, actions := range grants {
		set := make(map[Action]bool, len(actions))
		for _, a := range actions {
			set[a] = true
		}
		table[role] = set
	}
	return table
}

// HasPermission reports whether the role grants the action. Unknown roles
// grant nothing.
func (t PermissionTable) HasPermission(role Role, action Action) bool {
	return t[role][action]
}

// KnownRole reports whether the role is part of the fixed role set.
func (t PermissionTable) KnownRole(role Role) bool {
	_, ok := t[role]
	return ok
}
