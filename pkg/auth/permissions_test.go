package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPermissionsMatrix(t *testing.T) {
	table := DefaultPermissions()

	tests := []struct {
		role    Role
		granted []Action
		denied  []Action
	}{
		{
			role: RoleOwner,
			granted: []Action{
				ActionCreateAccounts, ActionCreateAdminAccounts,
				ActionUploadImages, ActionDeleteImages,
				ActionCreateTags, ActionAssignTags, ActionEditTags, ActionDeleteTags,
				ActionView,
			},
		},
		{
			role: RoleAdmin,
			granted: []Action{
				ActionCreateAccounts,
				ActionUploadImages, ActionDeleteImages,
				ActionCreateTags, ActionAssignTags, ActionEditTags, ActionDeleteTags,
				ActionView,
			},
			denied: []Action{ActionCreateAdminAccounts},
		},
		{
			role: RoleMod,
			granted: []Action{
				ActionUploadImages, ActionDeleteImages,
				ActionCreateTags, ActionAssignTags, ActionEditTags, ActionDeleteTags,
				ActionView,
			},
			denied: []Action{ActionCreateAccounts, ActionCreateAdminAccounts},
		},
		{
			role: RoleTagger,
			granted: []Action{
				ActionCreateTags, ActionAssignTags, ActionEditTags, ActionDeleteTags,
				ActionView,
			},
			denied: []Action{
				ActionCreateAccounts, ActionCreateAdminAccounts,
				ActionUploadImages, ActionDeleteImages,
			},
		},
		{
			role:    RoleVisitor,
			granted: []Action{ActionView},
			denied: []Action{
				ActionCreateAccounts, ActionCreateAdminAccounts,
				ActionUploadImages, ActionDeleteImages,
				ActionCreateTags, ActionAssignTags, ActionEditTags, ActionDeleteTags,
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			for _, a := range tt.granted {
				assert.True(t, table.HasPermission(tt.role, a), "%s should grant %s", tt.role, a)
			}
			for _, a := range tt.denied {
				assert.False(t, table.HasPermission(tt.role, a), "%s should not grant %s", tt.role, a)
			}
		})
	}
}

func TestUnknownRoleGrantsNothing(t *testing.T) {
	table := DefaultPermissions()
	assert.False(t, table.HasPermission("wizard", ActionView))
	assert.False(t, table.HasPermission("", ActionView))
	assert.False(t, table.KnownRole("wizard"))
	assert.True(t, table.KnownRole(RoleVisitor))
}
