package model

import "testing"

func TestRoleCreates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		creator Role
		target  Role
		want    bool
	}{
		{"superadmin creates admin", RoleSuperAdmin, RoleAdmin, true},
		{"superadmin cannot create dispatcher directly", RoleSuperAdmin, RoleDispatcher, false},
		{"superadmin cannot create superadmin", RoleSuperAdmin, RoleSuperAdmin, false},
		{"admin creates dispatcher", RoleAdmin, RoleDispatcher, true},
		{"admin cannot create admin", RoleAdmin, RoleAdmin, false},
		{"dispatcher creates nothing", RoleDispatcher, RoleDispatcher, false},
		{"unknown role creates nothing", Role("MANAGER"), RoleDispatcher, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.creator.Creates(tt.target); got != tt.want {
				t.Errorf("Creates(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	t.Parallel()

	for _, role := range []Role{RoleSuperAdmin, RoleAdmin, RoleDispatcher} {
		if !role.Valid() {
			t.Errorf("Valid() = false for %q", role)
		}
	}
	for _, role := range []Role{"", "admin", "ROOT"} {
		if role.Valid() {
			t.Errorf("Valid() = true for %q", role)
		}
	}
}
