package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleManager, true},
		{RoleAdmin, RoleUser, true},
		{RoleManager, RoleAdmin, false},
		{RoleManager, RoleManager, true},
		{RoleManager, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleManager, false},
		{RoleUser, RoleUser, true},
		{RoleGuest, RoleUser, false},
		{RoleUser, RoleGuest, true},
		// Unknown roles fail-closed.
		{"unknown", RoleUser, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleUser, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	u := &User{Username: "alice"}
	if got := u.DisplayName(); got != "alice" {
		t.Errorf("expected 'alice', got %q", got)
	}

	var missing *User
	if got := missing.DisplayName(); got != "Unknown" {
		t.Errorf("expected 'Unknown' for nil user, got %q", got)
	}
	if got := (&User{}).DisplayName(); got != "Unknown" {
		t.Errorf("expected 'Unknown' for empty username, got %q", got)
	}
}
