package model

import "testing"

func TestActorTypeForRole(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{RoleSuperAdmin, ActorSuperAdmin},
		{RoleAdmin, ActorAdmin},
		{RoleUser, ActorUser},
		{"UNKNOWN", ActorUser},
		{"", ActorUser},
	}
	for _, tt := range tests {
		if got := ActorTypeForRole(tt.role); got != tt.want {
			t.Errorf("ActorTypeForRole(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestFilterValueSets(t *testing.T) {
	if len(Severities()) != 3 {
		t.Errorf("Severities() = %v", Severities())
	}
	for _, actor := range []string{ActorUser, ActorGuest, ActorSystem, ActorAdmin, ActorSuperAdmin} {
		found := false
		for _, a := range ActorTypes() {
			if a == actor {
				found = true
			}
		}
		if !found {
			t.Errorf("ActorTypes() is missing %q", actor)
		}
	}
}
