package auth

import "testing"

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}

	for role, perms := range RolePermissions {
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

func TestHasPermission(t *testing.T) {
	if !HasPermission(RoleManager, PermKPIReview) {
		t.Fatal("expected managers to review kpis")
	}
	if HasPermission(RoleEmployee, PermKPIStatsRead) {
		t.Fatal("did not expect employees to read statistics")
	}
	if HasPermission("contractor", PermKPIRead) {
		t.Fatal("did not expect unknown role to have permissions")
	}
}
