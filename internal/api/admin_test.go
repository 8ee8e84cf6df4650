package api

import (
	"net/http"
	"testing"

	"github.com/svanleeuwen/hearth/internal/store"
)

func TestListUsersIncludesDeactivatedAccounts(t *testing.T) {
	env := newTestEnv()
	env.users.users = []store.User{
		{ID: "u1", Email: "sam@example.com", Role: store.RoleAdmin, IsActive: true},
		{ID: "u2", Email: "former@example.com", Role: store.RoleMember, IsActive: false},
	}

	rec, body := env.do(t, http.MethodGet, "/api/admin/users", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	users, ok := body["users"].([]any)
	if !ok || len(users) != 2 {
		t.Fatalf("expected both accounts listed, got %v", body["users"])
	}
	byID := make(map[string]map[string]any)
	for _, raw := range users {
		u := raw.(map[string]any)
		byID[u["id"].(string)] = u
	}
	deactivated, ok := byID["u2"]
	if !ok {
		t.Fatalf("deactivated account missing from listing: %v", byID)
	}
	if active, _ := deactivated["is_active"].(bool); active {
		t.Fatal("deactivated account reported as active")
	}
	if active, _ := byID["u1"]["is_active"].(bool); !active {
		t.Fatal("active account reported as inactive")
	}
}
