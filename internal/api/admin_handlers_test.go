package api

import (
	"net/http"
	"testing"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
)

// promote makes acct an admin in storage without reissuing its token
func promote(t *testing.T, env *testEnv, acct account) {
	t.Helper()
	if _, err := env.services.User.UpdateRole(t.Context(), acct.ID, domain.RoleAdmin); err != nil {
		t.Fatalf("failed to promote: %v", err)
	}
}

func TestAdminListUsers(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.register(t, "admin@example.com", domain.RoleMentee)
	env.register(t, "someone@example.com", domain.RoleMentor)

	w := env.do(t, http.MethodGet, "/api/admin/users", admin.Token, nil)
	expectStatus(t, w, http.StatusForbidden)
	expectMessage(t, w, "Insufficient permissions")

	// the stored role decides, not the token claims
	promote(t, env, admin)

	w = env.do(t, http.MethodGet, "/api/admin/users", admin.Token, nil)
	expectStatus(t, w, http.StatusOK)

	var resp struct {
		Users []map[string]interface{} `json:"users"`
	}
	decode(t, w, &resp)
	if len(resp.Users) != 2 {
		t.Errorf("Expected 2 users, got %d", len(resp.Users))
	}
	for _, u := range resp.Users {
		if _, ok := u["passwordHash"]; ok {
			t.Fatal("password hash must not be serialized")
		}
	}

	w = env.do(t, http.MethodGet, "/api/admin/users", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestAdminUpdateRole(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.register(t, "admin@example.com", domain.RoleMentee)
	promote(t, env, admin)
	target := env.register(t, "target@example.com", domain.RoleMentee)

	w := env.do(t, http.MethodPut, "/api/admin/users/"+target.ID+"/role", admin.Token, map[string]string{"role": "mentor"})
	expectStatus(t, w, http.StatusOK)
	expectMessage(t, w, "Role updated")

	user, err := env.services.User.GetUserByID(t.Context(), target.ID)
	if err != nil {
		t.Fatalf("failed to load target: %v", err)
	}
	if user.Role != domain.RoleMentor {
		t.Errorf("Expected mentor, got %s", user.Role)
	}

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
		wantMsg    string
	}{
		{"invalid role", "/api/admin/users/" + target.ID + "/role", map[string]string{"role": "owner"}, http.StatusBadRequest, "Invalid role"},
		{"missing role", "/api/admin/users/" + target.ID + "/role", map[string]string{}, http.StatusBadRequest, "Invalid role"},
		{"unknown user", "/api/admin/users/" + domain.NewID() + "/role", map[string]string{"role": "mentor"}, http.StatusNotFound, "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPut, tt.path, admin.Token, tt.body)
			expectStatus(t, w, tt.wantStatus)
			expectMessage(t, w, tt.wantMsg)
		})
	}

	// a demoted admin loses access immediately
	if _, err := env.services.User.UpdateRole(t.Context(), admin.ID, domain.RoleMentee); err != nil {
		t.Fatalf("failed to demote: %v", err)
	}
	w = env.do(t, http.MethodGet, "/api/admin/users", admin.Token, nil)
	expectStatus(t, w, http.StatusForbidden)
}
