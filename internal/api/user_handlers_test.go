package api

import (
	"fmt"
	"math"
	"net/http"
	"testing"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/service"
)

func TestUpdateProfile(t *testing.T) {
	env := setupTestEnv(t)
	acct := env.register(t, "profile@example.com", domain.RoleMentor)

	w := env.do(t, http.MethodPut, "/api/users/me/profile", acct.Token, map[string]interface{}{
		"bio":         "  Go developer  ",
		"skills":      []string{"go", " ", "kubernetes"},
		"githubUrl":   "github.com/ada",
		"linkedinUrl": "https://linkedin.com/in/ada",
	})
	expectStatus(t, w, http.StatusOK)

	var resp struct {
		Message string      `json:"message"`
		User    domain.User `json:"user"`
	}
	decode(t, w, &resp)
	if resp.Message != "Profile updated successfully" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.User.Profile.Bio != "Go developer" {
		t.Errorf("Expected trimmed bio, got %q", resp.User.Profile.Bio)
	}
	if len(resp.User.Profile.Skills) != 2 {
		t.Errorf("Expected blank skills to be dropped, got %v", resp.User.Profile.Skills)
	}

	// a full replacement clears omitted fields
	w = env.do(t, http.MethodPut, "/api/users/me/profile", acct.Token, map[string]interface{}{"bio": "new"})
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &resp)
	if resp.User.Profile.GithubURL != "" || len(resp.User.Profile.Skills) != 0 {
		t.Errorf("Expected omitted fields to be cleared, got %+v", resp.User.Profile)
	}
	if resp.User.Profile.Skills == nil {
		t.Error("Expected skills to serialize as an empty list")
	}
}

func TestUpdateProfile_InvalidURL(t *testing.T) {
	env := setupTestEnv(t)
	acct := env.register(t, "badurl@example.com", domain.RoleMentee)

	w := env.do(t, http.MethodPut, "/api/users/me/profile", acct.Token, map[string]interface{}{
		"portfolioUrl": "ftp://example.com",
	})
	expectStatus(t, w, http.StatusBadRequest)

	var resp struct {
		Errors []string `json:"errors"`
	}
	decode(t, w, &resp)
	if len(resp.Errors) != 1 || resp.Errors[0] != "Invalid Portfolio URL format" {
		t.Errorf("unexpected errors %v", resp.Errors)
	}
}

func TestGetProfile(t *testing.T) {
	env := setupTestEnv(t)
	acct := env.register(t, "own@example.com", domain.RoleMentee)

	w := env.do(t, http.MethodGet, "/api/users/me", acct.Token, nil)
	expectStatus(t, w, http.StatusOK)

	var resp struct {
		User domain.User `json:"user"`
	}
	decode(t, w, &resp)
	if resp.User.Email != "own@example.com" {
		t.Errorf("Expected own email, got %q", resp.User.Email)
	}

	w = env.do(t, http.MethodGet, "/api/users/me", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestGetUser(t *testing.T) {
	env := setupTestEnv(t)
	acct := env.register(t, "public@example.com", domain.RoleMentor)

	w := env.do(t, http.MethodGet, "/api/users/"+acct.ID, "", nil)
	expectStatus(t, w, http.StatusOK)

	user, _ := bodyMap(t, w)["user"].(map[string]interface{})
	if user["id"] != acct.ID {
		t.Errorf("Expected user %s, got %v", acct.ID, user["id"])
	}
	if _, ok := user["email"]; ok {
		t.Error("public view must not expose the email")
	}

	for _, id := range []string{domain.NewID(), "not-a-uuid"} {
		w = env.do(t, http.MethodGet, "/api/users/"+id, "", nil)
		expectStatus(t, w, http.StatusNotFound)
		expectMessage(t, w, "User not found")
	}
}

func TestListUsers(t *testing.T) {
	env := setupTestEnv(t)
	for i := 0; i < 12; i++ {
		acct := env.register(t, fmt.Sprintf("mentor%d@example.com", i), domain.RoleMentor)
		skills := []string{"go"}
		if i%3 == 0 {
			skills = []string{"rust"}
		}
		if _, err := env.services.User.UpdateProfile(t.Context(), acct.ID, domain.Profile{Skills: skills}); err != nil {
			t.Fatalf("failed to set skills: %v", err)
		}
	}
	env.register(t, "mentee@example.com", domain.RoleMentee)

	type listResponse struct {
		Users      []map[string]interface{} `json:"users"`
		Pagination service.Pagination       `json:"pagination"`
	}

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantTotal int64
		wantPages int
	}{
		{"defaults", "", 10, 13, 2},
		{"mentors page 2", "?role=mentor&page=2", 2, 12, 2},
		{"custom limit", "?role=mentor&limit=5", 5, 12, 3},
		{"single skill", "?skills=rust", 4, 4, 1},
		{"repeated skills", "?skills=rust&skills=go", 10, 12, 2},
		{"comma separated skills", "?skills=rust,go&limit=20", 12, 12, 1},
		{"unknown skill", "?skills=cobol", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/users"+tt.query, "", nil)
			expectStatus(t, w, http.StatusOK)

			var resp listResponse
			decode(t, w, &resp)
			if len(resp.Users) != tt.wantCount {
				t.Errorf("Expected %d users, got %d", tt.wantCount, len(resp.Users))
			}
			if resp.Pagination.Total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, resp.Pagination.Total)
			}
			if resp.Pagination.Pages != tt.wantPages {
				t.Errorf("Expected %d pages, got %d", tt.wantPages, resp.Pagination.Pages)
			}
			for _, u := range resp.Users {
				if _, ok := u["email"]; ok {
					t.Fatal("directory must not expose emails")
				}
			}
		})
	}
}

func TestListUsers_PageBeyondEnd(t *testing.T) {
	env := setupTestEnv(t)
	for i := 0; i < 3; i++ {
		env.register(t, fmt.Sprintf("mentor%d@example.com", i), domain.RoleMentor)
	}

	tests := []struct {
		name     string
		query    string
		wantPage int
	}{
		{"past the last page", "?page=7", 7},
		{"max int page", "?page=9223372036854775807&limit=10", math.MaxInt},
		{"max page limit", "?page=922337203685477581&limit=100", math.MaxInt/10 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/users"+tt.query, "", nil)
			expectStatus(t, w, http.StatusOK)

			var resp struct {
				Users      []map[string]interface{} `json:"users"`
				Pagination service.Pagination       `json:"pagination"`
			}
			decode(t, w, &resp)
			if resp.Users == nil || len(resp.Users) != 0 {
				t.Errorf("Expected an empty users array, got %v", resp.Users)
			}
			if resp.Pagination.Page != tt.wantPage {
				t.Errorf("Expected page %d, got %d", tt.wantPage, resp.Pagination.Page)
			}
			if resp.Pagination.Total != 3 || resp.Pagination.Pages != 1 {
				t.Errorf("Expected total 3 over 1 page, got %+v", resp.Pagination)
			}
		})
	}
}

func TestListUsers_BadQuery(t *testing.T) {
	env := setupTestEnv(t)

	for _, q := range []string{"?role=wizard", "?page=0", "?page=abc", "?limit=-1"} {
		t.Run(q, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/users"+q, "", nil)
			expectStatus(t, w, http.StatusBadRequest)
			expectMessage(t, w, "Validation failed")
		})
	}
}
