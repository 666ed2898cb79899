package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/storage/memory"
)

func TestUserService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	user, token, err := f.services.User.Register(ctx, &domain.RegisterRequest{
		Email:     "  Alice@Example.COM ",
		Password:  "secret123",
		FirstName: " Alice ",
		LastName:  "Smith",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized address", user.Email)
	}
	if user.FirstName != "Alice" {
		t.Errorf("FirstName = %q, want trimmed", user.FirstName)
	}
	if user.Role != domain.RoleMentee {
		t.Errorf("Role = %q, want default %q", user.Role, domain.RoleMentee)
	}
	if !user.IsActive {
		t.Error("new users should be active")
	}
	if user.PasswordHash == "secret123" || user.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	identity, err := f.services.Tokens.Verify(ctx, token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.UserID != user.ID {
		t.Errorf("token user = %q, want %q", identity.UserID, user.ID)
	}
}

func TestUserService_RegisterDefaultCost(t *testing.T) {
	cfg := testConfig()
	cfg.Security.BcryptCost = 12
	store := memory.NewStore()
	tokens := NewTokenService(cfg.JWT, nil, testLogger())
	users := NewUserService(store, tokens, cfg, testLogger())

	user, _, err := users.Register(t.Context(), &domain.RegisterRequest{
		Email: "cost@example.com", Password: "secret123", FirstName: "Co", LastName: "St",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	cost, err := bcrypt.Cost([]byte(user.PasswordHash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() error = %v", err)
	}
	if cost != 12 {
		t.Errorf("bcrypt cost = %d, want 12", cost)
	}
}

func TestUserService_RegisterValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  domain.RegisterRequest
		want string
	}{
		{
			name: "bad email",
			req:  domain.RegisterRequest{Email: "nope", Password: "secret123", FirstName: "Al", LastName: "Bo"},
			want: "Valid email is required",
		},
		{
			name: "short password",
			req:  domain.RegisterRequest{Email: "a@b.co", Password: "12345", FirstName: "Al", LastName: "Bo"},
			want: "Password must be at least 6 characters long",
		},
		{
			name: "short first name",
			req:  domain.RegisterRequest{Email: "a@b.co", Password: "secret123", FirstName: "A", LastName: "Bo"},
			want: "First name must be at least 2 characters long",
		},
		{
			name: "long last name",
			req:  domain.RegisterRequest{Email: "a@b.co", Password: "secret123", FirstName: "Al", LastName: strings.Repeat("x", 51)},
			want: "Last name cannot exceed 50 characters",
		},
		{
			name: "unknown role",
			req:  domain.RegisterRequest{Email: "a@b.co", Password: "secret123", FirstName: "Al", LastName: "Bo", Role: "owner"},
			want: "Role must be either mentee, mentor, or admin",
		},
		{
			name: "admin self-registration",
			req:  domain.RegisterRequest{Email: "a@b.co", Password: "secret123", FirstName: "Al", LastName: "Bo", Role: domain.RoleAdmin},
			want: "Admin accounts cannot be self-registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, _, err := f.services.User.Register(t.Context(), &req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Register() error = %v, want validation error", err)
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error is not a *ValidationError: %T", err)
			}
			found := false
			for _, msg := range verr.Errors {
				if msg == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("errors = %v, want to contain %q", verr.Errors, tt.want)
			}
		})
	}
}

func TestUserService_RegisterAdminAllowList(t *testing.T) {
	f := newFixture(t)

	user, _, err := f.services.User.Register(t.Context(), &domain.RegisterRequest{
		Email: "ROOT@example.com", Password: "secret123", FirstName: "Ro", LastName: "Ot", Role: domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Errorf("Role = %q, want admin", user.Role)
	}
}

func TestUserService_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "dup@example.com", domain.RoleMentee)

	_, _, err := f.services.User.Register(t.Context(), &domain.RegisterRequest{
		Email: "DUP@example.com", Password: "secret123", FirstName: "Du", LastName: "Pe",
	})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("Register() duplicate error = %v, want %v", err, ErrUserExists)
	}
}

func TestUserService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	registered := f.register(t, "login@example.com", domain.RoleMentor)

	user, token, err := f.services.User.Login(ctx, "LOGIN@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("Login() user = %q, want %q", user.ID, registered.ID)
	}
	if token == "" {
		t.Error("Login() should return a token")
	}

	_, _, wrongPassword := f.services.User.Login(ctx, "login@example.com", "wrong-password")
	_, _, unknownEmail := f.services.User.Login(ctx, "ghost@example.com", "secret123")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want %v", wrongPassword, ErrInvalidCredentials)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want %v", unknownEmail, ErrInvalidCredentials)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("failures must be indistinguishable: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestUserService_LoginInactive(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err := f.store.Users().Create(ctx, &domain.User{
		ID:           domain.NewID(),
		Email:        "off@example.com",
		PasswordHash: string(hash),
		FirstName:    "Of",
		LastName:     "Ff",
		Role:         domain.RoleMentee,
		IsActive:     false,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, _, err := f.services.User.Login(ctx, "off@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() inactive error = %v, want %v", err, ErrInvalidCredentials)
	}
}

func TestUserService_Logout(t *testing.T) {
	cfg := testConfig()
	cfg.Security.TokenBlacklist.Enabled = true
	services := NewServices(memory.NewStore(), cfg, nil, testLogger())
	ctx := t.Context()

	_, token, err := services.User.Register(ctx, &domain.RegisterRequest{
		Email: "out@example.com", Password: "secret123", FirstName: "Ou", LastName: "Tt",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := services.User.Logout(ctx, token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := services.Tokens.Verify(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() after logout error = %v, want %v", err, ErrInvalidToken)
	}

	if err := services.User.Logout(ctx, ""); err != nil {
		t.Errorf("Logout() without token error = %v", err)
	}
}

func TestUserService_GetUserByID(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	user := f.register(t, "get@example.com", domain.RoleMentee)

	got, err := f.services.User.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Email != user.Email {
		t.Errorf("Email = %q, want %q", got.Email, user.Email)
	}

	for _, id := range []string{"not-a-uuid", domain.NewID()} {
		if _, err := f.services.User.GetUserByID(ctx, id); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("GetUserByID(%q) error = %v, want %v", id, err, ErrUserNotFound)
		}
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	user := f.register(t, "profile@example.com", domain.RoleMentor)

	updated, err := f.services.User.UpdateProfile(ctx, user.ID, domain.Profile{
		Bio:         "  Go developer ",
		Skills:      []string{"go", " ", " kubernetes "},
		LinkedinURL: "linkedin.com/in/someone",
		GithubURL:   "https://github.com/someone",
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if updated.Profile.Bio != "Go developer" {
		t.Errorf("Bio = %q, want trimmed", updated.Profile.Bio)
	}
	if len(updated.Profile.Skills) != 2 || updated.Profile.Skills[1] != "kubernetes" {
		t.Errorf("Skills = %v, want [go kubernetes]", updated.Profile.Skills)
	}
	if updated.Role != domain.RoleMentor || updated.Email != user.Email {
		t.Error("profile update must not touch other fields")
	}

	// Replacing with an empty profile clears it
	cleared, err := f.services.User.UpdateProfile(ctx, user.ID, domain.Profile{})
	if err != nil {
		t.Fatalf("UpdateProfile() clear error = %v", err)
	}
	if cleared.Profile.Bio != "" || len(cleared.Profile.Skills) != 0 {
		t.Errorf("Profile = %+v, want cleared", cleared.Profile)
	}
}

func TestUserService_UpdateProfileInvalidURLs(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "urls@example.com", domain.RoleMentee)

	_, err := f.services.User.UpdateProfile(t.Context(), user.ID, domain.Profile{
		LinkedinURL:  "not a url",
		GithubURL:    "ftp://github.com/x",
		PortfolioURL: "localhost",
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("UpdateProfile() error = %v, want validation error", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("errors = %v, want three URL messages", verr.Errors)
	}
}

func TestValidProfileURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"", true},
		{"example.com", true},
		{"https://example.com/path", true},
		{"http://sub.example.org", true},
		{"ftp://example.com", false},
		{"localhost", false},
		{"https://", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		if got := validProfileURL(tt.url); got != tt.want {
			t.Errorf("validProfileURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestUserService_ListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	for i := 0; i < 15; i++ {
		f.register(t, fmt.Sprintf("mentor%d@example.com", i), domain.RoleMentor)
	}
	f.register(t, "mentee@example.com", domain.RoleMentee)

	users, page, err := f.services.User.ListUsers(ctx, domain.UserFilter{Role: domain.RoleMentor, Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 5 {
		t.Errorf("len(users) = %d, want 5", len(users))
	}
	if page.Total != 15 || page.Pages != 2 || page.Page != 2 || page.Limit != 10 {
		t.Errorf("pagination = %+v, want total 15 pages 2", page)
	}

	_, page, err = f.services.User.ListUsers(ctx, domain.UserFilter{Limit: 1000})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if page.Page != 1 || page.Limit != MaxPageLimit {
		t.Errorf("pagination = %+v, want page 1 limit %d", page, MaxPageLimit)
	}

	if _, _, err := f.services.User.ListUsers(ctx, domain.UserFilter{Role: "owner"}); !errors.Is(err, ErrValidation) {
		t.Errorf("ListUsers() bad role error = %v, want validation error", err)
	}
}

func TestUserService_UpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	user := f.register(t, "promote@example.com", domain.RoleMentee)

	updated, err := f.services.User.UpdateRole(ctx, user.ID, domain.RoleMentor)
	if err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	if updated.Role != domain.RoleMentor {
		t.Errorf("Role = %q, want mentor", updated.Role)
	}

	role, active, err := f.services.User.CurrentRole(ctx, user.ID)
	if err != nil || role != domain.RoleMentor || !active {
		t.Errorf("CurrentRole() = %q, %v, %v", role, active, err)
	}

	if _, err := f.services.User.UpdateRole(ctx, user.ID, "owner"); !errors.Is(err, ErrValidation) {
		t.Errorf("UpdateRole() bad role error = %v, want validation error", err)
	}
	if _, err := f.services.User.UpdateRole(ctx, domain.NewID(), domain.RoleAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdateRole() unknown user error = %v, want %v", err, ErrUserNotFound)
	}
}
