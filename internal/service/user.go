package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/storage"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
)

// Name and password limits
const (
	MinPasswordLength = 6
	MinNameLength     = 2
	MaxNameLength     = 50
)

// Directory paging limits
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Pagination describes one page of a listing
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// UserService handles user-related operations
type UserService struct {
	store  storage.Store
	tokens *TokenService
	cfg    *config.Config
	logger *zap.Logger

	bcryptCost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService creates a new UserService
func NewUserService(store storage.Store, tokens *TokenService, cfg *config.Config, logger *zap.Logger) *UserService {
	cost := cfg.Security.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &UserService{
		store:      store,
		tokens:     tokens,
		cfg:        cfg,
		logger:     logger.Named("user-service"),
		bcryptCost: cost,
	}
}

// Register validates and stores a new account, and issues a token for it
func (s *UserService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error) {
	email := domain.NormalizeEmail(req.Email)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	role := req.Role
	if role == "" {
		role = domain.DefaultRole
	}

	v := &validator{}
	v.check(emailPattern.MatchString(email), "Valid email is required")
	v.check(len(req.Password) >= MinPasswordLength, "Password must be at least 6 characters long")
	checkName(v, firstName, "First name")
	checkName(v, lastName, "Last name")
	if !role.IsValid() {
		v.check(false, "Role must be either mentee, mentor, or admin")
	} else if role == domain.RoleAdmin && !s.cfg.Security.IsAdminEmail(email) {
		v.check(false, "Admin accounts cannot be self-registered")
	}
	if err := v.err(); err != nil {
		return nil, "", err
	}

	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, "", ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           domain.NewID(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		Profile:      domain.EmptyProfile(),
		IsActive:     true,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, token, nil
}

func checkName(v *validator, name, field string) {
	n := utf8.RuneCountInString(name)
	v.check(n >= MinNameLength, field+" must be at least 2 characters long")
	v.check(n <= MaxNameLength, field+" cannot exceed 50 characters")
}

// Login authenticates a user with email and password.
// Unknown email, wrong password and inactive account all yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.store.Users().GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.compareDummy(password)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID))
	return user, token, nil
}

// compareDummy spends the same bcrypt work as a real comparison
func (s *UserService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), s.bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

// Logout revokes the token when revocation is enabled
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, token)
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if !domain.IsValidID(id) {
		return nil, ErrUserNotFound
	}
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile replaces the user's profile. Omitted fields are cleared.
func (s *UserService) UpdateProfile(ctx context.Context, id string, profile domain.Profile) (*domain.User, error) {
	profile = cleanProfile(profile)

	v := &validator{}
	v.check(validProfileURL(profile.LinkedinURL), "Invalid LinkedIn URL format")
	v.check(validProfileURL(profile.GithubURL), "Invalid GitHub URL format")
	v.check(validProfileURL(profile.PortfolioURL), "Invalid Portfolio URL format")
	if err := v.err(); err != nil {
		return nil, err
	}

	user, err := s.store.Users().UpdateProfile(ctx, id, profile)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Debug("Profile updated", zap.String("user_id", id))
	return user, nil
}

func cleanProfile(p domain.Profile) domain.Profile {
	p.Bio = strings.TrimSpace(p.Bio)
	p.Experience = strings.TrimSpace(p.Experience)
	p.Education = strings.TrimSpace(p.Education)
	p.LinkedinURL = strings.TrimSpace(p.LinkedinURL)
	p.GithubURL = strings.TrimSpace(p.GithubURL)
	p.PortfolioURL = strings.TrimSpace(p.PortfolioURL)
	p.Skills = cleanList(p.Skills)
	p.Interests = cleanList(p.Interests)
	return p
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// validProfileURL accepts an empty value or an http(s) URL with a dotted host.
// The scheme may be omitted.
func validProfileURL(raw string) bool {
	if raw == "" {
		return true
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	return host != "" && strings.Contains(host, ".") && !strings.ContainsAny(host, " ")
}

// ListUsers returns one page of the directory
func (s *UserService) ListUsers(ctx context.Context, filter domain.UserFilter) ([]*domain.User, *Pagination, error) {
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, nil, NewValidationError("Role must be either mentee, mentor, or admin")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Limit > MaxPageLimit {
		filter.Limit = MaxPageLimit
	}
	filter.Skills = cleanList(filter.Skills)

	users, total, err := s.store.Users().List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, &Pagination{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

// ListAllUsers returns every user
func (s *UserService) ListAllUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.store.Users().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateRole changes a user's role
func (s *UserService) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.IsValid() {
		return nil, NewValidationError("Invalid role")
	}
	if !domain.IsValidID(id) {
		return nil, ErrUserNotFound
	}

	user, err := s.store.Users().UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info("User role changed", zap.String("user_id", id), zap.String("role", string(role)))
	return user, nil
}

// CurrentRole returns the stored role and active flag of a user
func (s *UserService) CurrentRole(ctx context.Context, id string) (domain.Role, bool, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return "", false, err
	}
	return user.Role, user.IsActive, nil
}

// summaries loads the counterparty views for a set of user IDs
func summaries(ctx context.Context, users storage.UserStore, ids ...string) (map[string]*domain.UserSummary, error) {
	found, err := users.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	result := make(map[string]*domain.UserSummary, len(found))
	for id, u := range found {
		result[id] = u.Summary()
	}
	return result, nil
}
