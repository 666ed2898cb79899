package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID generates a new entity identifier
func NewID() string {
	return uuid.New().String()
}

// IsValidID reports whether s is a well-formed entity identifier
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile holds the self-described part of a user record
type Profile struct {
	Bio          string   `json:"bio" bson:"bio"`
	Skills       []string `json:"skills" bson:"skills"`
	Interests    []string `json:"interests" bson:"interests"`
	Experience   string   `json:"experience" bson:"experience"`
	Education    string   `json:"education" bson:"education"`
	LinkedinURL  string   `json:"linkedinUrl" bson:"linkedin_url"`
	GithubURL    string   `json:"githubUrl" bson:"github_url"`
	PortfolioURL string   `json:"portfolioUrl" bson:"portfolio_url"`
}

// EmptyProfile returns a profile with every field set to its empty value.
// Lists are non-nil so they serialize as [] rather than null.
func EmptyProfile() Profile {
	return Profile{
		Skills:    []string{},
		Interests: []string{},
	}
}

// Normalize replaces nil lists with empty ones
func (p *Profile) Normalize() {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
}

// User represents a registered mentor, mentee or administrator
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	FirstName    string    `json:"firstName" bson:"first_name"`
	LastName     string    `json:"lastName" bson:"last_name"`
	Role         Role      `json:"role" bson:"role"`
	Profile      Profile   `json:"profile" bson:"profile"`
	IsActive     bool      `json:"isActive" bson:"is_active"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// PublicUser is the view of a user exposed to other (possibly anonymous) callers.
// It never carries the email address.
type PublicUser struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
	Profile   Profile   `json:"profile"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the public view of the user
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Profile:   u.Profile,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// UserSummary is the counterparty view joined into requests and sessions
type UserSummary struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email,omitempty"`
	Profile   Profile `json:"profile"`
}

// Summary returns the counterparty view of the user
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Profile:   u.Profile,
	}
}

// FullName returns "First Last"
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Identity is the caller identity carried by a verified token.
// It reflects the user's state at token issuance, not necessarily the stored state.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Role      Role   `json:"role,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserFilter selects users for the directory listing
type UserFilter struct {
	Role   Role
	Skills []string
	Page   int
	Limit  int
}

// Offset returns the number of records to skip for the filter's page.
// It saturates at math.MaxInt instead of overflowing.
func (f UserFilter) Offset() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}
