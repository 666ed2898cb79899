package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabase      = errors.New("database error")
)

// UserStore defines the interface for user storage operations
type UserStore interface {
	// Create creates a new user. Returns ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by normalized email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetMany retrieves the users with the given IDs, keyed by ID. Unknown IDs are skipped.
	GetMany(ctx context.Context, ids []string) (map[string]*domain.User, error)

	// UpdateProfile replaces the profile of a user
	UpdateProfile(ctx context.Context, id string, profile domain.Profile) (*domain.User, error)

	// UpdateRole changes the role of a user
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)

	// List returns one page of users matching the filter, newest first, and the total match count
	List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, int64, error)

	// ListAll returns every user, newest first
	ListAll(ctx context.Context) ([]*domain.User, error)
}

// RequestStore defines the interface for mentorship request storage
type RequestStore interface {
	// Create stores a new request. Returns ErrAlreadyExists when an active
	// request for the same mentee and mentor already exists.
	Create(ctx context.Context, req *domain.MentorshipRequest) error

	// GetByID retrieves a request by ID
	GetByID(ctx context.Context, id string) (*domain.MentorshipRequest, error)

	// FindActive returns the pending or accepted request between mentee and mentor
	FindActive(ctx context.Context, menteeID, mentorID string) (*domain.MentorshipRequest, error)

	// ListByMentee returns requests sent by a mentee, newest first
	ListByMentee(ctx context.Context, menteeID string) ([]*domain.MentorshipRequest, error)

	// ListByMentor returns requests addressed to a mentor, newest first
	ListByMentor(ctx context.Context, mentorID string) ([]*domain.MentorshipRequest, error)

	// UpdateStatus moves a request from one status to another.
	// Returns ErrConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus, respondedAt time.Time) (*domain.MentorshipRequest, error)
}

// SessionStore defines the interface for session storage
type SessionStore interface {
	// Create stores a new session
	Create(ctx context.Context, session *domain.Session) error

	// GetByID retrieves a session by ID
	GetByID(ctx context.Context, id string) (*domain.Session, error)

	// ListByMentee returns a mentee's sessions, earliest first
	ListByMentee(ctx context.Context, menteeID string) ([]*domain.Session, error)

	// ListByMentor returns a mentor's sessions, earliest first
	ListByMentor(ctx context.Context, mentorID string) ([]*domain.Session, error)

	// Update replaces a session whose stored status is still from.
	// Returns ErrConflict when the status has moved on.
	Update(ctx context.Context, session *domain.Session, from domain.SessionStatus) error
}

// Store aggregates all storage interfaces
type Store interface {
	Users() UserStore
	Requests() RequestStore
	Sessions() SessionStore

	// Close closes the storage connection
	Close() error

	// Ping checks if the storage is alive
	Ping(ctx context.Context) error
}
