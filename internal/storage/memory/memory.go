package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/storage"
)

// Store implements an in-memory storage
type Store struct {
	users    *UserStore
	requests *RequestStore
	sessions *SessionStore
}

// NewStore creates a new in-memory store
func NewStore() *Store {
	return &Store{
		users: &UserStore{
			data:    make(map[string]*domain.User),
			byEmail: make(map[string]string),
		},
		requests: &RequestStore{data: make(map[string]*domain.MentorshipRequest)},
		sessions: &SessionStore{data: make(map[string]*domain.Session)},
	}
}

func (s *Store) Users() storage.UserStore       { return s.users }
func (s *Store) Requests() storage.RequestStore { return s.requests }
func (s *Store) Sessions() storage.SessionStore { return s.sessions }
func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return nil }

// Records are copied on the way in and out so callers never share
// memory with the store.

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Profile.Skills = slices.Clone(u.Profile.Skills)
	c.Profile.Interests = slices.Clone(u.Profile.Interests)
	c.Profile.Normalize()
	return &c
}

func cloneRequest(r *domain.MentorshipRequest) *domain.MentorshipRequest {
	c := *r
	c.Goals = slices.Clone(r.Goals)
	if c.Goals == nil {
		c.Goals = []string{}
	}
	if r.RespondedAt != nil {
		t := *r.RespondedAt
		c.RespondedAt = &t
	}
	return &c
}

func cloneSession(s *domain.Session) *domain.Session {
	c := *s
	if s.Feedback != nil {
		f := *s.Feedback
		c.Feedback = &f
	}
	return &c
}

// UserStore implements in-memory user storage
type UserStore struct {
	mu      sync.RWMutex
	data    map[string]*domain.User
	byEmail map[string]string
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[user.ID]; exists {
		return storage.ErrAlreadyExists
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return storage.ErrAlreadyExists
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Profile.Normalize()
	s.data[user.ID] = cloneUser(user)
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[email]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneUser(s.data[id]), nil
}

func (s *UserStore) GetMany(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if user, exists := s.data[id]; exists {
			result[id] = cloneUser(user)
		}
	}
	return result, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id string, profile domain.Profile) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	user.Profile = profile
	user.Profile.Skills = slices.Clone(profile.Skills)
	user.Profile.Interests = slices.Clone(profile.Interests)
	user.Profile.Normalize()
	user.UpdatedAt = time.Now().UTC()
	return cloneUser(user), nil
}

func (s *UserStore) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	return cloneUser(user), nil
}

func (s *UserStore) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.User
	for _, user := range s.data {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if len(filter.Skills) > 0 && !hasAnySkill(user.Profile.Skills, filter.Skills) {
			continue
		}
		matched = append(matched, user)
	}
	sortUsersNewestFirst(matched)

	total := int64(len(matched))
	offset := filter.Offset()
	if offset >= len(matched) {
		return []*domain.User{}, total, nil
	}
	end := len(matched)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}

	page := make([]*domain.User, 0, end-offset)
	for _, user := range matched[offset:end] {
		page = append(page, cloneUser(user))
	}
	return page, total, nil
}

func (s *UserStore) ListAll(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(s.data))
	for _, user := range s.data {
		users = append(users, cloneUser(user))
	}
	sortUsersNewestFirst(users)
	return users, nil
}

func hasAnySkill(have, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

// sortUsersNewestFirst orders by creation time, ties broken by ID for a stable page order
func sortUsersNewestFirst(users []*domain.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
}

// RequestStore implements in-memory mentorship request storage
type RequestStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MentorshipRequest
}

func (s *RequestStore) Create(ctx context.Context, req *domain.MentorshipRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[req.ID]; exists {
		return storage.ErrAlreadyExists
	}

	req.Active = req.Status.IsActive()
	if req.Active && s.findActiveLocked(req.MenteeID, req.MentorID) != nil {
		return storage.ErrAlreadyExists
	}

	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	s.data[req.ID] = cloneRequest(req)
	return nil
}

func (s *RequestStore) GetByID(ctx context.Context, id string) (*domain.MentorshipRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (s *RequestStore) FindActive(ctx context.Context, menteeID, mentorID string) (*domain.MentorshipRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req := s.findActiveLocked(menteeID, mentorID)
	if req == nil {
		return nil, storage.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (s *RequestStore) findActiveLocked(menteeID, mentorID string) *domain.MentorshipRequest {
	for _, req := range s.data {
		if req.MenteeID == menteeID && req.MentorID == mentorID && req.Active {
			return req
		}
	}
	return nil
}

func (s *RequestStore) ListByMentee(ctx context.Context, menteeID string) ([]*domain.MentorshipRequest, error) {
	return s.list(func(r *domain.MentorshipRequest) bool { return r.MenteeID == menteeID }), nil
}

func (s *RequestStore) ListByMentor(ctx context.Context, mentorID string) ([]*domain.MentorshipRequest, error) {
	return s.list(func(r *domain.MentorshipRequest) bool { return r.MentorID == mentorID }), nil
}

func (s *RequestStore) list(match func(*domain.MentorshipRequest) bool) []*domain.MentorshipRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.MentorshipRequest{}
	for _, req := range s.data {
		if match(req) {
			result = append(result, cloneRequest(req))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *RequestStore) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus, respondedAt time.Time) (*domain.MentorshipRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if req.Status != from {
		return nil, storage.ErrConflict
	}

	req.SetStatus(to)
	t := respondedAt
	req.RespondedAt = &t
	return cloneRequest(req), nil
}

// SessionStore implements in-memory session storage
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Session
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[session.ID]; exists {
		return storage.ErrAlreadyExists
	}

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	s.data[session.ID] = cloneSession(session)
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *SessionStore) ListByMentee(ctx context.Context, menteeID string) ([]*domain.Session, error) {
	return s.list(func(ss *domain.Session) bool { return ss.MenteeID == menteeID }), nil
}

func (s *SessionStore) ListByMentor(ctx context.Context, mentorID string) ([]*domain.Session, error) {
	return s.list(func(ss *domain.Session) bool { return ss.MentorID == mentorID }), nil
}

func (s *SessionStore) list(match func(*domain.Session) bool) []*domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Session{}
	for _, session := range s.data {
		if match(session) {
			result = append(result, cloneSession(session))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledAt.Before(result[j].ScheduledAt)
	})
	return result
}

func (s *SessionStore) Update(ctx context.Context, session *domain.Session, from domain.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data[session.ID]
	if !exists {
		return storage.ErrNotFound
	}
	if existing.Status != from {
		return storage.ErrConflict
	}

	session.CreatedAt = existing.CreatedAt
	session.UpdatedAt = time.Now().UTC()
	s.data[session.ID] = cloneSession(session)
	return nil
}
