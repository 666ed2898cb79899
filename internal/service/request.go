package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/storage"
)

// RequestService runs the mentorship request workflow:
// pending -> accepted | rejected, both terminal.
type RequestService struct {
	store    storage.Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewRequestService creates a new RequestService
func NewRequestService(store storage.Store, notifier Notifier, logger *zap.Logger) *RequestService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &RequestService{
		store:    store,
		notifier: notifier,
		logger:   logger.Named("request-service"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create sends a request from a mentee to a mentor
func (s *RequestService) Create(ctx context.Context, menteeID string, in domain.CreateRequestInput) (*domain.RequestView, error) {
	message := strings.TrimSpace(in.Message)
	goals := cleanList(in.Goals)

	v := &validator{}
	v.check(domain.IsValidID(in.MentorID), "Valid mentorId is required")
	v.check(utf8.RuneCountInString(message) >= domain.MinRequestMessageLength, "Message must be at least 10 characters long")
	v.check(utf8.RuneCountInString(in.Message) <= domain.MaxRequestMessageLength, "Message cannot exceed 500 characters")
	for _, g := range goals {
		if utf8.RuneCountInString(g) > domain.MaxGoalLength {
			v.check(false, "Each goal cannot exceed 100 characters")
			break
		}
	}
	v.check(in.MentorID != menteeID, "You cannot send a mentorship request to yourself")
	if err := v.err(); err != nil {
		return nil, err
	}

	mentor, err := s.store.Users().GetByID(ctx, in.MentorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get mentor: %w", err)
	}
	if !mentor.IsActive {
		return nil, ErrUserNotFound
	}
	if mentor.Role != domain.RoleMentor {
		return nil, NewValidationError("Requests can only be sent to mentors")
	}

	if _, err := s.store.Requests().FindActive(ctx, menteeID, in.MentorID); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing requests: %w", err)
	}

	req := &domain.MentorshipRequest{
		ID:        domain.NewID(),
		MenteeID:  menteeID,
		MentorID:  in.MentorID,
		Message:   message,
		Goals:     goals,
		CreatedAt: s.now(),
	}
	req.SetStatus(domain.RequestPending)

	if err := s.store.Requests().Create(ctx, req); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrDuplicateRequest
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	view, err := s.view(ctx, req)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(req.MentorID, domain.NewEvent(domain.EventRequestCreated, view))
	s.logger.Info("Mentorship request created",
		zap.String("request_id", req.ID),
		zap.String("mentee_id", menteeID),
		zap.String("mentor_id", req.MentorID),
	)
	return view, nil
}

// Respond lets the addressed mentor accept or reject a pending request
func (s *RequestService) Respond(ctx context.Context, requestID, actingUserID string, status domain.RequestStatus) (*domain.RequestView, error) {
	if status != domain.RequestAccepted && status != domain.RequestRejected {
		return nil, NewValidationError(`Status must be either "accepted" or "rejected"`)
	}

	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.MentorID != actingUserID {
		return nil, ErrForbidden
	}
	if !domain.CanTransition(req.Status, status) {
		return nil, ErrInvalidState
	}

	updated, err := s.store.Requests().UpdateStatus(ctx, req.ID, req.Status, status, s.now())
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return nil, ErrInvalidState
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	view, err := s.view(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(updated.MenteeID, domain.NewEvent(domain.EventRequestResponded, view))
	s.logger.Info("Mentorship request answered",
		zap.String("request_id", updated.ID),
		zap.String("status", string(status)),
	)
	return view, nil
}

// Get returns a request to one of its participants
func (s *RequestService) Get(ctx context.Context, requestID, actingUserID string) (*domain.RequestView, error) {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(actingUserID) {
		return nil, ErrForbidden
	}
	return s.view(ctx, req)
}

// ListSent returns the requests a mentee has sent, newest first, joined with the mentor
func (s *RequestService) ListSent(ctx context.Context, menteeID string) ([]*domain.RequestView, error) {
	reqs, err := s.store.Requests().ListByMentee(ctx, menteeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent requests: %w", err)
	}
	return s.views(ctx, reqs, func(r *domain.MentorshipRequest) string { return r.MentorID }, false)
}

// ListReceived returns the requests addressed to a mentor, newest first, joined with the mentee
func (s *RequestService) ListReceived(ctx context.Context, mentorID string) ([]*domain.RequestView, error) {
	reqs, err := s.store.Requests().ListByMentor(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list received requests: %w", err)
	}
	return s.views(ctx, reqs, func(r *domain.MentorshipRequest) string { return r.MenteeID }, true)
}

func (s *RequestService) get(ctx context.Context, id string) (*domain.MentorshipRequest, error) {
	req, err := s.store.Requests().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// view joins both participants
func (s *RequestService) view(ctx context.Context, req *domain.MentorshipRequest) (*domain.RequestView, error) {
	people, err := summaries(ctx, s.store.Users(), req.MenteeID, req.MentorID)
	if err != nil {
		return nil, err
	}
	return &domain.RequestView{
		MentorshipRequest: req,
		Mentee:            people[req.MenteeID],
		Mentor:            people[req.MentorID],
	}, nil
}

// views joins the counterparty picked by other; asMentee says which side it fills
func (s *RequestService) views(ctx context.Context, reqs []*domain.MentorshipRequest, other func(*domain.MentorshipRequest) string, asMentee bool) ([]*domain.RequestView, error) {
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, other(r))
	}
	people, err := summaries(ctx, s.store.Users(), ids...)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.RequestView, 0, len(reqs))
	for _, r := range reqs {
		v := &domain.RequestView{MentorshipRequest: r}
		if asMentee {
			v.Mentee = people[other(r)]
		} else {
			v.Mentor = people[other(r)]
		}
		result = append(result, v)
	}
	return result, nil
}
