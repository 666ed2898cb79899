package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/storage"
)

// SessionService schedules mentoring sessions and records feedback
type SessionService struct {
	store    storage.Store
	notifier Notifier
	logger   *zap.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(store storage.Store, notifier Notifier, logger *zap.Logger) *SessionService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &SessionService{
		store:    store,
		notifier: notifier,
		logger:   logger.Named("session-service"),
	}
}

// Schedule books a session between the calling mentee and a mentor.
// A zero duration means DefaultSessionDuration.
func (s *SessionService) Schedule(ctx context.Context, menteeID string, in domain.ScheduleSessionInput) (*domain.SessionView, error) {
	duration := in.Duration
	if duration == 0 {
		duration = domain.DefaultSessionDuration
	}

	v := &validator{}
	v.check(domain.IsValidID(in.MentorID), "Valid mentorId is required")
	v.check(!in.ScheduledAt.IsZero(), "scheduledAt is required")
	v.check(duration >= 1 && duration <= domain.MaxSessionDuration, "Duration must be between 1 and 480 minutes")
	v.check(in.MentorID != menteeID, "You cannot schedule a session with yourself")
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
		return nil, NewValidationError("Sessions can only be scheduled with mentors")
	}

	session := &domain.Session{
		ID:          domain.NewID(),
		MentorID:    in.MentorID,
		MenteeID:    menteeID,
		ScheduledAt: in.ScheduledAt.UTC(),
		Duration:    duration,
		Status:      domain.SessionScheduled,
	}
	if err := s.store.Sessions().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	view, err := s.view(ctx, session)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(session.MentorID, domain.NewEvent(domain.EventSessionScheduled, view))
	s.logger.Info("Session scheduled",
		zap.String("session_id", session.ID),
		zap.Time("scheduled_at", session.ScheduledAt),
		zap.Int("duration", session.Duration),
	)
	return view, nil
}

// SubmitFeedback records the mentee's rating and completes the session.
// Submitting again overwrites the earlier feedback.
func (s *SessionService) SubmitFeedback(ctx context.Context, sessionID, actingUserID string, in domain.FeedbackInput) (*domain.SessionView, error) {
	session, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.MenteeID != actingUserID {
		return nil, ErrForbidden
	}
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return nil, NewValidationError("Rating must be between 1 and 5")
	}
	if session.Status == domain.SessionCancelled {
		return nil, ErrInvalidState
	}

	from := session.Status
	session.Feedback = &domain.Feedback{Rating: in.Rating, Comment: in.Comment}
	session.Status = domain.SessionCompleted
	if err := s.store.Sessions().Update(ctx, session, from); err != nil {
		return nil, updateError(err, "failed to save feedback")
	}

	view, err := s.view(ctx, session)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(session.MentorID, domain.NewEvent(domain.EventSessionFeedback, view))
	s.logger.Info("Session feedback submitted",
		zap.String("session_id", session.ID),
		zap.Int("rating", in.Rating),
	)
	return view, nil
}

// Cancel lets either participant cancel a scheduled session
func (s *SessionService) Cancel(ctx context.Context, sessionID, actingUserID string) (*domain.SessionView, error) {
	session, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actingUserID) {
		return nil, ErrForbidden
	}
	if session.Status != domain.SessionScheduled {
		return nil, ErrInvalidState
	}

	session.Status = domain.SessionCancelled
	if err := s.store.Sessions().Update(ctx, session, domain.SessionScheduled); err != nil {
		return nil, updateError(err, "failed to cancel session")
	}

	view, err := s.view(ctx, session)
	if err != nil {
		return nil, err
	}

	other := session.MentorID
	if actingUserID == session.MentorID {
		other = session.MenteeID
	}
	s.notifier.Notify(other, domain.NewEvent(domain.EventSessionCancelled, view))
	s.logger.Info("Session cancelled",
		zap.String("session_id", session.ID),
		zap.String("by", actingUserID),
	)
	return view, nil
}

// ListForMentee returns the mentee's sessions, earliest first, joined with the mentor
func (s *SessionService) ListForMentee(ctx context.Context, menteeID string) ([]*domain.SessionView, error) {
	sessions, err := s.store.Sessions().ListByMentee(ctx, menteeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return s.views(ctx, sessions, false)
}

// ListForMentor returns the mentor's sessions, earliest first, joined with the mentee
func (s *SessionService) ListForMentor(ctx context.Context, mentorID string) ([]*domain.SessionView, error) {
	sessions, err := s.store.Sessions().ListByMentor(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return s.views(ctx, sessions, true)
}

// updateError maps a failed conditional session write
func updateError(err error, msg string) error {
	switch {
	case errors.Is(err, storage.ErrConflict):
		return ErrInvalidState
	case errors.Is(err, storage.ErrNotFound):
		return ErrSessionNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (s *SessionService) get(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.store.Sessions().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (s *SessionService) view(ctx context.Context, session *domain.Session) (*domain.SessionView, error) {
	people, err := summaries(ctx, s.store.Users(), session.MenteeID, session.MentorID)
	if err != nil {
		return nil, err
	}
	return &domain.SessionView{
		Session: session,
		Mentee:  people[session.MenteeID],
		Mentor:  people[session.MentorID],
	}, nil
}

// views joins the mentee when forMentor is set, otherwise the mentor
func (s *SessionService) views(ctx context.Context, sessions []*domain.Session, forMentor bool) ([]*domain.SessionView, error) {
	ids := make([]string, 0, len(sessions))
	for _, ss := range sessions {
		if forMentor {
			ids = append(ids, ss.MenteeID)
		} else {
			ids = append(ids, ss.MentorID)
		}
	}
	people, err := summaries(ctx, s.store.Users(), ids...)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.SessionView, 0, len(sessions))
	for _, ss := range sessions {
		v := &domain.SessionView{Session: ss}
		if forMentor {
			v.Mentee = people[ss.MenteeID]
		} else {
			v.Mentor = people[ss.MentorID]
		}
		result = append(result, v)
	}
	return result, nil
}

