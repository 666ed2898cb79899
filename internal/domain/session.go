package domain

import "time"

// SessionStatus is the lifecycle state of a mentoring session
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Session duration limits, in minutes
const (
	DefaultSessionDuration = 60
	MaxSessionDuration     = 480
)

// Feedback rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Feedback is the mentee's rating of a session
type Feedback struct {
	Rating  int    `json:"rating" bson:"rating"`
	Comment string `json:"comment,omitempty" bson:"comment,omitempty"`
}

// Session is a scheduled meeting between a mentor and a mentee
type Session struct {
	ID          string        `json:"id" bson:"_id"`
	MentorID    string        `json:"mentorId" bson:"mentor_id"`
	MenteeID    string        `json:"menteeId" bson:"mentee_id"`
	ScheduledAt time.Time     `json:"scheduledAt" bson:"scheduled_at"`
	Duration    int           `json:"duration" bson:"duration"`
	Status      SessionStatus `json:"status" bson:"status"`
	Feedback    *Feedback     `json:"feedback,omitempty" bson:"feedback,omitempty"`
	CreatedAt   time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updated_at"`
}

// IsParticipant reports whether userID is the mentor or the mentee of the session
func (s *Session) IsParticipant(userID string) bool {
	return s.MentorID == userID || s.MenteeID == userID
}

// SessionView is a session joined with its counterparty
type SessionView struct {
	*Session
	Mentee *UserSummary `json:"mentee,omitempty"`
	Mentor *UserSummary `json:"mentor,omitempty"`
}

// ScheduleSessionInput is the body of a scheduling call
type ScheduleSessionInput struct {
	MentorID    string    `json:"mentorId" binding:"required"`
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	Duration    int       `json:"duration"`
}

// FeedbackInput is the body of a feedback submission
type FeedbackInput struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}
