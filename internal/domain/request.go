package domain

import (
	"time"
)

// RequestStatus is the lifecycle state of a mentorship request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// Message and goal limits for mentorship requests
const (
	MinRequestMessageLength = 10
	MaxRequestMessageLength = 500
	MaxGoalLength           = 100
)

// requestTransitions maps a target status to the statuses it may be reached from
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestAccepted: {RequestPending},
	RequestRejected: {RequestPending},
}

// CanTransition reports whether a request may move from one status to another.
// Accepted and rejected are terminal.
func CanTransition(from, to RequestStatus) bool {
	for _, s := range requestTransitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known request status
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestRejected:
		return true
	}
	return false
}

// IsActive reports whether a request in this status blocks a new one for the same pair
func (s RequestStatus) IsActive() bool {
	return s == RequestPending || s == RequestAccepted
}

// MentorshipRequest is a mentee's request to be mentored by a mentor
type MentorshipRequest struct {
	ID          string        `json:"id" bson:"_id"`
	MenteeID    string        `json:"menteeId" bson:"mentee_id"`
	MentorID    string        `json:"mentorId" bson:"mentor_id"`
	Message     string        `json:"message" bson:"message"`
	Goals       []string      `json:"goals" bson:"goals"`
	Status      RequestStatus `json:"status" bson:"status"`
	CreatedAt   time.Time     `json:"createdAt" bson:"created_at"`
	RespondedAt *time.Time    `json:"respondedAt,omitempty" bson:"responded_at,omitempty"`

	// Active mirrors Status.IsActive and backs the storage-level uniqueness constraint
	Active bool `json:"-" bson:"active"`
}

// SetStatus updates the status and keeps the active flag in sync
func (r *MentorshipRequest) SetStatus(status RequestStatus) {
	r.Status = status
	r.Active = status.IsActive()
}

// IsParticipant reports whether userID is the mentee or the mentor of the request
func (r *MentorshipRequest) IsParticipant(userID string) bool {
	return r.MenteeID == userID || r.MentorID == userID
}

// RequestView is a request joined with its participants
type RequestView struct {
	*MentorshipRequest
	Mentee *UserSummary `json:"mentee,omitempty"`
	Mentor *UserSummary `json:"mentor,omitempty"`
}

// CreateRequestInput is the body of a new mentorship request
type CreateRequestInput struct {
	MentorID string   `json:"mentorId" binding:"required"`
	Message  string   `json:"message" binding:"required"`
	Goals    []string `json:"goals"`
}

// RespondRequestInput is the body of a mentor's response
type RespondRequestInput struct {
	Status RequestStatus `json:"status" binding:"required"`
}
