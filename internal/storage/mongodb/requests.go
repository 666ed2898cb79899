package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/storage"
)

// RequestStore implements MongoDB mentorship request storage
type RequestStore struct {
	collection *mongo.Collection
}

// Create inserts the request. The partial unique index on active requests
// turns a racing duplicate into a duplicate key error.
func (s *RequestStore) Create(ctx context.Context, req *domain.MentorshipRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Goals == nil {
		req.Goals = []string{}
	}
	req.Active = req.Status.IsActive()

	_, err := s.collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (s *RequestStore) GetByID(ctx context.Context, id string) (*domain.MentorshipRequest, error) {
	var req domain.MentorshipRequest
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, notFound(err, "get request")
	}
	return &req, nil
}

func (s *RequestStore) FindActive(ctx context.Context, menteeID, mentorID string) (*domain.MentorshipRequest, error) {
	filter := bson.M{
		"mentee_id": menteeID,
		"mentor_id": mentorID,
		"status":    bson.M{"$in": []domain.RequestStatus{domain.RequestPending, domain.RequestAccepted}},
	}

	var req domain.MentorshipRequest
	if err := s.collection.FindOne(ctx, filter).Decode(&req); err != nil {
		return nil, notFound(err, "find active request")
	}
	return &req, nil
}

func (s *RequestStore) ListByMentee(ctx context.Context, menteeID string) ([]*domain.MentorshipRequest, error) {
	return s.list(ctx, bson.M{"mentee_id": menteeID})
}

func (s *RequestStore) ListByMentor(ctx context.Context, mentorID string) ([]*domain.MentorshipRequest, error) {
	return s.list(ctx, bson.M{"mentor_id": mentorID})
}

func (s *RequestStore) list(ctx context.Context, filter bson.M) ([]*domain.MentorshipRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := []*domain.MentorshipRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}
	return requests, nil
}

// UpdateStatus is a compare-and-set on the current status
func (s *RequestStore) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus, respondedAt time.Time) (*domain.MentorshipRequest, error) {
	update := bson.M{"$set": bson.M{
		"status":       to,
		"active":       to.IsActive(),
		"responded_at": respondedAt,
	}}

	var req domain.MentorshipRequest
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if err == nil {
		return &req, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}

	// Not found or the precondition no longer holds
	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to check request: %w", err)
	}
	if count == 0 {
		return nil, storage.ErrNotFound
	}
	return nil, storage.ErrConflict
}
