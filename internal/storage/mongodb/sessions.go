package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/storage"
)

// SessionStore implements MongoDB session storage
type SessionStore struct {
	collection *mongo.Collection
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := s.collection.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		return nil, notFound(err, "get session")
	}
	return &session, nil
}

func (s *SessionStore) ListByMentee(ctx context.Context, menteeID string) ([]*domain.Session, error) {
	return s.list(ctx, bson.M{"mentee_id": menteeID})
}

func (s *SessionStore) ListByMentor(ctx context.Context, mentorID string) ([]*domain.Session, error) {
	return s.list(ctx, bson.M{"mentor_id": mentorID})
}

func (s *SessionStore) list(ctx context.Context, filter bson.M) ([]*domain.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []*domain.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}

// Update is a compare-and-set on the stored status
func (s *SessionStore) Update(ctx context.Context, session *domain.Session, from domain.SessionStatus) error {
	session.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": bson.M{
		"scheduled_at": session.ScheduledAt,
		"duration":     session.Duration,
		"status":       session.Status,
		"feedback":     session.Feedback,
		"updated_at":   session.UpdatedAt,
	}}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": session.ID, "status": from}, update)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": session.ID})
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if count == 0 {
		return storage.ErrNotFound
	}
	return storage.ErrConflict
}
