package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mentorlink/go-mentorship-backend/internal/storage"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
)

// Collection names
const (
	usersCollection    = "users"
	requestsCollection = "mentorship_requests"
	sessionsCollection = "sessions"
)

// activePairIndex enforces at most one pending or accepted request per mentee and mentor
const activePairIndex = "uniq_active_mentee_mentor"

// Store implements MongoDB storage
type Store struct {
	client   *mongo.Client
	database *mongo.Database
	cfg      *config.MongoDBConfig

	users    *UserStore
	requests *RequestStore
	sessions *SessionStore
}

// NewStore creates a new MongoDB store
func NewStore(ctx context.Context, cfg *config.MongoDBConfig) (*Store, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetServerSelectionTimeout(time.Duration(cfg.Timeout) * time.Second)
	if cfg.SocketTimeout > 0 {
		clientOptions.SetSocketTimeout(time.Duration(cfg.SocketTimeout) * time.Second)
	}
	if cfg.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)

	s := &Store{
		client:   client,
		database: database,
		cfg:      cfg,
		users:    &UserStore{collection: database.Collection(usersCollection)},
		requests: &RequestStore{collection: database.Collection(requestsCollection)},
		sessions: &SessionStore{collection: database.Collection(sessionsCollection)},
	}

	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return s, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	_, err := s.users.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "profile.skills", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = s.requests.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "mentee_id", Value: 1}, {Key: "mentor_id", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys: bson.D{{Key: "mentee_id", Value: 1}, {Key: "mentor_id", Value: 1}},
			Options: options.Index().
				SetName(activePairIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{Keys: bson.D{{Key: "mentee_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "mentor_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create request indexes: %w", err)
	}

	_, err = s.sessions.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "mentee_id", Value: 1}, {Key: "scheduled_at", Value: 1}}},
		{Keys: bson.D{{Key: "mentor_id", Value: 1}, {Key: "scheduled_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}

	return nil
}

func (s *Store) Users() storage.UserStore       { return s.users }
func (s *Store) Requests() storage.RequestStore { return s.requests }
func (s *Store) Sessions() storage.SessionStore { return s.sessions }

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// notFound maps the driver's no-documents error to storage.ErrNotFound
func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}
