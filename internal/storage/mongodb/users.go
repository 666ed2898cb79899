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

// UserStore implements MongoDB user storage
type UserStore struct {
	collection *mongo.Collection
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Profile.Normalize()

	_, err := s.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	if err := s.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, notFound(err, "get user")
	}
	user.Profile.Normalize()
	return &user, nil
}

func (s *UserStore) GetMany(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	result := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	users, err := s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		result[user.ID] = user
	}
	return result, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id string, profile domain.Profile) (*domain.User, error) {
	profile.Normalize()
	return s.update(ctx, id, bson.M{"profile": profile})
}

func (s *UserStore) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	return s.update(ctx, id, bson.M{"role": role})
}

func (s *UserStore) update(ctx context.Context, id string, set bson.M) (*domain.User, error) {
	set["updated_at"] = time.Now().UTC()

	var user domain.User
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, notFound(err, "update user")
	}
	user.Profile.Normalize()
	return &user, nil
}

func (s *UserStore) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, int64, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if len(filter.Skills) > 0 {
		query["profile.skills"] = bson.M{"$in": filter.Skills}
	}

	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	offset := filter.Offset()
	if int64(offset) >= total {
		return []*domain.User{}, total, nil
	}

	opts := options.Find().SetSort(newestFirst).SetSkip(int64(offset))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	users, err := s.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserStore) ListAll(ctx context.Context) ([]*domain.User, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
}

func (s *UserStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.User, error) {
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	for _, user := range users {
		user.Profile.Normalize()
	}
	return users, nil
}
