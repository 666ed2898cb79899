package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/storage"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
)

func getTestMongoURI() string {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	return uri
}

func skipIfNoMongo(t *testing.T) *Store {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := &config.MongoDBConfig{
		URI:      getTestMongoURI(),
		Database: fmt.Sprintf("mentorship_test_%d", time.Now().UnixNano()),
		Timeout:  3,
	}

	store, err := NewStore(ctx, cfg)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
		return nil
	}

	// Clean up test database
	t.Cleanup(func() {
		ctx := context.Background()
		_ = store.database.Drop(ctx)
		_ = store.Close()
	})

	return store
}

func testUser(email string, role domain.Role, skills ...string) *domain.User {
	profile := domain.EmptyProfile()
	profile.Skills = skills
	return &domain.User{
		ID:        domain.NewID(),
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		Profile:   profile,
		IsActive:  true,
	}
}

func testRequest(menteeID, mentorID string) *domain.MentorshipRequest {
	req := &domain.MentorshipRequest{
		ID:        domain.NewID(),
		MenteeID:  menteeID,
		MentorID:  mentorID,
		Message:   "please mentor me on go",
		Goals:     []string{"learn go"},
		CreatedAt: time.Now().UTC(),
	}
	req.SetStatus(domain.RequestPending)
	return req
}

func TestStore_Ping(t *testing.T) {
	store := skipIfNoMongo(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, store.Ping(ctx))
}

func TestStore_Indexes(t *testing.T) {
	store := skipIfNoMongo(t)
	ctx := context.Background()

	cursor, err := store.requests.collection.Indexes().List(ctx)
	require.NoError(t, err)

	var indexes []bson.M
	require.NoError(t, cursor.All(ctx, &indexes))

	found := false
	for _, idx := range indexes {
		if idx["name"] == activePairIndex {
			found = true
			assert.Equal(t, true, idx["unique"])
			assert.NotNil(t, idx["partialFilterExpression"])
		}
	}
	assert.True(t, found, "partial unique index on active requests should exist")
}

func TestUserStore_CRUD(t *testing.T) {
	store := skipIfNoMongo(t)
	ctx := context.Background()
	users := store.Users()

	user := testUser("mongo@example.com", domain.RoleMentor, "go")
	require.NoError(t, users.Create(ctx, user))

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, []string{"go"}, got.Profile.Skills)

	got, err = users.GetByEmail(ctx, "mongo@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	err = users.Create(ctx, testUser("mongo@example.com", domain.RoleMentee))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	updated, err := users.UpdateProfile(ctx, user.ID, domain.Profile{Bio: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Profile.Bio)
	assert.Empty(t, updated.Profile.Skills)

	updated, err = users.UpdateRole(ctx, user.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	_, err = users.GetByID(ctx, domain.NewID())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = users.UpdateRole(ctx, domain.NewID(), domain.RoleAdmin)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserStore_ListAndGetMany(t *testing.T) {
	store := skipIfNoMongo(t)
	ctx := context.Background()
	users := store.Users()

	var ids []string
	for i := 0; i < 15; i++ {
		u := testUser(fmt.Sprintf("mentor%d@example.com", i), domain.RoleMentor, "go")
		require.NoError(t, users.Create(ctx, u))
		ids = append(ids, u.ID)
	}
	require.NoError(t, users.Create(ctx, testUser("mentee@example.com", domain.RoleMentee, "rust")))

	page, total, err := users.List(ctx, domain.UserFilter{Role: domain.RoleMentor, Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	assert.Len(t, page, 5)

	bySkill, total, err := users.List(ctx, domain.UserFilter{Skills: []string{"rust", "haskell"}, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, bySkill, 1)

	many, err := users.GetMany(ctx, ids[:3])
	require.NoError(t, err)
	assert.Len(t, many, 3)

	all, err := users.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 16)
}

func TestRequestStore_ActiveUniqueness(t *testing.T) {
	store := skipIfNoMongo(t)
	ctx := context.Background()
	requests := store.Requests()

	first := testRequest("mentee", "mentor")
	require.NoError(t, requests.Create(ctx, first))

	err := requests.Create(ctx, testRequest("mentee", "mentor"))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	active, err := requests.FindActive(ctx, "mentee", "mentor")
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	rejected, err := requests.UpdateStatus(ctx, first.ID, domain.RequestPending, domain.RequestRejected, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, rejected.Status)
	assert.NotNil(t, rejected.RespondedAt)

	_, err = requests.FindActive(ctx, "mentee", "mentor")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, requests.Create(ctx, testRequest("mentee", "mentor")))
}

func TestRequestStore_UpdateStatusConflict(t *testing.T) {
	store := skipIfNoMongo(t)
	ctx := context.Background()
	requests := store.Requests()

	req := testRequest("mentee", "mentor")
	require.NoError(t, requests.Create(ctx, req))

	_, err := requests.UpdateStatus(ctx, req.ID, domain.RequestPending, domain.RequestAccepted, time.Now().UTC())
	require.NoError(t, err)

	_, err = requests.UpdateStatus(ctx, req.ID, domain.RequestPending, domain.RequestRejected, time.Now().UTC())
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = requests.UpdateStatus(ctx, domain.NewID(), domain.RequestPending, domain.RequestRejected, time.Now().UTC())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRequestStore_ListOrdering(t *testing.T) {
	store := skipIfNoMongo(t)
	ctx := context.Background()
	requests := store.Requests()

	older := testRequest("mentee", "mentor-a")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testRequest("mentee", "mentor-b")
	require.NoError(t, requests.Create(ctx, older))
	require.NoError(t, requests.Create(ctx, newer))

	sent, err := requests.ListByMentee(ctx, "mentee")
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Equal(t, newer.ID, sent[0].ID)

	received, err := requests.ListByMentor(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, received)
	assert.Empty(t, received)
}

func TestSessionStore_Lifecycle(t *testing.T) {
	store := skipIfNoMongo(t)
	ctx := context.Background()
	sessions := store.Sessions()

	session := &domain.Session{
		ID:          domain.NewID(),
		MentorID:    "mentor",
		MenteeID:    "mentee",
		ScheduledAt: time.Now().UTC().Add(24 * time.Hour),
		Duration:    30,
		Status:      domain.SessionScheduled,
	}
	require.NoError(t, sessions.Create(ctx, session))

	session.Status = domain.SessionCompleted
	session.Feedback = &domain.Feedback{Rating: 4, Comment: "useful"}
	require.NoError(t, sessions.Update(ctx, session, domain.SessionScheduled))

	stale := *session
	stale.Status = domain.SessionCancelled
	assert.ErrorIs(t, sessions.Update(ctx, &stale, domain.SessionScheduled), storage.ErrConflict)

	got, err := sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, got.Status)
	require.NotNil(t, got.Feedback)
	assert.Equal(t, 4, got.Feedback.Rating)

	list, err := sessions.ListByMentor(ctx, "mentor")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = sessions.GetByID(ctx, domain.NewID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
