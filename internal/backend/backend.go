package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/storage"
	"github.com/mentorlink/go-mentorship-backend/internal/storage/memory"
	"github.com/mentorlink/go-mentorship-backend/internal/storage/mongodb"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
)

// Type defines the type of storage backend
type Type string

const (
	// TypeMemory uses in-memory storage (for testing/development)
	TypeMemory Type = "memory"
	// TypeMongoDB uses MongoDB storage (for production)
	TypeMongoDB Type = "mongodb"
)

// Backend is a storage.Store that also reports which implementation backs it
type Backend interface {
	storage.Store

	// Type returns the storage implementation in use
	Type() Type
}

type memoryBackend struct {
	*memory.Store
}

func (b *memoryBackend) Type() Type { return TypeMemory }

type mongoBackend struct {
	*mongodb.Store
}

func (b *mongoBackend) Type() Type { return TypeMongoDB }

// New creates a storage backend based on the configuration
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Backend, error) {
	storageType := Type(cfg.Storage.Type)

	switch storageType {
	case TypeMemory, "":
		// Default to memory if not specified
		logger.Warn("Using in-memory storage, data is lost on restart")
		return &memoryBackend{Store: memory.NewStore()}, nil

	case TypeMongoDB:
		store, err := mongodb.NewStore(ctx, &cfg.Storage.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create MongoDB backend: %w", err)
		}
		logger.Info("Connected to MongoDB", zap.String("database", cfg.Storage.MongoDB.Database))
		return &mongoBackend{Store: store}, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
