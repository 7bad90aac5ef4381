package storage

import (
	"context"
	"errors"
	"time"

	"airbnb-bot/models"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("storage: not found")

// UserRepository persists UserProfile rows keyed by the chat platform id.
type UserRepository interface {
	// GetOrCreate returns the profile for stableID, inserting a fresh one
	// stamped with now if absent. created reports whether it was inserted.
	GetOrCreate(ctx context.Context, stableID string, now time.Time) (profile *models.UserProfile, created bool, err error)
	Get(ctx context.Context, stableID string) (*models.UserProfile, error)
	Update(ctx context.Context, profile *models.UserProfile) error
}

// FeedbackRepository is an append-only ledger of FeedbackRecord rows.
type FeedbackRepository interface {
	AppendFeedback(ctx context.Context, rec models.FeedbackRecord) error
	ListFeedback(ctx context.Context, userID string) ([]models.FeedbackRecord, error)
}

// Store is the full persistence collaborator.
type Store interface {
	UserRepository
	FeedbackRepository
	Close() error
}

// Cache is a TTL key/value store for JSON-encodable values.
type Cache interface {
	// Get decodes the value under key into dst. found is false on a miss.
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Close() error
}

// RawListingWriter records unprocessed provider results for later inspection.
type RawListingWriter interface {
	WriteRaw(query string, listings []*models.RawListing) error
	Close() error
}
