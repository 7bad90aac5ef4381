package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"airbnb-bot/events"
	"airbnb-bot/metrics"
	"airbnb-bot/models"
	"airbnb-bot/session"
	"airbnb-bot/storage"
	"airbnb-bot/utils"
)

// Classifier is the incremental like/dislike model.
type Classifier interface {
	PartialFit(ctx context.Context, userID string, f models.Features, liked bool) error
	Score(ctx context.Context, userID string, f models.Features) (score float64, trained bool, err error)
}

// SnapshotSource resolves listings previously shown to a user.
type SnapshotSource interface {
	Snapshot(ctx context.Context, userID, listingID string) (models.ListingSnapshot, error)
}

// Ack confirms a persisted feedback event.
type Ack struct {
	Record models.FeedbackRecord
	// ModelUpdated is false when the row was stored but the classifier
	// update failed or timed out.
	ModelUpdated bool
}

// FeedbackLedger records like/dislike events and trains the classifier.
type FeedbackLedger struct {
	users      storage.UserRepository
	feedback   storage.FeedbackRepository
	snapshots  SnapshotSource
	classifier Classifier
	publisher  events.Publisher
	metrics    *metrics.Metrics
	fitTimeout time.Duration
	logger     *utils.Logger
	now        func() time.Time
	newID      func() string
}

type LedgerOptions struct {
	FitTimeout time.Duration
	Publisher  events.Publisher
	Metrics    *metrics.Metrics
}

func NewFeedbackLedger(
	users storage.UserRepository,
	feedback storage.FeedbackRepository,
	snapshots SnapshotSource,
	classifier Classifier,
	opts LedgerOptions,
	logger *utils.Logger,
) *FeedbackLedger {
	if opts.FitTimeout <= 0 {
		opts.FitTimeout = 2 * time.Second
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	return &FeedbackLedger{
		users:      users,
		feedback:   feedback,
		snapshots:  snapshots,
		classifier: classifier,
		publisher:  opts.Publisher,
		metrics:    opts.Metrics,
		fitTimeout: opts.FitTimeout,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// OnFeedback persists one like/dislike. Repeated events for the same
// listing are recorded as separate rows. An unknown listing returns
// ErrListingExpired and writes nothing.
func (l *FeedbackLedger) OnFeedback(ctx context.Context, userID, listingID string, liked bool) (Ack, error) {
	now := l.now()

	if _, _, err := l.users.GetOrCreate(ctx, userID, now); err != nil {
		l.logger.Error("[feedback] resolve user %s: %v", userID, err)
		return Ack{}, fmt.Errorf("%w: resolve user: %w", ErrCollaborator, err)
	}

	snap, err := l.snapshots.Snapshot(ctx, userID, listingID)
	if err != nil {
		if errors.Is(err, session.ErrSnapshotNotFound) {
			l.logger.Info("[feedback] user %s rated unknown listing %s", userID, listingID)
			return Ack{}, ErrListingExpired
		}
		l.logger.Error("[feedback] snapshot lookup %s/%s: %v", userID, listingID, err)
		return Ack{}, fmt.Errorf("%w: snapshot lookup: %w", ErrCollaborator, err)
	}

	rec := models.FeedbackRecord{
		ID:        l.newID(),
		UserID:    userID,
		ListingID: listingID,
		Liked:     liked,
		CreatedAt: now,
		Features:  snap.Features,
	}
	if err := l.feedback.AppendFeedback(ctx, rec); err != nil {
		l.logger.Error("[feedback] append %s: %v", rec.ID, err)
		return Ack{}, fmt.Errorf("%w: append feedback: %w", ErrCollaborator, err)
	}
	l.metrics.Feedback(liked)

	ack := Ack{Record: rec, ModelUpdated: true}

	fitCtx, cancel := context.WithTimeout(ctx, l.fitTimeout)
	defer cancel()
	if err := l.classifier.PartialFit(fitCtx, userID, rec.Features, liked); err != nil {
		l.logger.Error("[feedback] classifier update for %s failed: %v", userID, err)
		ack.ModelUpdated = false
	}

	if err := l.publisher.PublishFeedback(ctx, events.NewFeedbackRecorded(rec)); err != nil {
		l.logger.Warn("[feedback] publish %s: %v", rec.ID, err)
	}

	l.logger.Info("[feedback] user %s %s listing %s", userID, likeWord(liked), listingID)
	return ack, nil
}

func likeWord(liked bool) string {
	if liked {
		return "liked"
	}
	return "disliked"
}
