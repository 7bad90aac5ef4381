package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-bot/models"
	"airbnb-bot/session"
	"airbnb-bot/storage"
)

type ledgerFixture struct {
	store      *storage.MemoryStore
	sessions   *session.Store
	classifier *fakeClassifier
	ledger     *FeedbackLedger
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{
		store:      storage.NewMemoryStore(),
		sessions:   session.NewStore(storage.NewMemoryCache(), time.Hour),
		classifier: &fakeClassifier{},
	}
	f.ledger = NewFeedbackLedger(f.store, f.store, f.sessions, f.classifier, LedgerOptions{}, newTestLogger())

	n := 0
	f.ledger.newID = func() string { n++; return fmt.Sprintf("rec-%d", n) }
	f.ledger.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *ledgerFixture) show(t *testing.T, userID string, l *models.Listing) {
	t.Helper()
	require.NoError(t, f.sessions.PutSnapshot(context.Background(), userID, l.Snapshot(time.Now())))
}

func TestFeedbackUnknownListingWritesNothing(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.ledger.OnFeedback(ctx, "42", "never-shown", true)
	assert.ErrorIs(t, err, ErrListingExpired)

	rows, err := f.store.ListFeedback(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, f.classifier.fits)

	_, err = f.store.Get(ctx, "42")
	assert.NoError(t, err, "the user profile is still created on first touch")
}

func TestFeedbackIsNotDeduplicated(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	l := &models.Listing{ID: "L1", Price: 150, Bedrooms: 2, Bathrooms: 1, Rating: 4.7}
	f.show(t, "42", l)

	ack1, err := f.ledger.OnFeedback(ctx, "42", "L1", true)
	require.NoError(t, err)
	ack2, err := f.ledger.OnFeedback(ctx, "42", "L1", false)
	require.NoError(t, err)

	assert.True(t, ack1.ModelUpdated)
	assert.NotEqual(t, ack1.Record.ID, ack2.Record.ID)

	rows, err := f.store.ListFeedback(ctx, "42")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Liked)
	assert.False(t, rows[1].Liked)

	require.Len(t, f.classifier.fits, 2)
	assert.Equal(t, l.Features(), f.classifier.fits[0].f)
	assert.False(t, f.classifier.fits[1].liked)
}

func TestFeedbackCopiesFeatures(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	l := &models.Listing{ID: "L1", Price: 150}
	f.show(t, "42", l)

	_, err := f.ledger.OnFeedback(ctx, "42", "L1", true)
	require.NoError(t, err)

	l.Price = 999
	rows, _ := f.store.ListFeedback(ctx, "42")
	assert.Equal(t, 150.0, rows[0].Features.Price)
}

func TestFeedbackPersistenceFailure(t *testing.T) {
	f := newLedgerFixture(t)
	f.ledger.feedback = brokenFeedback{}
	f.show(t, "42", &models.Listing{ID: "L1", Price: 10})

	_, err := f.ledger.OnFeedback(context.Background(), "42", "L1", true)
	assert.ErrorIs(t, err, ErrCollaborator)
	assert.Empty(t, f.classifier.fits)
}

func TestFeedbackClassifierFailureStillAcks(t *testing.T) {
	f := newLedgerFixture(t)
	f.classifier.err = errBroken
	f.show(t, "42", &models.Listing{ID: "L1", Price: 10})

	ack, err := f.ledger.OnFeedback(context.Background(), "42", "L1", true)
	require.NoError(t, err)
	assert.False(t, ack.ModelUpdated)

	rows, _ := f.store.ListFeedback(context.Background(), "42")
	assert.Len(t, rows, 1)
}
