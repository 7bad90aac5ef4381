package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-bot/models"
	"airbnb-bot/storage"
)

func TestWizardIsCopied(t *testing.T) {
	s := NewStore(storage.NewMemoryCache(), time.Hour)
	assert.Nil(t, s.Wizard("u"))

	w := models.NewWizard()
	w.Criteria.Amenities = models.NewAmenitySet(models.AmenityWifi)
	d := models.NewDate(2026, 10, 20)
	w.Calendar.PendingCheckIn = &d
	s.SaveWizard("u", w)

	w.Criteria.Amenities.Toggle(models.AmenityPool)
	*w.Calendar.PendingCheckIn = models.NewDate(2030, 1, 1)

	got := s.Wizard("u")
	require.NotNil(t, got)
	assert.False(t, got.Criteria.Amenities.Has(models.AmenityPool))
	assert.Equal(t, models.NewDate(2026, 10, 20), *got.Calendar.PendingCheckIn)

	got.State = models.StateCancelled
	assert.Equal(t, models.StateAwaitingLocation, s.Wizard("u").State)

	s.DropWizard("u")
	assert.Nil(t, s.Wizard("u"))
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryCache(), time.Hour)

	_, err := s.Snapshot(ctx, "u", "L1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	snap := models.ListingSnapshot{
		ListingID: "L1", Title: "Loft", URL: "https://www.airbnb.com/rooms/1",
		Features: models.Features{Price: 120, Rating: 4.5},
		ShownAt:  time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.PutSnapshot(ctx, "u", snap))

	got, err := s.Snapshot(ctx, "u", "L1")
	require.NoError(t, err)
	assert.Equal(t, snap.Features, got.Features)
	assert.True(t, snap.ShownAt.Equal(got.ShownAt))

	_, err = s.Snapshot(ctx, "someone-else", "L1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound, "snapshots are scoped to the user they were shown to")
}
