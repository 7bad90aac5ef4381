// Package session keeps the per-user conversation state: the in-flight
// search wizard and the snapshots of listings already shown.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"airbnb-bot/models"
	"airbnb-bot/storage"
)

// ErrSnapshotNotFound means the listing was never shown to the user or its
// snapshot has since expired.
var ErrSnapshotNotFound = errors.New("session: listing snapshot not found")

// Store owns wizard state in memory and listing snapshots in a Cache.
// Wizards returned by Wizard are copies; mutate and hand back with SaveWizard.
type Store struct {
	mu      sync.RWMutex
	wizards map[string]*models.Wizard

	cache       storage.Cache
	snapshotTTL time.Duration
}

func NewStore(cache storage.Cache, snapshotTTL time.Duration) *Store {
	return &Store{
		wizards:     make(map[string]*models.Wizard),
		cache:       cache,
		snapshotTTL: snapshotTTL,
	}
}

// Wizard returns a copy of the user's wizard, or nil when none exists.
func (s *Store) Wizard(userID string) *models.Wizard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wizards[userID]
	if !ok {
		return nil
	}
	return cloneWizard(w)
}

// SaveWizard replaces the user's wizard. Starting a new search simply saves
// a fresh wizard over any incomplete one.
func (s *Store) SaveWizard(userID string, w *models.Wizard) {
	s.mu.Lock()
	s.wizards[userID] = cloneWizard(w)
	s.mu.Unlock()
}

func (s *Store) DropWizard(userID string) {
	s.mu.Lock()
	delete(s.wizards, userID)
	s.mu.Unlock()
}

func snapshotKey(userID, listingID string) string {
	return "snapshot:" + userID + ":" + listingID
}

// PutSnapshot records that listing snap was shown to userID.
func (s *Store) PutSnapshot(ctx context.Context, userID string, snap models.ListingSnapshot) error {
	if err := s.cache.Set(ctx, snapshotKey(userID, snap.ListingID), snap, s.snapshotTTL); err != nil {
		return fmt.Errorf("session: put snapshot: %w", err)
	}
	return nil
}

// Snapshot resolves a listing previously shown to userID.
func (s *Store) Snapshot(ctx context.Context, userID, listingID string) (models.ListingSnapshot, error) {
	var snap models.ListingSnapshot
	found, err := s.cache.Get(ctx, snapshotKey(userID, listingID), &snap)
	if err != nil {
		return models.ListingSnapshot{}, fmt.Errorf("session: get snapshot: %w", err)
	}
	if !found {
		return models.ListingSnapshot{}, ErrSnapshotNotFound
	}
	return snap, nil
}

func cloneWizard(w *models.Wizard) *models.Wizard {
	c := *w
	if w.Criteria.Amenities != nil {
		c.Criteria.Amenities = w.Criteria.Amenities.Clone()
	}
	if w.Calendar.PendingCheckIn != nil {
		d := *w.Calendar.PendingCheckIn
		c.Calendar.PendingCheckIn = &d
	}
	return &c
}
