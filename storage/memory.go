package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"airbnb-bot/models"
)

// MemoryStore keeps users and feedback in process memory. It is used in
// tests and when no database is wanted.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]models.UserProfile
	feedback map[string][]models.FeedbackRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.UserProfile),
		feedback: make(map[string][]models.FeedbackRecord),
	}
}

func (m *MemoryStore) GetOrCreate(_ context.Context, stableID string, now time.Time) (*models.UserProfile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[stableID]; ok {
		return cloneProfile(u), false, nil
	}
	u := models.UserProfile{StableID: stableID, CreatedAt: now, LastActive: now}
	m.users[stableID] = u
	return cloneProfile(u), true, nil
}

func (m *MemoryStore) Get(_ context.Context, stableID string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[stableID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(u), nil
}

func (m *MemoryStore) Update(_ context.Context, profile *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[profile.StableID]; !ok {
		return ErrNotFound
	}
	m.users[profile.StableID] = *cloneProfile(*profile)
	return nil
}

func (m *MemoryStore) AppendFeedback(_ context.Context, rec models.FeedbackRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback[rec.UserID] = append(m.feedback[rec.UserID], rec)
	return nil
}

func (m *MemoryStore) ListFeedback(_ context.Context, userID string) ([]models.FeedbackRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.FeedbackRecord(nil), m.feedback[userID]...), nil
}

func (m *MemoryStore) Close() error { return nil }

func cloneProfile(u models.UserProfile) *models.UserProfile {
	c := u
	c.Preferences.SelectedAmenities = append([]string(nil), u.Preferences.SelectedAmenities...)
	return &c
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is the in-process Cache used when redis is unavailable.
// Values are stored JSON-encoded so callers never share memory with it.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, fmt.Errorf("memory cache: decode %q: %w", key, err)
	}
	return true, nil
}

// Set stores value; a non-positive ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memory cache: encode %q: %w", key, err)
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Close() error { return nil }
