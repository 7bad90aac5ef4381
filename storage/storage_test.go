package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-bot/models"
	"airbnb-bot/utils"
)

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// stores runs fn against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, openSQLite(t)) })
}

func TestUserLifecycle(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

		_, err := s.Get(ctx, "42")
		assert.ErrorIs(t, err, ErrNotFound)

		u, created, err := s.GetOrCreate(ctx, "42", now)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "42", u.StableID)
		assert.Zero(t, u.SearchCount)

		again, created, err := s.GetOrCreate(ctx, "42", now.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, created)
		assert.True(t, again.CreatedAt.Equal(now))

		u.SearchCount = 3
		u.LastActive = now.Add(2 * time.Hour)
		u.Preferences = models.Preferences{Location: "Paris", Guests: 2, SelectedAmenities: []string{"wifi"}, PriceMax: 300}
		require.NoError(t, s.Update(ctx, u))

		got, err := s.Get(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, 3, got.SearchCount)
		assert.Equal(t, u.Preferences, got.Preferences)
		assert.True(t, got.LastActive.Equal(now.Add(2*time.Hour)))

		err = s.Update(ctx, &models.UserProfile{StableID: "missing"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFeedbackIsAppendOnly(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
		_, _, err := s.GetOrCreate(ctx, "7", now)
		require.NoError(t, err)

		f := models.Features{Price: 120, Bedrooms: 2, Bathrooms: 1, Rating: 4.8}
		require.NoError(t, s.AppendFeedback(ctx, models.FeedbackRecord{
			ID: "a", UserID: "7", ListingID: "L1", Liked: true, CreatedAt: now, Features: f,
		}))
		require.NoError(t, s.AppendFeedback(ctx, models.FeedbackRecord{
			ID: "b", UserID: "7", ListingID: "L1", Liked: false, CreatedAt: now, Features: f,
		}))

		rows, err := s.ListFeedback(ctx, "7")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.True(t, rows[0].Liked)
		assert.False(t, rows[1].Liked)
		assert.Equal(t, f, rows[1].Features)
		assert.Equal(t, "L1", rows[0].ListingID)

		none, err := s.ListFeedback(ctx, "other")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		url     string
		driver  string
		dsn     string
		wantErr bool
	}{
		{"sqlite://app.db", "sqlite3", "app.db", false},
		{"sqlite://:memory:", "sqlite3", ":memory:", false},
		{"postgres://u:p@localhost:5432/db?sslmode=disable", "postgres", "postgres://u:p@localhost:5432/db?sslmode=disable", false},
		{"postgresql://localhost/db", "postgres", "postgresql://localhost/db", false},
		{"sqlite://", "", "", true},
		{"mysql://localhost", "", "", true},
	}
	for _, tc := range tests {
		driver, dsn, _, err := parseDatabaseURL(tc.url)
		if tc.wantErr {
			assert.Error(t, err, tc.url)
			continue
		}
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.driver, driver)
		assert.Equal(t, tc.dsn, dsn)
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: dialectPostgres}
	lite := &SQLStore{dialect: dialectSQLite}
	q := "UPDATE users SET a = ?, b = ? WHERE c = ?"

	assert.Equal(t, "UPDATE users SET a = $1, b = $2 WHERE c = $3", pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

type cachedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := NewRedisCache(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	for name, c := range map[string]Cache{"memory": NewMemoryCache(), "redis": rc} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var got cachedThing
			found, err := c.Get(ctx, "k", &got)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, c.Set(ctx, "k", cachedThing{"x", 2}, time.Minute))
			found, err = c.Get(ctx, "k", &got)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, cachedThing{"x", 2}, got)
		})
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := NewRedisCache(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer rc.Close()

	ctx := context.Background()
	require.NoError(t, rc.Set(ctx, "snap", cachedThing{Name: "a"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got cachedThing
	found, err := rc.Get(ctx, "snap", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))

	var v int
	found, _ := c.Get(ctx, "k", &v)
	assert.True(t, found)

	now = now.Add(time.Minute)
	found, _ = c.Get(ctx, "k", &v)
	assert.False(t, found)
}

func TestNewCacheFallsBackToMemory(t *testing.T) {
	c := NewCache(context.Background(), "redis://127.0.0.1:1", utils.NewNopLogger())
	_, ok := c.(*MemoryCache)
	assert.True(t, ok)

	c = NewCache(context.Background(), "", utils.NewNopLogger())
	_, ok = c.(*MemoryCache)
	assert.True(t, ok)
}
