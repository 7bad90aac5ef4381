package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"airbnb-bot/models"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore persists users and feedback to PostgreSQL or SQLite. Queries are
// written with ? placeholders and rebound for postgres.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to databaseURL, runs schema migrations, and returns a
// ready-to-use SQLStore. Supported forms are postgres://..., postgresql://...
// and sqlite://<path> (sqlite://:memory: for a throwaway database).
func Open(ctx context.Context, databaseURL string) (*SQLStore, error) {
	driver, dsn, d, err := parseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}
	if d == dialectSQLite {
		// One writer at a time; also keeps :memory: on a single connection.
		db.SetMaxOpenConns(1)
	}

	attempts := 1
	if d == dialectPostgres {
		attempts = 10
	}
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				db.Close()
				return nil, fmt.Errorf("%s: ping: %w", driver, ctx.Err())
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping failed after retries: %w", driver, err)
	}

	s := &SQLStore{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", driver, err)
	}
	return s, nil
}

func parseDatabaseURL(raw string) (driver, dsn string, d dialect, err error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return "postgres", raw, dialectPostgres, nil
	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if path == "" {
			return "", "", 0, fmt.Errorf("storage: empty sqlite path in %q", raw)
		}
		return "sqlite3", path, dialectSQLite, nil
	default:
		return "", "", 0, fmt.Errorf("storage: unsupported database url %q", raw)
	}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	ts, num, serial := "TIMESTAMP", "REAL", "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == dialectPostgres {
		ts, num, serial = "TIMESTAMPTZ", "DOUBLE PRECISION", "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			stable_id    TEXT PRIMARY KEY,
			preferences  TEXT    NOT NULL DEFAULT '{}',
			search_count INTEGER NOT NULL DEFAULT 0,
			created_at   ` + ts + ` NOT NULL,
			last_active  ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS listing_feedback (
			seq               ` + serial + `,
			id                TEXT    UNIQUE NOT NULL,
			user_id           TEXT    NOT NULL REFERENCES users(stable_id),
			listing_id        TEXT    NOT NULL,
			liked             BOOLEAN NOT NULL,
			created_at        ` + ts + ` NOT NULL,
			price             ` + num + ` NOT NULL DEFAULT 0,
			bedrooms          ` + num + ` NOT NULL DEFAULT 0,
			bathrooms         ` + num + ` NOT NULL DEFAULT 0,
			rating            ` + num + ` NOT NULL DEFAULT 0,
			location_score    ` + num + ` NOT NULL DEFAULT 0,
			cleanliness_score ` + num + ` NOT NULL DEFAULT 0,
			value_score       ` + num + ` NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_user ON listing_feedback(user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $1..$n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) GetOrCreate(ctx context.Context, stableID string, now time.Time) (*models.UserProfile, bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO users (stable_id, preferences, search_count, created_at, last_active)
		VALUES (?, '{}', 0, ?, ?)
		ON CONFLICT (stable_id) DO NOTHING
	`), stableID, now.UTC(), now.UTC())
	if err != nil {
		return nil, false, fmt.Errorf("storage: insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("storage: insert user: %w", err)
	}

	u, err := s.Get(ctx, stableID)
	if err != nil {
		return nil, false, err
	}
	return u, n == 1, nil
}

func (s *SQLStore) Get(ctx context.Context, stableID string) (*models.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT stable_id, preferences, search_count, created_at, last_active
		FROM users WHERE stable_id = ?
	`), stableID)

	var (
		u     models.UserProfile
		prefs string
	)
	if err := row.Scan(&u.StableID, &prefs, &u.SearchCount, &u.CreatedAt, &u.LastActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: get user: %w", err)
	}
	if err := json.Unmarshal([]byte(prefs), &u.Preferences); err != nil {
		return nil, fmt.Errorf("storage: decode preferences: %w", err)
	}
	return &u, nil
}

func (s *SQLStore) Update(ctx context.Context, profile *models.UserProfile) error {
	prefs, err := json.Marshal(profile.Preferences)
	if err != nil {
		return fmt.Errorf("storage: encode preferences: %w", err)
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE users SET preferences = ?, search_count = ?, last_active = ?
		WHERE stable_id = ?
	`), string(prefs), profile.SearchCount, profile.LastActive.UTC(), profile.StableID)
	if err != nil {
		return fmt.Errorf("storage: update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: update user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) AppendFeedback(ctx context.Context, rec models.FeedbackRecord) error {
	f := rec.Features
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO listing_feedback (
			id, user_id, listing_id, liked, created_at,
			price, bedrooms, bathrooms, rating,
			location_score, cleanliness_score, value_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		rec.ID, rec.UserID, rec.ListingID, rec.Liked, rec.CreatedAt.UTC(),
		f.Price, f.Bedrooms, f.Bathrooms, f.Rating,
		f.LocationScore, f.CleanlinessScore, f.ValueScore,
	)
	if err != nil {
		return fmt.Errorf("storage: append feedback: %w", err)
	}
	return nil
}

func (s *SQLStore) ListFeedback(ctx context.Context, userID string) ([]models.FeedbackRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, user_id, listing_id, liked, created_at,
			price, bedrooms, bathrooms, rating,
			location_score, cleanliness_score, value_score
		FROM listing_feedback
		WHERE user_id = ?
		ORDER BY seq
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("storage: list feedback: %w", err)
	}
	defer rows.Close()

	var out []models.FeedbackRecord
	for rows.Next() {
		var r models.FeedbackRecord
		f := &r.Features
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.ListingID, &r.Liked, &r.CreatedAt,
			&f.Price, &f.Bedrooms, &f.Bathrooms, &f.Rating,
			&f.LocationScore, &f.CleanlinessScore, &f.ValueScore,
		); err != nil {
			return nil, fmt.Errorf("storage: scan feedback: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
