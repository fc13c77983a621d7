// Package sqlite provides a SQLite-backed recommendation history store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/vedikaaneesh/emotify/internal/history"
	"github.com/vedikaaneesh/emotify/internal/mood"
	"github.com/vedikaaneesh/emotify/internal/music"
)

// Store implements history.Store for SQLite.
type Store struct {
	db *sql.DB
}

// Open creates a connection and runs the schema migration.
func Open(path string) (*Store, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", path+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite db: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS recommendations (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			emotion TEXT NOT NULL,
			weather TEXT NOT NULL,
			query TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS recommendations_session_created_idx
			ON recommendations (session_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS recommendation_tracks (
			recommendation_id TEXT NOT NULL REFERENCES recommendations (id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			cover_url TEXT,
			url TEXT,
			preview_url TEXT,
			PRIMARY KEY (recommendation_id, position)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts an entry and its tracks in one transaction.
func (s *Store) Record(ctx context.Context, entry history.Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recommendations (id, session_id, emotion, weather, query, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID.String(), entry.SessionID, string(entry.Emotion), entry.Weather, entry.Query, entry.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting recommendation: %w", err)
	}

	if len(entry.Tracks) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recommendation_tracks
				(recommendation_id, position, track_id, title, artist, cover_url, url, preview_url)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing track insert: %w", err)
		}
		defer stmt.Close()

		for i, t := range entry.Tracks {
			if _, err := stmt.ExecContext(ctx, entry.ID.String(), i, t.ID, t.Title, t.Artist, t.CoverURL, t.URL, t.PreviewURL); err != nil {
				return fmt.Errorf("inserting recommendation track: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for a session, newest first.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = history.DefaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, emotion, weather, query, created_at
		FROM recommendations
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recommendations: %w", err)
	}
	defer rows.Close()

	entries := []history.Entry{}
	for rows.Next() {
		var (
			entry   history.Entry
			id      string
			emotion string
			created int64
		)
		if err := rows.Scan(&id, &entry.SessionID, &emotion, &entry.Weather, &entry.Query, &created); err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		entry.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parsing recommendation id: %w", err)
		}
		entry.Emotion = mood.Emotion(emotion)
		entry.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recommendations: %w", err)
	}
	rows.Close()

	if err := s.attachTracks(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) attachTracks(ctx context.Context, entries []history.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	args := make([]any, len(entries))
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		args[i] = e.ID.String()
		index[e.ID.String()] = i
		entries[i].Tracks = []music.Track{}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entries)), ",")
	rows, err := s.db.QueryContext(ctx, `
		SELECT recommendation_id, track_id, title, artist,
			IFNULL(cover_url, ''), IFNULL(url, ''), IFNULL(preview_url, '')
		FROM recommendation_tracks
		WHERE recommendation_id IN (`+placeholders+`)
		ORDER BY recommendation_id, position
	`, args...)
	if err != nil {
		return fmt.Errorf("querying recommendation tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recID string
		var t music.Track
		if err := rows.Scan(&recID, &t.ID, &t.Title, &t.Artist, &t.CoverURL, &t.URL, &t.PreviewURL); err != nil {
			return fmt.Errorf("scanning recommendation track: %w", err)
		}
		if i, ok := index[recID]; ok {
			entries[i].Tracks = append(entries[i].Tracks, t)
		}
	}
	return rows.Err()
}

var _ history.Store = (*Store)(nil)
