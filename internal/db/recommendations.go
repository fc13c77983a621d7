package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedikaaneesh/emotify/internal/history"
	"github.com/vedikaaneesh/emotify/internal/mood"
	"github.com/vedikaaneesh/emotify/internal/music"
)

// RecommendationRepository handles recommendation history operations.
type RecommendationRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a recommendation with its tracks in one transaction.
func (r *RecommendationRepository) Create(ctx context.Context, entry *history.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO recommendations (id, session_id, emotion, weather, query, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, query,
		entry.ID,
		entry.SessionID,
		string(entry.Emotion),
		entry.Weather,
		entry.Query,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting recommendation: %w", err)
	}

	if len(entry.Tracks) > 0 {
		n := len(entry.Tracks)
		positions := make([]int32, n)
		ids := make([]string, n)
		titles := make([]string, n)
		artists := make([]string, n)
		covers := make([]string, n)
		urls := make([]string, n)
		previews := make([]string, n)
		for i, t := range entry.Tracks {
			positions[i] = int32(i)
			ids[i] = t.ID
			titles[i] = t.Title
			artists[i] = t.Artist
			covers[i] = t.CoverURL
			urls[i] = t.URL
			previews[i] = t.PreviewURL
		}

		tracksQuery := `
			INSERT INTO recommendation_tracks
				(recommendation_id, position, track_id, title, artist, cover_url, url, preview_url)
			SELECT $1, * FROM unnest($2::int[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[], $8::text[])
		`
		_, err = tx.Exec(ctx, tracksQuery, entry.ID, positions, ids, titles, artists, covers, urls, previews)
		if err != nil {
			return fmt.Errorf("inserting recommendation tracks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a recommendation by ID.
func (r *RecommendationRepository) Get(ctx context.Context, id uuid.UUID) (*history.Entry, error) {
	query := `
		SELECT id, session_id, emotion, weather, query, created_at
		FROM recommendations
		WHERE id = $1
	`
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying recommendation: %w", err)
	}

	entries := []history.Entry{entry}
	if err := r.attachTracks(ctx, entries); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// ListForSession retrieves up to limit recommendations for a session,
// newest first.
func (r *RecommendationRepository) ListForSession(ctx context.Context, sessionID string, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = history.DefaultRecentLimit
	}

	query := `
		SELECT id, session_id, emotion, weather, query, created_at
		FROM recommendations
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying session recommendations: %w", err)
	}
	defer rows.Close()

	entries := []history.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recommendations: %w", err)
	}

	if err := r.attachTracks(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteForSession removes all recommendations for a session.
func (r *RecommendationRepository) DeleteForSession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM recommendations WHERE session_id = $1`
	_, err := r.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("deleting session recommendations: %w", err)
	}
	return nil
}

// attachTracks loads the tracks of entries in one query.
func (r *RecommendationRepository) attachTracks(ctx context.Context, entries []history.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	index := make(map[uuid.UUID]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID.String()
		index[e.ID] = i
		entries[i].Tracks = []music.Track{}
	}

	query := `
		SELECT recommendation_id, track_id, title, artist, cover_url, url, preview_url
		FROM recommendation_tracks
		WHERE recommendation_id = ANY($1::uuid[])
		ORDER BY recommendation_id, position
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("querying recommendation tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recID uuid.UUID
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

func scanEntry(row pgx.Row) (history.Entry, error) {
	var entry history.Entry
	var emotion string
	err := row.Scan(
		&entry.ID,
		&entry.SessionID,
		&emotion,
		&entry.Weather,
		&entry.Query,
		&entry.CreatedAt,
	)
	entry.Emotion = mood.Emotion(emotion)
	return entry, err
}
