// Package history keeps the recommendations each session received.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vedikaaneesh/emotify/internal/mood"
	"github.com/vedikaaneesh/emotify/internal/music"
)

// DefaultRecentLimit is used when Recent is called with a non-positive limit.
const DefaultRecentLimit = 20

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("not found")

// Entry is one successful recommendation.
type Entry struct {
	ID        uuid.UUID     `json:"id"`
	SessionID string        `json:"sessionId"`
	Emotion   mood.Emotion  `json:"emotion"`
	Weather   string        `json:"weather"`
	Query     string        `json:"query"`
	Tracks    []music.Track `json:"tracks"`
	CreatedAt time.Time     `json:"createdAt"`
}

// NewEntry creates an entry with a fresh ID and the current time.
func NewEntry(sessionID string, e mood.Emotion, weather, query string, tracks []music.Track) Entry {
	return Entry{
		ID:        uuid.New(),
		SessionID: sessionID,
		Emotion:   e,
		Weather:   weather,
		Query:     query,
		Tracks:    tracks,
		CreatedAt: time.Now().UTC(),
	}
}

// Store persists history entries.
type Store interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error)
	Close() error
}
