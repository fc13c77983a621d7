// Package session drives a visitor's recommendation flow: emotion in,
// weather check, music search, random selection and mood presentation out.
package session

import (
	"errors"

	"github.com/vedikaaneesh/emotify/internal/mood"
	"github.com/vedikaaneesh/emotify/internal/music"
)

// Status is the controller's position in the recommendation flow.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusAwaitingWeather Status = "awaiting_weather"
	StatusFetching        Status = "fetching"
	StatusReady           Status = "ready"

	// Error states. Each clears the loader and leaves no tracks.
	StatusNoWeather           Status = "no_weather"
	StatusNoResults           Status = "no_results"
	StatusSearchFailed        Status = "search_failed"
	StatusDetectorUnavailable Status = "detector_unavailable"
)

// Errors matching the error states, for callers that want an error value.
var (
	ErrNoWeather           = errors.New("weather is not known yet")
	ErrNoResults           = errors.New("no songs found")
	ErrSearchFailed        = errors.New("music search failed")
	ErrDetectorUnavailable = errors.New("emotion detector unavailable")
)

// User-facing notices for the error states.
const (
	noticeNoWeather    = "Detecting weather..."
	noticeNoResults    = "No songs found!"
	noticeSearchFailed = "Could not fetch songs right now. Please try again."
	noticeNoDetector   = "Face detection is still loading. Pick a mood instead."
	noticeNoFace       = "No face detected. Try again."
	noticeBadEmotion   = "Unrecognized mood."
)

// Err returns the error matching s, or nil for non-error states.
func (s Status) Err() error {
	switch s {
	case StatusNoWeather:
		return ErrNoWeather
	case StatusNoResults:
		return ErrNoResults
	case StatusSearchFailed:
		return ErrSearchFailed
	case StatusDetectorUnavailable:
		return ErrDetectorUnavailable
	default:
		return nil
	}
}

// IsError reports whether s is one of the error states.
func (s Status) IsError() bool {
	return s.Err() != nil
}

// View is a snapshot of a session for rendering. The caller applies the
// background and speaks the announcement; the controller never does.
type View struct {
	SessionID    string        `json:"sessionId"`
	Emotion      mood.Emotion  `json:"emotion,omitempty"`
	Weather      string        `json:"weather,omitempty"`
	Loading      bool          `json:"loading"`
	Tracks       []music.Track `json:"tracks"`
	Quote        string        `json:"quote,omitempty"`
	Gradient     mood.Gradient `json:"gradient"`
	Background   string        `json:"background"`
	Announcement string        `json:"announcement,omitempty"`
	Status       Status        `json:"status"`
	Notice       string        `json:"notice,omitempty"`
	Seq          uint64        `json:"seq"`
}
