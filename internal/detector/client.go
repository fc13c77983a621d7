package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vedikaaneesh/emotify/internal/mood"
	"github.com/vedikaaneesh/emotify/internal/session"
)

// maxFrameBytes caps uploaded frames.
const maxFrameBytes = 4 << 20

// Sentinel errors.
var (
	// ErrNotConfigured is returned by Detect when no endpoint is set.
	ErrNotConfigured = errors.New("detector endpoint not configured")

	// ErrEmptyFrame is returned for a zero-length frame.
	ErrEmptyFrame = errors.New("empty frame")

	// ErrFrameTooLarge is returned for frames over the upload cap.
	ErrFrameTooLarge = errors.New("frame too large")
)

// detectResponse is the service's JSON response: one entry per face, each
// with face-api style expression probabilities.
type detectResponse struct {
	Faces []struct {
		Expressions map[string]float64 `json:"expressions"`
	} `json:"faces"`
}

// Client posts JPEG frames to the detector service. It implements
// session.Detector.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a detector client from the provided configuration.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ready reports whether a detector endpoint is configured.
func (c *Client) Ready() bool {
	return c != nil && c.endpoint != ""
}

// Detect returns the strongest expression on the first face in frame.
// A frame with no face returns an error wrapping session.ErrNoFace.
func (c *Client) Detect(ctx context.Context, frame []byte) (mood.Emotion, error) {
	if !c.Ready() {
		return mood.Unknown, ErrNotConfigured
	}
	if len(frame) == 0 {
		return mood.Unknown, ErrEmptyFrame
	}
	if len(frame) > maxFrameBytes {
		return mood.Unknown, ErrFrameTooLarge
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(frame))
	if err != nil {
		return mood.Unknown, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mood.Unknown, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return mood.Unknown, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return mood.Unknown, fmt.Errorf("detector returned status %d", resp.StatusCode)
	}

	var result detectResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return mood.Unknown, fmt.Errorf("parsing detector response: %w", err)
	}
	if len(result.Faces) == 0 {
		return mood.Unknown, fmt.Errorf("detecting expression: %w", session.ErrNoFace)
	}

	e, _ := Strongest(result.Faces[0].Expressions)
	if e == mood.Unknown {
		return mood.Unknown, fmt.Errorf("detecting expression: %w", session.ErrNoFace)
	}
	return e, nil
}

// Strongest returns the emotion with the highest probability and that
// probability. Keys are matched case-insensitively; unrecognized keys are
// ignored. Ties go to the label listed first by mood.All. An empty or
// unrecognized map returns mood.Unknown.
func Strongest(expressions map[string]float64) (mood.Emotion, float64) {
	scores := make(map[mood.Emotion]float64, len(expressions))
	for key, p := range expressions {
		e, err := mood.ParseEmotion(key)
		if err != nil {
			continue
		}
		scores[e] = p
	}

	best, bestScore := mood.Unknown, 0.0
	for _, e := range mood.All() {
		p, ok := scores[e]
		if !ok {
			continue
		}
		if best == mood.Unknown || p > bestScore {
			best, bestScore = e, p
		}
	}
	return best, bestScore
}

var _ session.Detector = (*Client)(nil)
