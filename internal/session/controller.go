package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vedikaaneesh/emotify/internal/history"
	"github.com/vedikaaneesh/emotify/internal/mood"
	"github.com/vedikaaneesh/emotify/internal/music"
	"github.com/vedikaaneesh/emotify/internal/recommend"
)

// DefaultSearchTimeout bounds a single music search.
const DefaultSearchTimeout = 15 * time.Second

// ErrNoFace is returned by a Detector when the frame holds no face.
var ErrNoFace = errors.New("no face detected")

// Detector infers the strongest facial expression in a camera frame.
type Detector interface {
	Ready() bool
	Detect(ctx context.Context, frame []byte) (mood.Emotion, error)
}

// Recorder keeps successful recommendations.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Controller owns one visitor's session state. It is safe for concurrent use;
// overlapping requests resolve latest-issued-wins.
type Controller struct {
	id       string
	searcher music.Searcher
	detector Detector
	recorder Recorder
	logger   *zap.Logger
	timeout  time.Duration
	locale   string
	limit    int

	mu      sync.Mutex
	rng     mood.Source // guarded by mu
	emotion mood.Emotion
	weather string
	loading bool
	tracks  []music.Track
	quote   string
	status  Status
	notice  string
	seq     uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithID sets the session ID reported in views and history.
func WithID(id string) Option {
	return func(c *Controller) {
		c.id = id
	}
}

// WithDetector sets the emotion detector used by DetectFromFrame.
func WithDetector(d Detector) Option {
	return func(c *Controller) {
		c.detector = d
	}
}

// WithRecorder sets where successful recommendations are recorded.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRand sets the random source for track and quote selection.
func WithRand(rng mood.Source) Option {
	return func(c *Controller) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// WithSearchTimeout bounds each music search. Zero disables the bound.
func WithSearchTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithSearchDefaults overrides the locale and page size sent to the searcher.
func WithSearchDefaults(locale string, limit int) Option {
	return func(c *Controller) {
		if locale != "" {
			c.locale = locale
		}
		if limit > 0 {
			c.limit = limit
		}
	}
}

// New creates a Controller in the Idle state.
func New(searcher music.Searcher, opts ...Option) *Controller {
	c := &Controller{
		searcher: searcher,
		logger:   zap.NewNop(),
		timeout:  DefaultSearchTimeout,
		locale:   music.DefaultLocale,
		limit:    music.DefaultLimit,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		status:   StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the session ID.
func (c *Controller) ID() string {
	return c.id
}

// SetWeather records the current weather description. An empty string marks
// the weather as unknown.
func (c *Controller) SetWeather(weather string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weather = strings.TrimSpace(weather)
}

// Weather returns the current weather description, or "" when unknown.
func (c *Controller) Weather() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weather
}

// View returns a snapshot of the session.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// OnEmotionDetected records a detected emotion and requests recommendations
// for it.
func (c *Controller) OnEmotionDetected(ctx context.Context, e mood.Emotion) View {
	c.logger.Debug("emotion detected", zap.String("session", c.id), zap.Stringer("emotion", e))
	return c.RequestRecommendations(ctx, e)
}

// DetectFromFrame runs the detector on a camera frame and, on success,
// continues as OnEmotionDetected. Without a ready detector the request is
// refused with StatusDetectorUnavailable.
func (c *Controller) DetectFromFrame(ctx context.Context, frame []byte) View {
	if c.detector == nil || !c.detector.Ready() {
		return c.refuse(StatusDetectorUnavailable, noticeNoDetector)
	}

	e, err := c.detector.Detect(ctx, frame)
	if err != nil {
		if errors.Is(err, ErrNoFace) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.notice = noticeNoFace
			return c.viewLocked()
		}
		c.logger.Warn("emotion detection failed", zap.String("session", c.id), zap.Error(err))
		return c.refuse(StatusDetectorUnavailable, noticeNoDetector)
	}

	return c.OnEmotionDetected(ctx, e)
}

// RequestRecommendations runs the flow for e: check weather, search for
// "<emotion> <weather>", pick 3–5 random tracks and a quote. Failures end in
// an error state; they are never returned as errors.
func (c *Controller) RequestRecommendations(ctx context.Context, e mood.Emotion) View {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.emotion = e
	c.loading = true
	c.tracks = nil
	c.quote = ""
	c.notice = ""
	c.transition(StatusAwaitingWeather)

	if !e.Valid() {
		c.loading = false
		c.emotion = mood.Unknown
		c.notice = noticeBadEmotion
		c.transition(StatusIdle)
		defer c.mu.Unlock()
		return c.viewLocked()
	}

	weather := c.weather
	if weather == "" {
		c.loading = false
		c.notice = noticeNoWeather
		c.transition(StatusNoWeather)
		defer c.mu.Unlock()
		return c.viewLocked()
	}

	req := music.SearchRequest{
		Term:   music.Query(e, weather),
		Locale: c.locale,
		Offset: 0,
		Limit:  c.limit,
	}
	c.transition(StatusFetching)
	c.mu.Unlock()

	candidates, err := c.search(ctx, req)

	c.mu.Lock()
	if seq != c.seq {
		c.logger.Debug("discarding stale search response",
			zap.String("session", c.id),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", c.seq))
		defer c.mu.Unlock()
		return c.viewLocked()
	}

	c.loading = false
	switch {
	case err != nil:
		c.logger.Warn("music search failed",
			zap.String("session", c.id),
			zap.String("term", req.Term),
			zap.Error(err))
		c.notice = noticeSearchFailed
		c.transition(StatusSearchFailed)
	case len(candidates) == 0:
		c.notice = noticeNoResults
		c.transition(StatusNoResults)
	default:
		c.tracks = recommend.Select(candidates, c.rng)
		c.quote = mood.BundleFor(e, c.rng).Quote
		c.transition(StatusReady)
	}
	view := c.viewLocked()
	c.mu.Unlock()

	if view.Status == StatusReady {
		c.record(ctx, view, req.Term)
	}
	return view
}

func (c *Controller) search(ctx context.Context, req music.SearchRequest) ([]music.Track, error) {
	if c.searcher == nil {
		return nil, errors.New("no music searcher configured")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.searcher.Search(ctx, req)
}

// refuse moves to an error state without touching the in-flight sequence.
func (c *Controller) refuse(status Status, notice string) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.tracks = nil
	c.notice = notice
	c.transition(status)
	return c.viewLocked()
}

func (c *Controller) record(ctx context.Context, view View, query string) {
	if c.recorder == nil {
		return
	}
	entry := history.NewEntry(c.id, view.Emotion, view.Weather, query, view.Tracks)
	if err := c.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		c.logger.Warn("recording recommendation failed", zap.String("session", c.id), zap.Error(err))
	}
}

// transition must be called with mu held.
func (c *Controller) transition(to Status) {
	if c.status != to {
		c.logger.Debug("session state",
			zap.String("session", c.id),
			zap.String("from", string(c.status)),
			zap.String("to", string(to)))
	}
	c.status = to
}

// viewLocked must be called with mu held.
func (c *Controller) viewLocked() View {
	tracks := make([]music.Track, len(c.tracks))
	copy(tracks, c.tracks)

	gradient := mood.ColorFor(c.emotion)
	return View{
		SessionID:    c.id,
		Emotion:      c.emotion,
		Weather:      c.weather,
		Loading:      c.loading,
		Tracks:       tracks,
		Quote:        c.quote,
		Gradient:     gradient,
		Background:   gradient.CSS(),
		Announcement: mood.Announcement(c.emotion),
		Status:       c.status,
		Notice:       c.notice,
		Seq:          c.seq,
	}
}
