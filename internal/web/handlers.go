package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vedikaaneesh/emotify/internal/history"
	"github.com/vedikaaneesh/emotify/internal/mood"
	"github.com/vedikaaneesh/emotify/internal/session"
	"github.com/vedikaaneesh/emotify/internal/weather"
)

const (
	maxJSONBytes  = 1 << 16
	maxFrameBytes = 4 << 20

	weatherWarning = "Could not detect the weather for your location."
)

// WeatherLookup resolves a "lat,lon" location to a condition description.
type WeatherLookup interface {
	Current(ctx context.Context, location string) (string, error)
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	sessions  *SessionStore
	templates *Templates
	weather   WeatherLookup
	history   history.Store
	faceAPI   FaceAPI
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance. weather and store may be nil.
func NewHandlers(sessions *SessionStore, templates *Templates, weather WeatherLookup, store history.Store, faceAPI FaceAPI, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		sessions:  sessions,
		templates: templates,
		weather:   weather,
		history:   store,
		faceAPI:   faceAPI,
		logger:    logger,
	}
}

// stateResponse is the JSON body of every session endpoint.
type stateResponse struct {
	session.View
	Warning string `json:"warning,omitempty"`
}

type emotionRequest struct {
	Emotion string `json:"emotion"`
}

type locationRequest struct {
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Location string   `json:"location"`
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	visitor, ok := h.visitor(w, r)
	if !ok {
		return
	}

	data := HomePageData{
		PageData: PageData{
			Title:       "Mood Music",
			FaceAPI:     h.faceAPI,
			CurrentPath: r.URL.Path,
		},
		Emotions: emotionData(),
		View:     visitor.Controller.View(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		h.logger.Error("rendering home page", zap.Error(err))
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// Results renders the results fragment for the current session
// (GET /fragments/results).
func (h *Handlers) Results(w http.ResponseWriter, r *http.Request) {
	visitor, ok := h.visitor(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.RenderPartial(w, "results", visitor.Controller.View()); err != nil {
		h.logger.Error("rendering results fragment", zap.Error(err))
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// Health reports liveness (GET /health).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Emotions lists the recognized emotions with emoji and gradient
// (GET /api/emotions).
func (h *Handlers) Emotions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emotionData())
}

// State returns the session view (GET /api/state).
func (h *Handlers) State(w http.ResponseWriter, r *http.Request) {
	visitor, ok := h.visitor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{View: visitor.Controller.View()})
}

// Location resolves the visitor's coordinates to a weather description
// (POST /api/location). A failed lookup leaves the weather unchanged and
// is reported as a warning.
func (h *Handlers) Location(w http.ResponseWriter, r *http.Request) {
	visitor, ok := h.visitor(w, r)
	if !ok {
		return
	}

	var req locationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	location := strings.TrimSpace(req.Location)
	if req.Lat != nil && req.Lon != nil {
		location = weather.Location(*req.Lat, *req.Lon)
	}
	if _, _, err := weather.ParseLocation(location); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := stateResponse{}
	if h.weather == nil {
		resp.Warning = weatherWarning
	} else if condition, err := h.weather.Current(r.Context(), location); err != nil {
		h.logger.Warn("weather lookup failed",
			zap.String("session", visitor.ID),
			zap.String("location", location),
			zap.Error(err))
		resp.Warning = weatherWarning
	} else {
		visitor.Controller.SetWeather(condition)
	}

	resp.View = visitor.Controller.View()
	writeJSON(w, http.StatusOK, resp)
}

// Recommend runs the flow for a manually picked emotion
// (POST /api/recommendations).
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	h.runEmotion(w, r, func(c *session.Controller, e mood.Emotion) session.View {
		return c.RequestRecommendations(r.Context(), e)
	})
}

// DetectedEmotion runs the flow for an emotion detected in the browser
// (POST /api/emotion).
func (h *Handlers) DetectedEmotion(w http.ResponseWriter, r *http.Request) {
	h.runEmotion(w, r, func(c *session.Controller, e mood.Emotion) session.View {
		return c.OnEmotionDetected(r.Context(), e)
	})
}

func (h *Handlers) runEmotion(w http.ResponseWriter, r *http.Request, run func(*session.Controller, mood.Emotion) session.View) {
	visitor, ok := h.visitor(w, r)
	if !ok {
		return
	}

	var req emotionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Unrecognized labels are passed through; the controller refuses them.
	e, err := mood.ParseEmotion(req.Emotion)
	if err != nil {
		e = mood.Emotion(req.Emotion)
	}

	writeJSON(w, http.StatusOK, stateResponse{View: run(visitor.Controller, e)})
}

// Capture sends a camera frame to the server-side detector
// (POST /api/capture). The body is the raw JPEG, or a multipart form with
// a "frame" file.
func (h *Handlers) Capture(w http.ResponseWriter, r *http.Request) {
	visitor, ok := h.visitor(w, r)
	if !ok {
		return
	}

	frame, err := readFrame(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stateResponse{View: visitor.Controller.DetectFromFrame(r.Context(), frame)})
}

// History lists the visitor's recent recommendations (GET /api/history).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	visitor, ok := h.visitor(w, r)
	if !ok {
		return
	}

	if h.history == nil {
		writeJSON(w, http.StatusOK, []history.Entry{})
		return
	}

	limit := history.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 100)
	}

	entries, err := h.history.Recent(r.Context(), visitor.ID, limit)
	if err != nil {
		h.logger.Error("loading history", zap.String("session", visitor.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// visitor returns the request's session, writing a 500 when one cannot be
// created.
func (h *Handlers) visitor(w http.ResponseWriter, r *http.Request) (*Visitor, bool) {
	v, err := h.sessions.GetOrCreate(w, r)
	if err != nil {
		h.logger.Error("creating session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not start session")
		return nil, false
	}
	return v, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func readFrame(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFrameBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, _, err := r.FormFile("frame")
		if err != nil {
			return nil, errors.New("missing frame file")
		}
		defer file.Close()
		r.Body = io.NopCloser(file)
	}

	frame, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.New("frame too large or unreadable")
	}
	if len(frame) == 0 {
		return nil, errors.New("empty frame")
	}
	return frame, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
