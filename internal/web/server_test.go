package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vedikaaneesh/emotify/internal/history"
	"github.com/vedikaaneesh/emotify/internal/mood"
	"github.com/vedikaaneesh/emotify/internal/music"
	"github.com/vedikaaneesh/emotify/internal/session"
	webfs "github.com/vedikaaneesh/emotify/web"
)

type fakeSearcher struct {
	tracks []music.Track
	err    error
}

func (f fakeSearcher) Search(context.Context, music.SearchRequest) ([]music.Track, error) {
	return f.tracks, f.err
}

type fakeWeather struct {
	condition string
	err       error
	locations []string
}

func (f *fakeWeather) Current(_ context.Context, location string) (string, error) {
	f.locations = append(f.locations, location)
	return f.condition, f.err
}

type testEnv struct {
	server  *Server
	weather *fakeWeather
	store   *history.MemoryStore
	cookie  *http.Cookie
}

func newTestEnv(t *testing.T, searcher music.Searcher, w *fakeWeather, opts ...func(*ServerConfig)) *testEnv {
	t.Helper()

	templates, static, err := webfs.Assets()
	if err != nil {
		t.Fatalf("Assets() error: %v", err)
	}

	store := history.NewMemoryStore()
	var lookup WeatherLookup
	if w != nil {
		lookup = w
	}

	cfg := ServerConfig{
		TemplatesFS: templates,
		StaticFS:    static,
		NewController: func(id string) *session.Controller {
			return session.New(searcher,
				session.WithID(id),
				session.WithRecorder(store),
				session.WithRand(rand.New(rand.NewPCG(1, 2))))
		},
		Weather: lookup,
		History: store,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	return &testEnv{server: server, weather: w, store: store}
}

// do sends a request, carrying the session cookie between calls.
func (e *testEnv) do(t *testing.T, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			e.cookie = c
		}
	}
	return rec
}

func (e *testEnv) postJSON(t *testing.T, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return e.do(t, http.MethodPost, path, "application/json", body)
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp
}

func tracks(n int) []music.Track {
	out := make([]music.Track, n)
	for i := range out {
		out[i] = music.Track{ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("Song %d", i), Artist: "Artist"}
	}
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{}, nil)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestEmotions(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{}, nil)

	rec := env.do(t, http.MethodGet, "/api/emotions", "", nil)
	var got []EmotionData
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("got %d emotions, want 7", len(got))
	}
	if got[0].Label != "Happy" || got[0].Emoji != "😀" {
		t.Errorf("first emotion = %+v", got[0])
	}
}

func TestHome(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{}, nil)

	rec := env.do(t, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env.cookie == nil {
		t.Fatal("no session cookie set")
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Play my mood!") {
		t.Error("page lacks the webcam button")
	}
	if n := strings.Count(body, `class="emotion-button"`); n != 7 {
		t.Errorf("page has %d emotion buttons, want 7", n)
	}
}

func TestHome_BrowserFaceDetection(t *testing.T) {
	const (
		script = "https://cdn.example.test/face-api.min.js"
		models = "https://cdn.example.test/weights"
	)

	t.Run("configured", func(t *testing.T) {
		env := newTestEnv(t, fakeSearcher{}, nil, func(cfg *ServerConfig) {
			cfg.FaceAPI = FaceAPI{ScriptURL: script, ModelsURL: models}
		})

		body := env.do(t, http.MethodGet, "/", "", nil).Body.String()
		if !strings.Contains(body, `<script src="`+script+`" defer></script>`) {
			t.Error("page does not load the face-api script")
		}
		if !strings.Contains(body, `data-face-models="`+models+`"`) {
			t.Error("page does not carry the models URL")
		}
		if strings.Index(body, script) > strings.Index(body, "/static/app.js") {
			t.Error("face-api script must load before app.js")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, fakeSearcher{}, nil)

		body := env.do(t, http.MethodGet, "/", "", nil).Body.String()
		if strings.Contains(body, "face-api") {
			t.Error("page loads face-api without a script URL")
		}
		if !strings.Contains(body, `data-face-models=""`) {
			t.Error("page lacks an empty models URL")
		}
	})
}

func TestStaticAssets_BrowserDetection(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{}, nil)

	js := env.do(t, http.MethodGet, "/static/app.js", "", nil).Body.String()
	for _, want := range []string{
		"tinyFaceDetector.loadFromUri",
		"faceExpressionNet.loadFromUri",
		`"/api/emotion"`,
		"No face detected. Try again.",
	} {
		if !strings.Contains(js, want) {
			t.Errorf("app.js lacks %q", want)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{}, nil)

	for _, path := range []string{"/static/app.js", "/static/style.css"} {
		if rec := env.do(t, http.MethodGet, path, "", nil); rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, rec.Code)
		}
	}
}

func TestRecommendationFlow(t *testing.T) {
	w := &fakeWeather{condition: "Sunny"}
	env := newTestEnv(t, fakeSearcher{tracks: tracks(12)}, w)

	loc := decodeState(t, env.postJSON(t, "/api/location", map[string]float64{"lat": 48.85, "lon": 2.35}))
	if loc.Weather != "Sunny" {
		t.Fatalf("weather = %q, want Sunny", loc.Weather)
	}
	if len(w.locations) != 1 || w.locations[0] != "48.85,2.35" {
		t.Errorf("weather lookups = %v", w.locations)
	}

	view := decodeState(t, env.postJSON(t, "/api/recommendations", map[string]string{"emotion": "happy"}))
	if view.Status != session.StatusReady {
		t.Fatalf("status = %q, want ready", view.Status)
	}
	if n := len(view.Tracks); n < 3 || n > 5 {
		t.Errorf("got %d tracks, want 3-5", n)
	}
	if view.Loading {
		t.Error("loading = true after completion")
	}
	if want := mood.ColorFor(mood.Happy).CSS(); view.Background != want {
		t.Errorf("background = %q, want %q", view.Background, want)
	}
	if view.Announcement != "Playing Happy songs." {
		t.Errorf("announcement = %q", view.Announcement)
	}

	state := decodeState(t, env.do(t, http.MethodGet, "/api/state", "", nil))
	if state.Seq != view.Seq || len(state.Tracks) != len(view.Tracks) {
		t.Errorf("state = %+v, want same as last view", state.View)
	}

	frag := env.do(t, http.MethodGet, "/fragments/results", "", nil)
	if !strings.Contains(frag.Body.String(), view.Quote) || !strings.Contains(frag.Body.String(), view.Tracks[0].Title) {
		t.Errorf("results fragment missing quote or tracks: %s", frag.Body.String())
	}

	hist := env.do(t, http.MethodGet, "/api/history?limit=5", "", nil)
	var entries []history.Entry
	if err := json.Unmarshal(hist.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	if len(entries) != 1 || entries[0].Query != "Happy Sunny" {
		t.Errorf("history = %+v", entries)
	}
}

func TestRecommendations_NoWeather(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{tracks: tracks(5)}, nil)

	view := decodeState(t, env.postJSON(t, "/api/recommendations", map[string]string{"emotion": "Sad"}))
	if view.Status != session.StatusNoWeather {
		t.Errorf("status = %q, want no_weather", view.Status)
	}
	if view.Loading || len(view.Tracks) != 0 {
		t.Errorf("view = %+v", view.View)
	}
	// The page speaks on every emotion change, so the announcement is set
	// even when no songs can be fetched yet.
	if view.Announcement != "Playing Sad songs." {
		t.Errorf("announcement = %q, want %q", view.Announcement, "Playing Sad songs.")
	}
}

func TestRecommendations_SearchFailureIsNotAnHTTPError(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{err: errors.New("boom")}, &fakeWeather{condition: "Rain"})
	env.postJSON(t, "/api/location", map[string]string{"location": "10,10"})

	view := decodeState(t, env.postJSON(t, "/api/emotion", map[string]string{"emotion": "angry"}))
	if view.Status != session.StatusSearchFailed {
		t.Errorf("status = %q, want search_failed", view.Status)
	}
}

func TestRecommendations_UnknownEmotion(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{tracks: tracks(5)}, &fakeWeather{condition: "Rain"})

	view := decodeState(t, env.postJSON(t, "/api/recommendations", map[string]string{"emotion": "bored"}))
	if view.Status != session.StatusIdle {
		t.Errorf("status = %q, want idle", view.Status)
	}
}

func TestLocation_LookupFailure(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{}, &fakeWeather{err: errors.New("quota")})

	resp := decodeState(t, env.postJSON(t, "/api/location", map[string]float64{"lat": 1, "lon": 2}))
	if resp.Weather != "" {
		t.Errorf("weather = %q, want empty", resp.Weather)
	}
	if resp.Warning == "" {
		t.Error("warning is empty")
	}
}

func TestBadRequests(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{}, &fakeWeather{condition: "Sunny"})

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "malformed recommendation", path: "/api/recommendations", body: `{"emotion":`},
		{name: "unknown field", path: "/api/emotion", body: `{"mood":"Happy"}`},
		{name: "missing location", path: "/api/location", body: `{}`},
		{name: "out of range location", path: "/api/location", body: `{"lat":123,"lon":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, "application/json", []byte(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}

	if rec := env.do(t, http.MethodGet, "/api/history?limit=-1", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("history limit=-1 status = %d, want 400", rec.Code)
	}
}

func TestCapture_NoDetector(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{}, nil)

	view := decodeState(t, env.do(t, http.MethodPost, "/api/capture", "image/jpeg", []byte{0xff, 0xd8, 0xff}))
	if view.Status != session.StatusDetectorUnavailable {
		t.Errorf("status = %q, want detector_unavailable", view.Status)
	}

	if rec := env.do(t, http.MethodPost, "/api/capture", "image/jpeg", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("empty frame status = %d, want 400", rec.Code)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, fakeSearcher{tracks: tracks(5)}, &fakeWeather{condition: "Sunny"})
	env.postJSON(t, "/api/location", map[string]string{"location": "1,1"})

	other := &testEnv{server: env.server}
	view := decodeState(t, other.postJSON(t, "/api/recommendations", map[string]string{"emotion": "Happy"}))
	if view.Status != session.StatusNoWeather {
		t.Errorf("second visitor status = %q, want no_weather", view.Status)
	}
	if other.cookie == nil || other.cookie.Value == env.cookie.Value {
		t.Error("second visitor did not get its own session")
	}
}
