package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zmb3/spotify/v2"

	"github.com/vedikaaneesh/emotify/internal/music"
)

func TestConvertTrack(t *testing.T) {
	tests := []struct {
		name     string
		track    spotify.FullTrack
		expected music.Track
	}{
		{
			name: "single artist with artwork",
			track: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					ID:           "track123",
					Name:         "Test Song",
					Artists:      []spotify.SimpleArtist{{Name: "Artist One"}},
					PreviewURL:   "https://p.scdn.co/mp3-preview/abc",
					ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/track/track123"},
				},
				Album: spotify.SimpleAlbum{
					Images: []spotify.Image{{URL: "https://i.scdn.co/image/large"}, {URL: "https://i.scdn.co/image/small"}},
				},
			},
			expected: music.Track{
				ID:         "track123",
				Title:      "Test Song",
				Artist:     "Artist One",
				CoverURL:   "https://i.scdn.co/image/large",
				URL:        "https://open.spotify.com/track/track123",
				PreviewURL: "https://p.scdn.co/mp3-preview/abc",
			},
		},
		{
			name: "multiple artists without artwork",
			track: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					ID:   "track456",
					Name: "Collab Track",
					Artists: []spotify.SimpleArtist{
						{Name: "Artist A"},
						{Name: "Artist B"},
						{Name: "Artist C"},
					},
				},
			},
			expected: music.Track{
				ID:     "track456",
				Title:  "Collab Track",
				Artist: "Artist A, Artist B, Artist C",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertTrack(tt.track)
			if got != tt.expected {
				t.Errorf("convertTrack() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestMarketFor(t *testing.T) {
	tests := map[string]string{
		"en-US":   "US",
		"fr-fr":   "FR",
		"en":      "",
		"":        "",
		"zh-Hans": "",
	}
	for locale, want := range tests {
		if got := marketFor(locale); got != want {
			t.Errorf("marketFor(%q) = %q, want %q", locale, got, want)
		}
	}
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "Happy Sunny" || q.Get("type") != "track" {
			t.Errorf("query = %v", q)
		}
		if q.Get("limit") != "20" || q.Get("offset") != "0" || q.Get("market") != "US" {
			t.Errorf("paging = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tracks":{"items":[
			{"id":"a1","name":"Walking on Sunshine","artists":[{"name":"Katrina and the Waves"}]},
			{"id":"b2","name":"Good Day Sunshine","artists":[{"name":"The Beatles"}]}
		]}}`))
	}))
	defer server.Close()

	client := New(spotify.New(server.Client(), spotify.WithBaseURL(server.URL+"/")))

	got, err := client.Search(context.Background(), music.DefaultRequest("Happy Sunny"))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search() returned %d tracks, want 2", len(got))
	}
	if got[0].ID != "a1" || got[1].Artist != "The Beatles" {
		t.Errorf("Search() = %+v", got)
	}
}

func TestSearch_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"status":401,"message":"Invalid access token"}}`))
	}))
	defer server.Close()

	client := New(spotify.New(server.Client(), spotify.WithBaseURL(server.URL+"/")))

	if _, err := client.Search(context.Background(), music.DefaultRequest("x")); err == nil {
		t.Fatal("Search() error = nil, want error")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "complete", cfg: Config{ClientID: "id", ClientSecret: "secret"}},
		{name: "missing secret", cfg: Config{ClientID: "id"}, wantErr: ErrMissingCredentials},
		{name: "missing id", cfg: Config{ClientSecret: "secret"}, wantErr: ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
