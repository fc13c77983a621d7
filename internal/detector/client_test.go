package detector

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vedikaaneesh/emotify/internal/mood"
	"github.com/vedikaaneesh/emotify/internal/session"
)

func TestStrongest(t *testing.T) {
	tests := []struct {
		name        string
		expressions map[string]float64
		want        mood.Emotion
		wantScore   float64
	}{
		{
			name: "face-api keys",
			expressions: map[string]float64{
				"neutral": 0.10, "happy": 0.82, "sad": 0.01, "angry": 0.02,
				"fearful": 0.01, "disgusted": 0.01, "surprised": 0.03,
			},
			want:      mood.Happy,
			wantScore: 0.82,
		},
		{
			name:        "single label",
			expressions: map[string]float64{"surprised": 0.4},
			want:        mood.Surprised,
			wantScore:   0.4,
		},
		{
			name:        "unknown keys ignored",
			expressions: map[string]float64{"contempt": 0.9, "sad": 0.2},
			want:        mood.Sad,
			wantScore:   0.2,
		},
		{
			name:        "tie goes to first listed",
			expressions: map[string]float64{"neutral": 0.5, "sad": 0.5},
			want:        mood.Sad,
			wantScore:   0.5,
		},
		{
			name:        "empty",
			expressions: map[string]float64{},
			want:        mood.Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, score := Strongest(tt.expressions)
			if got != tt.want || score != tt.wantScore {
				t.Errorf("Strongest() = %v, %v; want %v, %v", got, score, tt.want, tt.wantScore)
			}
		})
	}
}

func TestReady(t *testing.T) {
	if NewClient(&Config{}).Ready() {
		t.Error("Ready() = true without endpoint")
	}
	if !NewClient(&Config{Endpoint: "http://localhost:9100/detect"}).Ready() {
		t.Error("Ready() = false with endpoint")
	}
	var nilClient *Client
	if nilClient.Ready() {
		t.Error("nil client Ready() = true")
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    mood.Emotion
		wantErr error
		anyErr  bool
	}{
		{
			name:   "strongest expression",
			status: http.StatusOK,
			body:   `{"faces":[{"expressions":{"angry":0.7,"neutral":0.2}},{"expressions":{"happy":0.99}}]}`,
			want:   mood.Angry,
		},
		{
			name:    "no face",
			status:  http.StatusOK,
			body:    `{"faces":[]}`,
			wantErr: session.ErrNoFace,
		},
		{
			name:    "face without known expressions",
			status:  http.StatusOK,
			body:    `{"faces":[{"expressions":{}}]}`,
			wantErr: session.ErrNoFace,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
			anyErr: true,
		},
		{
			name:   "malformed JSON",
			status: http.StatusOK,
			body:   `{"faces":`,
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				if got := r.Header.Get("Content-Type"); got != "image/jpeg" {
					t.Errorf("Content-Type = %q", got)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer secret" {
					t.Errorf("Authorization = %q", got)
				}
				frame, _ := io.ReadAll(r.Body)
				if string(frame) != "jpeg-bytes" {
					t.Errorf("frame = %q", frame)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(&Config{Endpoint: server.URL + "/detect", APIKey: "secret"})
			got, err := client.Detect(context.Background(), []byte("jpeg-bytes"))

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Detect() error = %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil {
					t.Error("Detect() error = nil, want error")
				}
			default:
				if err != nil {
					t.Fatalf("Detect() error: %v", err)
				}
				if got != tt.want {
					t.Errorf("Detect() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDetect_InvalidInput(t *testing.T) {
	ctx := context.Background()

	if _, err := NewClient(&Config{}).Detect(ctx, []byte("x")); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Detect() without endpoint error = %v, want ErrNotConfigured", err)
	}

	client := NewClient(&Config{Endpoint: "http://127.0.0.1:0/detect"})
	if _, err := client.Detect(ctx, nil); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Detect(nil) error = %v, want ErrEmptyFrame", err)
	}
	if _, err := client.Detect(ctx, make([]byte, maxFrameBytes+1)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Detect(large) error = %v, want ErrFrameTooLarge", err)
	}
}
