package recommend

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vedikaaneesh/emotify/internal/music"
)

// sequence replays fixed draws, cycling when exhausted.
type sequence struct {
	values []float64
	next   int
}

func (s *sequence) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func makeTracks(n int) []music.Track {
	tracks := make([]music.Track, n)
	for i := range tracks {
		tracks[i] = music.Track{
			ID:     fmt.Sprintf("track-%d", i),
			Title:  fmt.Sprintf("Song %d", i),
			Artist: "Artist",
		}
	}
	return tracks
}

func TestCount(t *testing.T) {
	tests := []struct {
		draw float64
		want int
	}{
		{0, 3},
		{0.33, 3},
		{0.34, 4},
		{0.66, 4},
		{0.67, 5},
		{0.999999, 5},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("draw %.6f", tt.draw), func(t *testing.T) {
			got := Count(&sequence{values: []float64{tt.draw}})
			if got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelectEmpty(t *testing.T) {
	got := Select(nil, &sequence{values: []float64{0.5}})
	if got == nil {
		t.Fatal("Select(nil) returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("Select(nil) returned %d tracks, want 0", len(got))
	}
}

func TestSelectDrawOrder(t *testing.T) {
	tracks := makeTracks(10)
	// First draw picks k=3, then indices 7, 7 (collision), 2, 9.
	rng := &sequence{values: []float64{0.1, 0.75, 0.75, 0.25, 0.95}}

	got := Select(tracks, rng)
	want := []music.Track{tracks[7], tracks[2], tracks[9]}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Select() mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectProperties(t *testing.T) {
	sizes := []int{1, 2, 3, 4, 5, 6, 10, 20}

	for _, size := range sizes {
		t.Run(fmt.Sprintf("%d candidates", size), func(t *testing.T) {
			tracks := makeTracks(size)
			inputIDs := make(map[string]bool, size)
			for _, tr := range tracks {
				inputIDs[tr.ID] = true
			}

			for seed := uint64(0); seed < 200; seed++ {
				rng := rand.New(rand.NewPCG(seed, seed*31+7))
				got := Select(tracks, rng)

				if size >= MaxPicks {
					if len(got) < MinPicks || len(got) > MaxPicks {
						t.Fatalf("seed %d: got %d tracks, want %d..%d", seed, len(got), MinPicks, MaxPicks)
					}
				} else if len(got) < min(MinPicks, size) || len(got) > size {
					t.Fatalf("seed %d: got %d tracks from %d candidates", seed, len(got), size)
				}

				seen := make(map[string]bool, len(got))
				for _, tr := range got {
					if seen[tr.ID] {
						t.Fatalf("seed %d: duplicate track %s", seed, tr.ID)
					}
					if !inputIDs[tr.ID] {
						t.Fatalf("seed %d: track %s not in candidates", seed, tr.ID)
					}
					seen[tr.ID] = true
				}
			}
		})
	}
}

func TestSelectFewerThanMinimum(t *testing.T) {
	for _, size := range []int{1, 2} {
		t.Run(fmt.Sprintf("%d candidates", size), func(t *testing.T) {
			got := Select(makeTracks(size), rand.New(rand.NewPCG(1, 2)))
			if len(got) != size {
				t.Errorf("Select() returned %d tracks, want %d", len(got), size)
			}
		})
	}
}

func TestSelectDegenerateSourceTerminates(t *testing.T) {
	tracks := makeTracks(8)
	// Always 0.99: k=5 and every index draw lands on the last track.
	got := Select(tracks, &sequence{values: []float64{0.99}})

	if len(got) != 5 {
		t.Fatalf("Select() returned %d tracks, want 5", len(got))
	}
	seen := make(map[string]bool)
	for _, tr := range got {
		if seen[tr.ID] {
			t.Fatalf("duplicate track %s", tr.ID)
		}
		seen[tr.ID] = true
	}
	if got[0].ID != "track-7" {
		t.Errorf("first pick = %s, want track-7", got[0].ID)
	}
}
