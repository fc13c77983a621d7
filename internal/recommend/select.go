// Package recommend picks a small random set of tracks from search results.
package recommend

import (
	"github.com/vedikaaneesh/emotify/internal/mood"
	"github.com/vedikaaneesh/emotify/internal/music"
)

// Bounds on how many tracks a recommendation holds.
const (
	MinPicks = 3
	MaxPicks = 5
)

// maxCollisions is how many consecutive repeated draws are tolerated before
// probing forward for a free index. It keeps Select finite even when the
// source keeps returning the same value.
const maxCollisions = 64

// Count draws how many tracks to recommend: uniformly one of 3, 4 or 5.
func Count(rng mood.Source) int {
	k := MinPicks + int(rng.Float64()*float64(MaxPicks-MinPicks+1))
	return min(k, MaxPicks)
}

// Select returns min(Count(rng), len(candidates)) distinct tracks chosen
// uniformly without replacement, in the order they were drawn.
// An empty candidate list yields an empty slice.
func Select(candidates []music.Track, rng mood.Source) []music.Track {
	if len(candidates) == 0 {
		return []music.Track{}
	}

	k := min(Count(rng), len(candidates))
	picked := make([]music.Track, 0, k)
	used := make(map[int]struct{}, k)

	collisions := 0
	for len(picked) < k {
		idx := index(rng, len(candidates))
		if _, taken := used[idx]; taken {
			collisions++
			if collisions < maxCollisions {
				continue
			}
			idx = nextFree(used, idx, len(candidates))
		}

		collisions = 0
		used[idx] = struct{}{}
		picked = append(picked, candidates[idx])
	}

	return picked
}

// index maps a draw in [0, 1) onto [0, n).
func index(rng mood.Source, n int) int {
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// nextFree returns the first unused index after start, wrapping around.
// Callers guarantee at least one index is free.
func nextFree(used map[int]struct{}, start, n int) int {
	for off := 1; off <= n; off++ {
		i := (start + off) % n
		if _, taken := used[i]; !taken {
			return i
		}
	}
	return start
}
