package service

import (
	"strings"
	"sync"

	"github.com/playlistify/api/internal/client"
)

// DiversityCollector accumulates candidate tracks from the discovery
// strategies while enforcing uniqueness, a per-artist cap and near-duplicate
// title suppression. Naive aggregation across strategies otherwise produces
// playlists dominated by one or two artists plus "remix"/"radio edit"
// variants of the same song.
//
// TryAdd is safe for concurrent use: the check-then-act is a single critical
// section so the cap and dedup invariants hold when a strategy fans out
// provider calls. One collector lives for one generation run.
type DiversityCollector struct {
	mu sync.Mutex

	target    int
	artistCap int
	minYear   *int
	maxYear   *int

	seedIDs     map[string]struct{}
	seen        map[string]struct{}
	artistCount map[string]int
	titles      map[string]struct{}
	accepted    []client.TrackDetail
}

// NewDiversityCollector creates a collector for one run. Seed track ids are
// always rejected; min/max year bound candidate release years when set.
func NewDiversityCollector(target, artistCap int, seedIDs []string, minYear, maxYear *int) *DiversityCollector {
	seeds := make(map[string]struct{}, len(seedIDs))
	for _, id := range seedIDs {
		seeds[id] = struct{}{}
	}
	return &DiversityCollector{
		target:      target,
		artistCap:   artistCap,
		minYear:     minYear,
		maxYear:     maxYear,
		seedIDs:     seeds,
		seen:        make(map[string]struct{}),
		artistCount: make(map[string]int),
		titles:      make(map[string]struct{}),
	}
}

// TryAdd accepts or rejects a candidate. Rejection never mutates state.
func (d *DiversityCollector) TryAdd(candidate client.TrackDetail) bool {
	if candidate.ID == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.accepted) >= d.target {
		return false
	}
	if _, ok := d.seedIDs[candidate.ID]; ok {
		return false
	}
	if _, ok := d.seen[candidate.ID]; ok {
		return false
	}

	if candidate.ReleaseYear > 0 {
		if d.minYear != nil && candidate.ReleaseYear < *d.minYear {
			return false
		}
		if d.maxYear != nil && candidate.ReleaseYear > *d.maxYear {
			return false
		}
	}

	artistKey := strings.ToLower(candidate.PrimaryArtist())
	if candidate.PrimaryArtistName != "" {
		artistKey = strings.ToLower(candidate.PrimaryArtistName)
	}
	if artistKey != "" && d.artistCount[artistKey] >= d.artistCap {
		return false
	}

	titleKey := NormalizeTitle(candidate.Name)
	if _, ok := d.titles[titleKey]; ok {
		return false
	}

	d.seen[candidate.ID] = struct{}{}
	if artistKey != "" {
		d.artistCount[artistKey]++
	}
	d.titles[titleKey] = struct{}{}
	d.accepted = append(d.accepted, candidate)
	return true
}

// Full reports whether the target size has been reached.
func (d *DiversityCollector) Full() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.accepted) >= d.target
}

// Len returns the number of accepted tracks.
func (d *DiversityCollector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.accepted)
}

// Accepted returns a copy of the accepted tracks in acceptance order.
func (d *DiversityCollector) Accepted() []client.TrackDetail {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]client.TrackDetail, len(d.accepted))
	copy(out, d.accepted)
	return out
}

// NormalizeTitle folds a track title to its dedup key: the parenthetical
// suffix and any trailing " - ..." qualifier are stripped and the remainder
// case-folded, so "Song (Remix)" and "Song - Radio Edit" collide.
func NormalizeTitle(title string) string {
	if i := strings.Index(title, "("); i >= 0 {
		title = title[:i]
	}
	if i := strings.Index(title, " - "); i >= 0 {
		title = title[:i]
	}
	return strings.ToLower(strings.TrimSpace(title))
}
