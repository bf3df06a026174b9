package service

import (
	"context"
	"log"
	"strings"

	"github.com/playlistify/api/internal/client"
	"github.com/playlistify/api/internal/model"
)

// ProfileService derives the five-scalar audio profile of a seed-track set.
type ProfileService struct{}

// NewProfileService creates a new audio profile estimator
func NewProfileService() *ProfileService {
	return &ProfileService{}
}

// genreTempo maps a genre keyword to a typical BPM. Matched by substring
// against the lowercased joined genre string; order matters, first match wins.
type genreTempo struct {
	keyword string
	bpm     float64
}

var genreTempos = []genreTempo{
	{"drum and bass", 170},
	{"drum & bass", 170},
	{"dubstep", 140},
	{"trap", 140},
	{"trance", 138},
	{"techno", 130},
	{"house", 128},
	{"disco", 118},
	{"pop", 115},
	{"rock", 125},
	{"metal", 145},
	{"punk", 160},
	{"hip hop", 95},
	{"hip-hop", 95},
	{"rap", 95},
	{"r&b", 90},
	{"soul", 92},
	{"jazz", 110},
	{"folk", 100},
	{"acoustic", 105},
	{"classical", 90},
	{"ambient", 80},
	{"reggae", 75},
}

// FromSeeds fetches per-track audio features and averages them. When the
// provider call fails or returns no usable entries, the seed artists' genre
// tags are resolved and the profile falls back to genre heuristics with
// IsEstimated set.
func (s *ProfileService) FromSeeds(ctx context.Context, provider client.MusicProvider, seedIDs, artistIDs []string, filters *model.GenerateFilters) model.AudioProfile {
	features, err := provider.GetAudioFeatures(ctx, seedIDs)
	if err != nil {
		log.Printf("Warning: audio features lookup failed, estimating profile: %v", err)
		return s.estimateFromArtists(ctx, provider, artistIDs, filters)
	}

	var sum model.AudioProfile
	count := 0
	for _, f := range features {
		if f == nil {
			continue
		}
		sum.Danceability += f.Danceability
		sum.Energy += f.Energy
		sum.Valence += f.Valence
		sum.Tempo += f.Tempo
		sum.Acousticness += f.Acousticness
		count++
	}

	if count == 0 {
		return s.estimateFromArtists(ctx, provider, artistIDs, filters)
	}

	n := float64(count)
	return model.AudioProfile{
		Danceability: sum.Danceability / n,
		Energy:       sum.Energy / n,
		Valence:      sum.Valence / n,
		Tempo:        sum.Tempo / n,
		Acousticness: sum.Acousticness / n,
		IsEstimated:  false,
	}
}

// estimateFromArtists resolves genre tags for the seed artists and estimates
// the profile from them. Genres are only fetched on this path, so the happy
// path spends no extra provider call. A failed lookup degrades to the
// default-tempo estimate.
func (s *ProfileService) estimateFromArtists(ctx context.Context, provider client.MusicProvider, artistIDs []string, filters *model.GenerateFilters) model.AudioProfile {
	var genres []string
	if len(artistIDs) > 0 {
		var err error
		genres, err = provider.GetArtistGenres(ctx, artistIDs)
		if err != nil {
			log.Printf("Warning: artist genre lookup failed: %v", err)
			genres = nil
		}
	}
	return s.EstimateFromGenres(genres, filters)
}

// EstimateFromGenres builds a profile from genre keywords and caller targets.
// Pure and deterministic: the same genre input always yields the same BPM.
func (s *ProfileService) EstimateFromGenres(genres []string, filters *model.GenerateFilters) model.AudioProfile {
	profile := model.DefaultAudioProfile()
	profile.Tempo = estimateTempo(genres)
	return filters.Apply(profile)
}

func estimateTempo(genres []string) float64 {
	if len(genres) == 0 {
		return 120
	}
	joined := strings.ToLower(strings.Join(genres, " "))
	for _, gt := range genreTempos {
		if strings.Contains(joined, gt.keyword) {
			return gt.bpm
		}
	}
	return 120
}
