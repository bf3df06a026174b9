package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/playlistify/api/internal/client"
	"github.com/playlistify/api/internal/config"
	"github.com/playlistify/api/internal/model"
)

func testGeneratorConfig() config.GeneratorConfig {
	return config.GeneratorConfig{
		TargetSize:     20,
		ArtistCap:      2,
		MinViableSize:  10,
		PerArtistTake:  2,
		SearchSkip:     2,
		SearchTake:     10,
		RelatedArtists: 3,
	}
}

func newTestGenerateService(seed int64) *GenerateService {
	svc := NewGenerateService(
		NewProfileService(),
		NewStrategyService(&mockAI{}),
		NewNarrativeService(&mockAI{}),
		testGeneratorConfig(),
	)
	svc.newRand = func() *rand.Rand {
		return rand.New(rand.NewSource(seed))
	}
	return svc
}

func seedDetails() []client.TrackDetail {
	return []client.TrackDetail{
		td("s1", "Seed One", "Seed Artist A", 2019),
		td("s2", "Seed Two", "Seed Artist B", 2020),
		td("s3", "Seed Three", "Seed Artist C", 2021),
	}
}

func seedRequest() *model.GenerateRequest {
	return &model.GenerateRequest{SeedTracks: []string{"s1", "s2", "s3"}}
}

// uniqueTracks produces n candidates with distinct artists and titles.
func uniqueTracks(prefix string, n, year int) []client.TrackDetail {
	out := make([]client.TrackDetail, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, td(
			fmt.Sprintf("%s-%d", prefix, i),
			fmt.Sprintf("%s Title %d", prefix, i),
			fmt.Sprintf("%s Artist %d", prefix, i),
			year,
		))
	}
	return out
}

func neutralFeatures(ctx context.Context, ids []string) ([]*model.AudioFeatures, error) {
	out := make([]*model.AudioFeatures, len(ids))
	for i := range out {
		out[i] = &model.AudioFeatures{Danceability: 0.5, Energy: 0.5, Valence: 0.5, Tempo: 120, Acousticness: 0.5}
	}
	return out, nil
}

func TestGenerate_SeedCountValidation(t *testing.T) {
	svc := newTestGenerateService(1)

	_, err := svc.Generate(context.Background(), &mockProvider{}, &model.GenerateRequest{SeedTracks: []string{"a", "b"}}, nil)
	if err == nil {
		t.Fatal("expected error for 2 seeds")
	}

	_, err = svc.Generate(context.Background(), &mockProvider{}, &model.GenerateRequest{SeedTracks: []string{"a", "b", "c", "d", "e", "f"}}, nil)
	if err == nil {
		t.Fatal("expected error for 6 seeds")
	}
}

func TestGenerate_PrimarySuccess(t *testing.T) {
	recs := uniqueTracks("rec", 20, 2021)
	provider := &mockProvider{
		getTracks:        func(ctx context.Context, ids []string) ([]client.TrackDetail, error) { return seedDetails(), nil },
		getAudioFeatures: neutralFeatures,
		getRecommendations: func(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
			return recs, nil
		},
	}

	svc := newTestGenerateService(1)
	result, err := svc.Generate(context.Background(), provider, seedRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.UsedFallback {
		t.Error("primary success must not set usedFallback")
	}
	if result.Algorithm != model.AlgorithmSpotifyRecommendations {
		t.Errorf("algorithm = %q", result.Algorithm)
	}
	if result.DiscoveryStrategy != nil {
		t.Error("primary path must not attach a discovery strategy")
	}
	if len(result.GeneratedTracks) != 20 {
		t.Fatalf("got %d tracks, want 20", len(result.GeneratedTracks))
	}
	// Provider order is preserved: no shuffle on the primary path.
	for i, track := range result.GeneratedTracks {
		if track.ID != recs[i].ID {
			t.Fatalf("track %d = %s, want %s (order changed)", i, track.ID, recs[i].ID)
		}
	}
	if result.Narrative == nil {
		t.Error("narrative missing")
	}
	if result.AudioProfile.IsEstimated {
		t.Error("measured features should not yield an estimated profile")
	}
}

func TestGenerate_FallbackViaSearch(t *testing.T) {
	provider := &mockProvider{
		getTracks:        func(ctx context.Context, ids []string) ([]client.TrackDetail, error) { return seedDetails(), nil },
		getAudioFeatures: neutralFeatures,
		getRecommendations: func(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
			return nil, errors.New("recommendations gone")
		},
		searchTracks: func(ctx context.Context, query string, limit, offset int) ([]client.TrackDetail, error) {
			return uniqueTracks("search-"+query[:4], 12, 2021), nil
		},
	}

	svc := newTestGenerateService(1)
	result, err := svc.Generate(context.Background(), provider, seedRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.UsedFallback {
		t.Error("fallback path must set usedFallback")
	}
	if result.Algorithm != model.AlgorithmAIEnhancedDiversity {
		t.Errorf("algorithm = %q, want %q", result.Algorithm, model.AlgorithmAIEnhancedDiversity)
	}
	if result.DiscoveryStrategy == nil {
		t.Error("fallback path must attach the discovery strategy")
	}
	if len(result.GeneratedTracks) != 20 {
		t.Errorf("got %d tracks, want 20", len(result.GeneratedTracks))
	}
}

func TestGenerate_FallbackShuffleIsSeeded(t *testing.T) {
	makeProvider := func() *mockProvider {
		return &mockProvider{
			getTracks:        func(ctx context.Context, ids []string) ([]client.TrackDetail, error) { return seedDetails(), nil },
			getAudioFeatures: neutralFeatures,
			getRecommendations: func(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
				return nil, errors.New("down")
			},
			searchTracks: func(ctx context.Context, query string, limit, offset int) ([]client.TrackDetail, error) {
				return uniqueTracks("q", 30, 2021), nil
			},
		}
	}

	first, err := newTestGenerateService(42).Generate(context.Background(), makeProvider(), seedRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := newTestGenerateService(42).Generate(context.Background(), makeProvider(), seedRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.GeneratedTracks) != len(second.GeneratedTracks) {
		t.Fatal("runs with the same source must agree")
	}
	for i := range first.GeneratedTracks {
		if first.GeneratedTracks[i].ID != second.GeneratedTracks[i].ID {
			t.Fatalf("track %d differs between identical runs", i)
		}
	}
}

func TestGenerate_PadsWithSeeds(t *testing.T) {
	provider := &mockProvider{
		getTracks:        func(ctx context.Context, ids []string) ([]client.TrackDetail, error) { return seedDetails(), nil },
		getAudioFeatures: neutralFeatures,
		getRecommendations: func(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
			return nil, errors.New("down")
		},
		searchTracks: func(ctx context.Context, query string, limit, offset int) ([]client.TrackDetail, error) {
			return nil, errors.New("search down")
		},
		getRelatedArtists: func(ctx context.Context, artistID string) ([]client.Artist, error) {
			return nil, errors.New("related down")
		},
		getArtistTopTracks: func(ctx context.Context, artistID string) ([]client.TrackDetail, error) {
			return nil, errors.New("top tracks down")
		},
	}

	svc := newTestGenerateService(1)
	result, err := svc.Generate(context.Background(), provider, seedRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.GeneratedTracks) != 3 {
		t.Fatalf("got %d tracks, want the 3 seeds as padding", len(result.GeneratedTracks))
	}
	for _, track := range result.GeneratedTracks {
		if !strings.HasPrefix(track.ID, "s") {
			t.Errorf("unexpected non-seed track %s", track.ID)
		}
	}
	if result.Algorithm != model.AlgorithmArtistBackstop {
		t.Errorf("algorithm = %q, want %q", result.Algorithm, model.AlgorithmArtistBackstop)
	}
}

func TestGenerate_PipelineExhausted(t *testing.T) {
	provider := &mockProvider{
		getTracks: func(ctx context.Context, ids []string) ([]client.TrackDetail, error) {
			return nil, errors.New("tracks down")
		},
		getAudioFeatures: func(ctx context.Context, ids []string) ([]*model.AudioFeatures, error) {
			return nil, errors.New("features down")
		},
		getRecommendations: func(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
			return nil, errors.New("down")
		},
		searchTracks: func(ctx context.Context, query string, limit, offset int) ([]client.TrackDetail, error) {
			return nil, errors.New("search down")
		},
	}

	svc := newTestGenerateService(1)
	_, err := svc.Generate(context.Background(), provider, seedRequest(), nil)
	if !errors.Is(err, ErrPipelineExhausted) {
		t.Fatalf("err = %v, want ErrPipelineExhausted", err)
	}
}

func TestGenerate_YearFilterOnFallback(t *testing.T) {
	provider := &mockProvider{
		getTracks:        func(ctx context.Context, ids []string) ([]client.TrackDetail, error) { return seedDetails(), nil },
		getAudioFeatures: neutralFeatures,
		getRecommendations: func(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
			return nil, errors.New("down")
		},
		searchTracks: func(ctx context.Context, query string, limit, offset int) ([]client.TrackDetail, error) {
			mixed := uniqueTracks("old", 6, 1990)
			return append(mixed, uniqueTracks("new", 6, 2005)...), nil
		},
	}

	minYear := 2000
	req := seedRequest()
	req.Filters = &model.GenerateFilters{MinYear: &minYear}

	svc := newTestGenerateService(1)
	result, err := svc.Generate(context.Background(), provider, req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, track := range result.GeneratedTracks {
		if strings.HasPrefix(track.ID, "old-") {
			t.Errorf("track %s violates the year filter", track.ID)
		}
	}
}

func TestGenerate_EstimatesTempoFromArtistGenres(t *testing.T) {
	provider := &mockProvider{
		getTracks: func(ctx context.Context, ids []string) ([]client.TrackDetail, error) { return seedDetails(), nil },
		getAudioFeatures: func(ctx context.Context, ids []string) ([]*model.AudioFeatures, error) {
			return nil, errors.New("features down")
		},
		getArtistGenres: func(ctx context.Context, artistIDs []string) ([]string, error) {
			if len(artistIDs) != 3 {
				t.Errorf("genre lookup got %d artist ids, want the 3 seed artists", len(artistIDs))
			}
			return []string{"detroit techno"}, nil
		},
		getRecommendations: func(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
			return uniqueTracks("rec", 20, 2021), nil
		},
	}

	svc := newTestGenerateService(1)
	result, err := svc.Generate(context.Background(), provider, seedRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.AudioProfile.IsEstimated {
		t.Error("profile without measured features should be estimated")
	}
	if result.AudioProfile.Tempo != 130 {
		t.Errorf("tempo = %v, want 130 from the seed artists' techno genre", result.AudioProfile.Tempo)
	}
}

func TestGenerate_SuggestedArtistDiscovery(t *testing.T) {
	strategyAI := &mockAI{configured: true, response: `{
		"primaryGenres": ["synthwave"],
		"suggestedArtists": ["Nova Pulse", "Gray Harbor"],
		"searchQueries": ["synthwave deep cuts"]
	}`}
	svc := NewGenerateService(
		NewProfileService(),
		NewStrategyService(strategyAI),
		NewNarrativeService(&mockAI{}),
		testGeneratorConfig(),
	)
	svc.newRand = func() *rand.Rand {
		return rand.New(rand.NewSource(7))
	}

	provider := &mockProvider{
		getTracks:        func(ctx context.Context, ids []string) ([]client.TrackDetail, error) { return seedDetails(), nil },
		getAudioFeatures: neutralFeatures,
		getRecommendations: func(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
			return nil, errors.New("down")
		},
		searchArtist: func(ctx context.Context, name string) (*client.Artist, error) {
			return &client.Artist{ID: "artist-" + name, Name: name}, nil
		},
		getArtistTopTracks: func(ctx context.Context, artistID string) ([]client.TrackDetail, error) {
			name := strings.TrimPrefix(artistID, "artist-")
			out := make([]client.TrackDetail, 0, 5)
			for i := 0; i < 5; i++ {
				out = append(out, td(fmt.Sprintf("%s-%d", artistID, i), fmt.Sprintf("%s Song %d", name, i), name, 2022))
			}
			return out, nil
		},
		searchTracks: func(ctx context.Context, query string, limit, offset int) ([]client.TrackDetail, error) {
			return uniqueTracks("cut", 30, 2022), nil
		},
	}

	result, err := svc.Generate(context.Background(), provider, seedRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.UsedFallback {
		t.Error("fallback path must set usedFallback")
	}
	if result.Algorithm != model.AlgorithmAIEnhancedDiversity {
		t.Errorf("algorithm = %q, want %q", result.Algorithm, model.AlgorithmAIEnhancedDiversity)
	}
	if len(result.GeneratedTracks) != 20 {
		t.Fatalf("got %d tracks, want 20", len(result.GeneratedTracks))
	}

	counts := make(map[string]int)
	for _, track := range result.GeneratedTracks {
		counts[track.Artists]++
	}
	if counts["Nova Pulse"] != 2 {
		t.Errorf("Nova Pulse contributed %d tracks, want exactly 2 per artist", counts["Nova Pulse"])
	}
	if counts["Gray Harbor"] != 2 {
		t.Errorf("Gray Harbor contributed %d tracks, want exactly 2 per artist", counts["Gray Harbor"])
	}

	if result.DiscoveryStrategy == nil {
		t.Fatal("fallback path must attach the discovery strategy")
	}
	if len(result.DiscoveryStrategy.SuggestedArtists) != 2 {
		t.Errorf("suggested artists = %v, want the advisor's two", result.DiscoveryStrategy.SuggestedArtists)
	}
}

func TestGenerate_PrimaryFilteredOutFallsBack(t *testing.T) {
	provider := &mockProvider{
		getTracks:        func(ctx context.Context, ids []string) ([]client.TrackDetail, error) { return seedDetails(), nil },
		getAudioFeatures: neutralFeatures,
		getRecommendations: func(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
			return uniqueTracks("old", 20, 1995), nil
		},
		searchTracks: func(ctx context.Context, query string, limit, offset int) ([]client.TrackDetail, error) {
			return uniqueTracks("new", 25, 2010), nil
		},
	}

	minYear := 2000
	req := seedRequest()
	req.Filters = &model.GenerateFilters{MinYear: &minYear}

	svc := newTestGenerateService(1)
	result, err := svc.Generate(context.Background(), provider, req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.UsedFallback {
		t.Error("a fully filtered primary response must enter the fallback pipeline")
	}
	if len(result.GeneratedTracks) != 20 {
		t.Errorf("got %d tracks, want 20 from the fallback search", len(result.GeneratedTracks))
	}
	for _, track := range result.GeneratedTracks {
		if strings.HasPrefix(track.ID, "old-") {
			t.Errorf("track %s violates the year filter", track.ID)
		}
	}
}

func TestGenerate_ReportsProgress(t *testing.T) {
	provider := &mockProvider{
		getTracks:        func(ctx context.Context, ids []string) ([]client.TrackDetail, error) { return seedDetails(), nil },
		getAudioFeatures: neutralFeatures,
		getRecommendations: func(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
			return uniqueTracks("rec", 20, 2021), nil
		},
	}

	var percents []int
	svc := newTestGenerateService(1)
	_, err := svc.Generate(context.Background(), provider, seedRequest(), func(progress int, step string) {
		percents = append(percents, progress)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(percents) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("progress regressed: %v", percents)
		}
	}
}
