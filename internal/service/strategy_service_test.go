package service

import (
	"context"
	"errors"
	"testing"

	"github.com/playlistify/api/internal/client"
	"github.com/playlistify/api/internal/model"
)

func TestBuildStrategy_Unconfigured(t *testing.T) {
	svc := NewStrategyService(&mockAI{configured: false})

	strategy := svc.BuildStrategy(context.Background(), nil, model.DefaultAudioProfile())

	if strategy == nil {
		t.Fatal("strategy must never be nil")
	}
	if len(strategy.SearchQueries) == 0 {
		t.Error("fallback strategy must carry search queries")
	}
}

func TestBuildStrategy_ModelError(t *testing.T) {
	svc := NewStrategyService(&mockAI{configured: true, err: errors.New("model down")})

	strategy := svc.BuildStrategy(context.Background(), nil, model.DefaultAudioProfile())

	if strategy == nil || len(strategy.SearchQueries) == 0 {
		t.Fatal("model failure must yield the fallback strategy")
	}
}

func TestBuildStrategy_MalformedJSON(t *testing.T) {
	svc := NewStrategyService(&mockAI{configured: true, response: "this is not json"})

	strategy := svc.BuildStrategy(context.Background(), nil, model.DefaultAudioProfile())

	if strategy == nil || len(strategy.SearchQueries) == 0 {
		t.Fatal("unparseable response must yield the fallback strategy")
	}
}

func TestBuildStrategy_NoSearchQueries(t *testing.T) {
	svc := NewStrategyService(&mockAI{configured: true, response: `{"primaryGenres": ["rock"], "searchQueries": []}`})

	strategy := svc.BuildStrategy(context.Background(), nil, model.DefaultAudioProfile())

	if len(strategy.SearchQueries) == 0 {
		t.Fatal("strategy without queries must be replaced by the fallback")
	}
}

func TestBuildStrategy_FiltersSeedArtists(t *testing.T) {
	ai := &mockAI{configured: true, response: `{
		"primaryGenres": ["indie rock"],
		"suggestedArtists": ["Seed Band", "Fresh Act", "  ", "seed band"],
		"searchQueries": ["indie rock deep cuts", ""]
	}`}
	svc := NewStrategyService(ai)

	seeds := []client.TrackDetail{td("s1", "Seed Song", "Seed Band", 2020)}
	strategy := svc.BuildStrategy(context.Background(), seeds, model.DefaultAudioProfile())

	if len(strategy.SuggestedArtists) != 1 || strategy.SuggestedArtists[0] != "Fresh Act" {
		t.Errorf("suggested artists = %v, want only Fresh Act", strategy.SuggestedArtists)
	}
	if len(strategy.SearchQueries) != 1 {
		t.Errorf("search queries = %v, want empty strings dropped", strategy.SearchQueries)
	}
}

func TestFallbackStrategy_Thresholds(t *testing.T) {
	svc := NewStrategyService(nil)

	cases := []struct {
		name    string
		profile model.AudioProfile
		genre   string
	}{
		{"quiet acoustic", model.AudioProfile{Energy: 0.2, Acousticness: 0.8}, "indie folk"},
		{"danceable", model.AudioProfile{Energy: 0.8, Danceability: 0.7}, "dance"},
		{"loud", model.AudioProfile{Energy: 0.8, Danceability: 0.3}, "rock"},
		{"sad", model.AudioProfile{Energy: 0.5, Valence: 0.2}, "indie"},
		{"neutral", model.AudioProfile{Energy: 0.5, Valence: 0.5}, "indie pop"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			strategy := svc.BuildStrategy(context.Background(), nil, tc.profile)
			if len(strategy.PrimaryGenres) == 0 || strategy.PrimaryGenres[0] != tc.genre {
				t.Errorf("primary genres = %v, want first %q", strategy.PrimaryGenres, tc.genre)
			}
			if len(strategy.SearchQueries) == 0 {
				t.Error("fallback must carry search queries")
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"Here you go:\n```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no braces at all", "no braces at all"},
	}
	for _, tc := range cases {
		if got := extractJSON(tc.in); got != tc.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
