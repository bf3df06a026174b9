package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/playlistify/api/internal/client"
	"github.com/playlistify/api/internal/model"
)

// StrategyService asks the AI to translate a seed set's audio profile into a
// structured discovery strategy for the fallback pipeline. It never fails:
// any model or parse error yields a deterministic threshold-based strategy.
type StrategyService struct {
	ai client.ChatCompleter
}

// NewStrategyService creates a new strategy advisor with an AI client
func NewStrategyService(ai client.ChatCompleter) *StrategyService {
	return &StrategyService{ai: ai}
}

// BuildStrategy produces the discovery strategy for one generation run.
func (s *StrategyService) BuildStrategy(ctx context.Context, seeds []client.TrackDetail, profile model.AudioProfile) *model.DiscoveryStrategy {
	if s.ai == nil || !s.ai.IsConfigured() {
		return s.fallbackStrategy(profile)
	}

	response, err := s.ai.ChatCompletionJSON(ctx, strategySystemPrompt, s.buildStrategyPrompt(seeds, profile))
	if err != nil {
		log.Printf("Warning: strategy advisor call failed, using threshold fallback: %v", err)
		return s.fallbackStrategy(profile)
	}

	strategy, err := s.parseStrategyResponse(response, seeds)
	if err != nil {
		log.Printf("Warning: strategy advisor returned unusable output: %v", err)
		return s.fallbackStrategy(profile)
	}

	return strategy
}

const strategySystemPrompt = `You are a music discovery expert with deep knowledge of artists, genres and scenes.
You design search strategies for finding tracks that fit an audio profile without drifting across genres.
Always output your response as valid JSON in the exact format requested.
Do not include any text outside the JSON structure.`

func (s *StrategyService) buildStrategyPrompt(seeds []client.TrackDetail, profile model.AudioProfile) string {
	var sb strings.Builder

	sb.WriteString("Design a track discovery strategy for a playlist seeded with these tracks:\n\nSEED TRACKS:\n")
	for i, seed := range seeds {
		fmt.Fprintf(&sb, "%d. %q by %s\n", i+1, seed.Name, seed.Artists)
	}

	fmt.Fprintf(&sb, `
AUDIO ANALYSIS:
- Energy Level: %.0f%% %s
- Danceability: %.0f%% %s
- Mood (Valence): %.0f%% %s
- Tempo: %.0f BPM %s
- Acousticness: %.0f%% %s
`,
		profile.Energy*100, describeEnergy(profile.Energy),
		profile.Danceability*100, describeDanceability(profile.Danceability),
		profile.Valence*100, describeValence(profile.Valence),
		profile.Tempo, describeTempo(profile.Tempo),
		profile.Acousticness*100, describeAcousticness(profile.Acousticness))

	sb.WriteString(`
RULES:
1. Stay inside the seed tracks' musical territory - do not mix in unrelated genres.
2. Suggested artists must be DIFFERENT from the seed artists, but stylistically close.
3. Search queries should surface deeper cuts, not chart hits.

Respond in JSON format with:
{
  "primaryGenres": ["genre1", "genre2"],
  "relatedGenres": ["genre3", "genre4"],
  "suggestedArtists": ["artist1", "artist2", "artist3", "artist4", "artist5"],
  "searchQueries": ["query1", "query2", "query3"],
  "timeContext": "era or scene this music belongs to",
  "diversityStrategy": "one sentence on how to keep the playlist varied",
  "excludedGenres": ["genres to avoid"],
  "musicalCharacteristics": "shared sonic traits of the seeds"
}`)

	return sb.String()
}

func (s *StrategyService) parseStrategyResponse(response string, seeds []client.TrackDetail) (*model.DiscoveryStrategy, error) {
	response = extractJSON(response)

	var strategy model.DiscoveryStrategy
	if err := json.Unmarshal([]byte(response), &strategy); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}

	// The model is untrusted input: drop seed artists it suggested anyway
	// and empty strings in every list.
	seedArtists := make(map[string]struct{}, len(seeds))
	for _, seed := range seeds {
		seedArtists[strings.ToLower(seed.PrimaryArtistName)] = struct{}{}
	}

	artists := strategy.SuggestedArtists[:0]
	for _, name := range strategy.SuggestedArtists {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, isSeed := seedArtists[strings.ToLower(name)]; isSeed {
			continue
		}
		artists = append(artists, name)
	}
	strategy.SuggestedArtists = artists
	strategy.PrimaryGenres = compactStrings(strategy.PrimaryGenres)
	strategy.RelatedGenres = compactStrings(strategy.RelatedGenres)
	strategy.SearchQueries = compactStrings(strategy.SearchQueries)

	// Downstream strategies depend on search queries being present.
	if len(strategy.SearchQueries) == 0 {
		return nil, fmt.Errorf("no search queries in response")
	}

	return &strategy, nil
}

// fallbackStrategy maps the audio profile onto a small set of genre buckets.
// Deterministic, and always yields non-empty search queries.
func (s *StrategyService) fallbackStrategy(profile model.AudioProfile) *model.DiscoveryStrategy {
	var genres []string
	var queries []string

	switch {
	case profile.Energy < 0.4 && profile.Acousticness > 0.6:
		genres = []string{"indie folk", "acoustic", "singer-songwriter"}
		queries = []string{"indie folk acoustic", "quiet singer-songwriter", "mellow acoustic"}
	case profile.Energy > 0.7 && profile.Danceability > 0.6:
		genres = []string{"dance", "electronic", "house"}
		queries = []string{"dance floor electronic", "upbeat house", "party anthems"}
	case profile.Energy > 0.7:
		genres = []string{"rock", "alternative rock"}
		queries = []string{"high energy rock", "alternative anthems", "driving guitar"}
	case profile.Valence < 0.4:
		genres = []string{"indie", "alternative", "dream pop"}
		queries = []string{"melancholic indie", "moody alternative", "late night dream pop"}
	default:
		genres = []string{"indie pop", "alternative"}
		queries = []string{"indie pop", "alternative favorites", "feel good indie"}
	}

	return &model.DiscoveryStrategy{
		PrimaryGenres:     genres,
		RelatedGenres:     nil,
		SuggestedArtists:  nil,
		SearchQueries:     queries,
		TimeContext:       "contemporary",
		DiversityStrategy: "Spread selections across the matched genres and avoid repeating artists.",
	}
}

func compactStrings(values []string) []string {
	out := values[:0]
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// extractJSON attempts to extract JSON from a response that may contain extra text
func extractJSON(s string) string {
	// Find the first { and last }
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")

	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}
	return s
}
