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

// NarrativeService produces the playlist's descriptive metadata from the
// final track list: name, mood, energy flow, emotional arc and per-track
// insights. It never fails; model errors fall back to a deterministic
// narrative derived from the audio profile.
type NarrativeService struct {
	ai client.ChatCompleter
}

// NewNarrativeService creates a new playlist narrator with an AI client
func NewNarrativeService(ai client.ChatCompleter) *NarrativeService {
	return &NarrativeService{ai: ai}
}

// Narrate builds the narrative for a finished track list. All track
// positions in the returned narrative are guaranteed to be within [1, N].
func (s *NarrativeService) Narrate(ctx context.Context, seeds []model.Track, profile model.AudioProfile, tracks []model.Track) *model.PlaylistNarrative {
	if len(tracks) == 0 {
		narrative := s.fallbackNarrative(seeds, profile, 0)
		return narrative
	}

	if s.ai == nil || !s.ai.IsConfigured() {
		return s.fallbackNarrative(seeds, profile, len(tracks))
	}

	response, err := s.ai.ChatCompletionJSON(ctx, narrativeSystemPrompt, s.buildNarrativePrompt(seeds, profile, tracks))
	if err != nil {
		log.Printf("Warning: narrative call failed, using fallback narrative: %v", err)
		return s.fallbackNarrative(seeds, profile, len(tracks))
	}

	narrative, err := s.parseNarrativeResponse(response, len(tracks))
	if err != nil {
		log.Printf("Warning: narrative response unusable: %v", err)
		return s.fallbackNarrative(seeds, profile, len(tracks))
	}

	return narrative
}

const narrativeSystemPrompt = `You are a world-class music curator who understands the psychology of music and creates compelling playlist narratives.
You never use generic playlist names and always think deeply about the listening experience.
Always output your response as valid JSON in the exact format requested.
Do not include any text outside the JSON structure.`

func (s *NarrativeService) buildNarrativePrompt(seeds []model.Track, profile model.AudioProfile, tracks []model.Track) string {
	var sb strings.Builder

	sb.WriteString("Create the narrative for this generated playlist.\n\nSEED TRACKS:\n")
	for i, seed := range seeds {
		fmt.Fprintf(&sb, "%d. %q by %s\n", i+1, seed.Name, seed.Artists)
	}

	fmt.Fprintf(&sb, "\nFINAL PLAYLIST (%d tracks, in order):\n", len(tracks))
	for i, track := range tracks {
		fmt.Fprintf(&sb, "%d. %q by %s\n", i+1, track.Name, track.Artists)
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

	fmt.Fprintf(&sb, `
Track positions in peaks, valleys and insights MUST be numbers between 1 and %d, referring to the playlist order above.

Respond in JSON format with:
{
  "playlistName": "Creative name (max 60 chars, no generic words like 'Mix' or 'Playlist')",
  "description": "Compelling description (max 150 chars) that makes someone want to listen",
  "mood": "One-word mood descriptor (e.g., 'Euphoric', 'Melancholic', 'Energetic')",
  "vibe": "2-3 word vibe (e.g., 'Late Night Drive', 'Summer Sunset', 'Gym Motivation')",
  "recommendedGenres": ["genre1", "genre2", "genre3"],
  "listeningContext": "When/where to listen (e.g., 'Perfect for evening workouts')",
  "emotionalJourney": "Brief description of the emotional arc",
  "reasoning": "Why these tracks work together (2-3 sentences)",
  "energyFlow": {
    "description": "How intensity moves across the playlist",
    "pattern": "e.g. 'building', 'wave', 'steady', 'cooldown'",
    "peaks": [3, 9],
    "valleys": [6, 14]
  },
  "emotionalArc": {
    "description": "How the mood develops track by track",
    "pattern": "e.g. 'ascent', 'release', 'circular'",
    "progression": "start mood -> middle mood -> end mood"
  },
  "insights": [
    {"trackNumber": 1, "insight": "Why this track opens the playlist", "icon": "sparkles"}
  ]
}`, len(tracks))

	return sb.String()
}

func (s *NarrativeService) parseNarrativeResponse(response string, trackCount int) (*model.PlaylistNarrative, error) {
	response = extractJSON(response)

	var narrative model.PlaylistNarrative
	if err := json.Unmarshal([]byte(response), &narrative); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}

	if narrative.PlaylistName == "" {
		return nil, fmt.Errorf("no playlist name in response")
	}
	if narrative.Description == "" {
		narrative.Description = "AI-generated playlist based on your music taste"
	}
	if narrative.Mood == "" {
		narrative.Mood = "Mixed"
	}
	if narrative.Vibe == "" {
		narrative.Vibe = "Chill Vibes"
	}
	if narrative.ListeningContext == "" {
		narrative.ListeningContext = "Anytime listening"
	}

	// Positions are untrusted; drop anything outside the real track range.
	narrative.ClampPositions(trackCount)

	if len(narrative.Insights) == 0 && trackCount >= 3 {
		narrative.Insights = defaultInsights(trackCount)
	}

	return &narrative, nil
}

// fallbackNarrative derives the narrative from the valence/energy quadrant,
// refined by danceability and acousticness. Deterministic; insights are
// anchored at track 3, the midpoint and N-2 whenever N >= 3.
func (s *NarrativeService) fallbackNarrative(seeds []model.Track, profile model.AudioProfile, trackCount int) *model.PlaylistNarrative {
	mood := "Balanced"
	vibe := "Chill Vibes"
	context := "Anytime listening"
	name := "Curated Mix"
	pattern := "steady"

	switch {
	case profile.Valence > 0.6 && profile.Energy > 0.6:
		mood = "Euphoric"
		vibe = "High Energy"
		context = "Perfect for workouts or parties"
		name = "Energy Boost"
		pattern = "building"
	case profile.Valence > 0.6 && profile.Energy < 0.4:
		mood = "Content"
		vibe = "Sunny Day"
		context = "Great for relaxed afternoons"
		name = "Sunshine Mix"
		pattern = "wave"
	case profile.Valence < 0.4 && profile.Energy > 0.6:
		mood = "Intense"
		vibe = "Raw Emotion"
		context = "When you need to feel something deep"
		name = "Emotional Release"
		pattern = "surge"
	case profile.Valence < 0.4 && profile.Energy < 0.4:
		mood = "Melancholic"
		vibe = "Introspective"
		context = "Late night contemplation"
		name = "Midnight Thoughts"
		pattern = "descent"
	}

	if profile.Danceability > 0.7 {
		vibe = "Dance Floor Ready"
		context = "Get moving to these beats"
	}
	if profile.Acousticness > 0.7 {
		vibe = "Unplugged " + mood
		pattern = "gentle wave"
	}

	journey := "A journey through sound"
	if len(seeds) > 0 {
		journey = fmt.Sprintf("From %s to new discoveries", seeds[0].Name)
	}

	narrative := &model.PlaylistNarrative{
		PlaylistName:      name,
		Description:       fmt.Sprintf("A %s collection based on your selections", strings.ToLower(mood)),
		Mood:              mood,
		Vibe:              vibe,
		RecommendedGenres: []string{},
		ListeningContext:  context,
		EmotionalJourney:  journey,
		Reasoning:         "Selected to match the energy and mood of your seed tracks",
		EnergyFlow: model.EnergyFlow{
			Description: fmt.Sprintf("%s energy throughout, shaped by your seeds", mood),
			Pattern:     pattern,
		},
		EmotionalArc: model.EmotionalArc{
			Description: fmt.Sprintf("The playlist holds a %s mood from start to finish", strings.ToLower(mood)),
			Pattern:     "steady",
			Progression: fmt.Sprintf("%s -> %s -> %s", mood, mood, mood),
		},
	}

	if trackCount >= 3 {
		narrative.EnergyFlow.Peaks = []int{3}
		narrative.EnergyFlow.Valleys = []int{trackCount - 2}
		narrative.Insights = defaultInsights(trackCount)
	}

	narrative.ClampPositions(trackCount)
	return narrative
}

// defaultInsights anchors annotations at track 3, the midpoint and N-2.
func defaultInsights(trackCount int) []model.TrackInsight {
	positions := []int{3, (trackCount + 1) / 2, trackCount - 2}
	texts := []string{
		"An early standout that sets the playlist's direction",
		"The heart of the playlist, where the theme settles in",
		"A late highlight before the wind-down",
	}
	icons := []string{"sparkles", "heart", "star"}

	seen := make(map[int]struct{}, len(positions))
	insights := make([]model.TrackInsight, 0, len(positions))
	for i, pos := range positions {
		if pos < 1 || pos > trackCount {
			continue
		}
		if _, dup := seen[pos]; dup {
			continue
		}
		seen[pos] = struct{}{}
		insights = append(insights, model.TrackInsight{
			TrackNumber: pos,
			Insight:     texts[i],
			Icon:        icons[i],
		})
	}
	return insights
}
