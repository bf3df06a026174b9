package model

// PlaylistNarrative is the descriptive metadata the AI produces for a
// finished track list.
type PlaylistNarrative struct {
	PlaylistName      string         `json:"playlistName"`
	Description       string         `json:"description"`
	Mood              string         `json:"mood"`
	Vibe              string         `json:"vibe"`
	RecommendedGenres []string       `json:"recommendedGenres"`
	ListeningContext  string         `json:"listeningContext"`
	EmotionalJourney  string         `json:"emotionalJourney"`
	Reasoning         string         `json:"reasoning"`
	EnergyFlow        EnergyFlow     `json:"energyFlow"`
	EmotionalArc      EmotionalArc   `json:"emotionalArc"`
	Insights          []TrackInsight `json:"insights"`
}

// EnergyFlow describes how intensity moves across the playlist. Peaks and
// valleys are 1-based track positions.
type EnergyFlow struct {
	Description string `json:"description"`
	Pattern     string `json:"pattern"`
	Peaks       []int  `json:"peaks"`
	Valleys     []int  `json:"valleys"`
}

// EmotionalArc describes the mood progression across the playlist.
type EmotionalArc struct {
	Description string `json:"description"`
	Pattern     string `json:"pattern"`
	Progression string `json:"progression"`
}

// TrackInsight is a short annotation anchored to one track position.
type TrackInsight struct {
	TrackNumber int    `json:"trackNumber"`
	Insight     string `json:"insight"`
	Icon        string `json:"icon,omitempty"`
}

// ClampPositions drops every peak, valley and insight whose track position
// falls outside [1, trackCount]. The model is not trusted to respect the
// playlist length, so this runs before a narrative is returned or persisted.
func (n *PlaylistNarrative) ClampPositions(trackCount int) {
	n.EnergyFlow.Peaks = keepInRange(n.EnergyFlow.Peaks, trackCount)
	n.EnergyFlow.Valleys = keepInRange(n.EnergyFlow.Valleys, trackCount)

	insights := n.Insights[:0]
	for _, ins := range n.Insights {
		if ins.TrackNumber >= 1 && ins.TrackNumber <= trackCount {
			insights = append(insights, ins)
		}
	}
	n.Insights = insights
}

func keepInRange(positions []int, max int) []int {
	kept := positions[:0]
	for _, p := range positions {
		if p >= 1 && p <= max {
			kept = append(kept, p)
		}
	}
	return kept
}
