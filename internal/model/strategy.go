package model

// DiscoveryStrategy is the AI-suggested plan for finding candidate tracks
// when the native recommendation call is unavailable. Produced once per
// generation run and read-only afterward.
type DiscoveryStrategy struct {
	PrimaryGenres          []string `json:"primaryGenres"`
	RelatedGenres          []string `json:"relatedGenres"`
	SuggestedArtists       []string `json:"suggestedArtists"` // never seed artists
	SearchQueries          []string `json:"searchQueries"`
	TimeContext            string   `json:"timeContext,omitempty"`
	DiversityStrategy      string   `json:"diversityStrategy,omitempty"`
	ExcludedGenres         []string `json:"excludedGenres,omitempty"`
	MusicalCharacteristics string   `json:"musicalCharacteristics,omitempty"`
}

// Algorithm tags recorded on a generated playlist.
const (
	AlgorithmSpotifyRecommendations = "spotify-recommendations"
	AlgorithmAIEnhancedDiversity    = "ai-enhanced-diversity"
	AlgorithmArtistBackstop         = "artist-backstop"
)
