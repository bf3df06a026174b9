package model

import "time"

// GenerateRequest is the request body for playlist generation.
type GenerateRequest struct {
	SeedTracks []string         `json:"seedTracks" validate:"required,min=3,max=5,dive,min=1"`
	Filters    *GenerateFilters `json:"filters" validate:"omitempty"`
}

// GeneratedPlaylistResult is the complete outcome of one generation run.
// Everything in it is immutable once assembled.
type GeneratedPlaylistResult struct {
	SeedTracks        []Track            `json:"seedTracks"`
	GeneratedTracks   []Track            `json:"tracks"`
	AudioProfile      AudioProfile       `json:"audioFeatures"`
	DiscoveryStrategy *DiscoveryStrategy `json:"discoveryStrategy,omitempty"`
	Narrative         *PlaylistNarrative `json:"narrative,omitempty"`
	UsedFallback      bool               `json:"usedFallback"`
	Algorithm         string             `json:"algorithm"`
}

// GenerateResponse is what the generate endpoint returns: the run result
// plus the durable id the store assigned.
type GenerateResponse struct {
	PlaylistID string `json:"playlistId"`
	GeneratedPlaylistResult
}

// Playlist is the persisted form of a generation result.
type Playlist struct {
	ID                string                  `json:"id"`
	UserID            string                  `json:"userId"`
	Name              string                  `json:"name"`
	Description       string                  `json:"description,omitempty"`
	Result            GeneratedPlaylistResult `json:"result"`
	SpotifyPlaylistID string                  `json:"spotifyPlaylistId,omitempty"`
	CreatedAt         time.Time               `json:"createdAt"`
}

// PlaylistSummary is the compact listing shape for history pages.
type PlaylistSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	TrackCount   int       `json:"trackCount"`
	UsedFallback bool      `json:"usedFallback"`
	Algorithm    string    `json:"algorithm"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SaveToSpotifyRequest is the request body for pushing a stored playlist
// back to Spotify.
type SaveToSpotifyRequest struct {
	PlaylistID string `json:"playlistId" validate:"required"`
}

// SaveToSpotifyResponse reports the created Spotify playlist.
type SaveToSpotifyResponse struct {
	Success           bool   `json:"success"`
	SpotifyPlaylistID string `json:"spotifyPlaylistId"`
	SpotifyURL        string `json:"spotifyUrl,omitempty"`
	TrackCount        int    `json:"trackCount"`
}

// ExportResponse reports an uploaded playlist snapshot.
type ExportResponse struct {
	URL        string `json:"url"`
	Key        string `json:"key"`
	ExportedAt int64  `json:"exportedAt"`
}

// SearchResponse is the track-search endpoint payload.
type SearchResponse struct {
	Tracks []Track `json:"tracks"`
}

// AudioFeaturesRequest is the request body for the audio-features endpoint.
type AudioFeaturesRequest struct {
	TrackIDs []string `json:"trackIds" validate:"required,min=1,max=50,dive,min=1"`
}

// TrackWithFeatures pairs track details with measured features, which may be
// missing for some tracks.
type TrackWithFeatures struct {
	Track
	AudioFeatures *AudioFeatures `json:"audioFeatures"`
}

// AudioFeaturesResponse is the audio-features endpoint payload.
type AudioFeaturesResponse struct {
	Tracks []TrackWithFeatures `json:"tracks"`
}
