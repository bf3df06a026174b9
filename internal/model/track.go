package model

// Track is a Spotify track in the shape the frontend consumes. Seed tracks
// and generated candidates share it.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artists    string `json:"artists"` // display string, names joined with ", "
	Album      string `json:"album"`
	Image      string `json:"image,omitempty"`
	URI        string `json:"uri"`
	DurationMs int    `json:"duration_ms"`
}

// PrimaryArtist returns the first artist of the display string.
func (t Track) PrimaryArtist() string {
	for i := 0; i < len(t.Artists); i++ {
		if t.Artists[i] == ',' {
			return t.Artists[:i]
		}
	}
	return t.Artists
}

// AudioFeatures is the full per-track feature vector Spotify reports.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Key              int     `json:"key"`
	Loudness         float64 `json:"loudness"`
	Mode             int     `json:"mode"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
}

// AudioProfile is the five-scalar summary of a seed-track set. IsEstimated
// is true when the profile came from genre heuristics rather than measured
// features, and must survive through to the persisted playlist.
type AudioProfile struct {
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Tempo        float64 `json:"tempo"` // BPM
	Acousticness float64 `json:"acousticness"`
	IsEstimated  bool    `json:"isEstimated"`
}

// DefaultAudioProfile is the neutral profile used when no features could be
// measured or estimated.
func DefaultAudioProfile() AudioProfile {
	return AudioProfile{
		Danceability: 0.5,
		Energy:       0.5,
		Valence:      0.5,
		Tempo:        120,
		Acousticness: 0.5,
		IsEstimated:  true,
	}
}

// GenerateFilters are optional caller overrides for the recommendation call
// and the fallback pipeline.
type GenerateFilters struct {
	TargetDanceability *float64 `json:"targetDanceability" validate:"omitempty,gte=0,lte=1"`
	TargetEnergy       *float64 `json:"targetEnergy" validate:"omitempty,gte=0,lte=1"`
	TargetValence      *float64 `json:"targetValence" validate:"omitempty,gte=0,lte=1"`
	TargetTempo        *float64 `json:"targetTempo" validate:"omitempty,gte=40,lte=250"`
	TargetAcousticness *float64 `json:"targetAcousticness" validate:"omitempty,gte=0,lte=1"`
	MinYear            *int     `json:"minYear" validate:"omitempty,gte=1900,lte=2100"`
	MaxYear            *int     `json:"maxYear" validate:"omitempty,gte=1900,lte=2100"`
	Limit              int      `json:"limit" validate:"omitempty,gte=1,lte=50"`
}

// Apply overlays the caller's target values on a computed profile.
func (f *GenerateFilters) Apply(profile AudioProfile) AudioProfile {
	if f == nil {
		return profile
	}
	if f.TargetDanceability != nil {
		profile.Danceability = *f.TargetDanceability
	}
	if f.TargetEnergy != nil {
		profile.Energy = *f.TargetEnergy
	}
	if f.TargetValence != nil {
		profile.Valence = *f.TargetValence
	}
	if f.TargetTempo != nil {
		profile.Tempo = *f.TargetTempo
	}
	if f.TargetAcousticness != nil {
		profile.Acousticness = *f.TargetAcousticness
	}
	return profile
}
