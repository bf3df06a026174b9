package service

import (
	"context"
	"errors"

	"github.com/playlistify/api/internal/client"
	"github.com/playlistify/api/internal/model"
)

var errNotMocked = errors.New("not mocked")

// mockProvider implements client.MusicProvider with per-call overrides.
// Calls without an override fail, so tests state exactly what they expect
// the pipeline to reach.
type mockProvider struct {
	getMe              func(ctx context.Context) (*client.SpotifyUser, error)
	getTracks          func(ctx context.Context, ids []string) ([]client.TrackDetail, error)
	getAudioFeatures   func(ctx context.Context, ids []string) ([]*model.AudioFeatures, error)
	searchTracks       func(ctx context.Context, query string, limit, offset int) ([]client.TrackDetail, error)
	searchArtist       func(ctx context.Context, name string) (*client.Artist, error)
	getArtistGenres    func(ctx context.Context, artistIDs []string) ([]string, error)
	getRecommendations func(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error)
	getArtistTopTracks func(ctx context.Context, artistID string) ([]client.TrackDetail, error)
	getRelatedArtists  func(ctx context.Context, artistID string) ([]client.Artist, error)
	createPlaylist     func(ctx context.Context, userID, name, description string) (*client.CreatedPlaylist, error)
	addTracks          func(ctx context.Context, playlistID string, uris []string) error
}

func (m *mockProvider) GetMe(ctx context.Context) (*client.SpotifyUser, error) {
	if m.getMe == nil {
		return nil, errNotMocked
	}
	return m.getMe(ctx)
}

func (m *mockProvider) GetTracks(ctx context.Context, ids []string) ([]client.TrackDetail, error) {
	if m.getTracks == nil {
		return nil, errNotMocked
	}
	return m.getTracks(ctx, ids)
}

func (m *mockProvider) GetAudioFeatures(ctx context.Context, ids []string) ([]*model.AudioFeatures, error) {
	if m.getAudioFeatures == nil {
		return nil, errNotMocked
	}
	return m.getAudioFeatures(ctx, ids)
}

func (m *mockProvider) SearchTracks(ctx context.Context, query string, limit, offset int) ([]client.TrackDetail, error) {
	if m.searchTracks == nil {
		return nil, errNotMocked
	}
	return m.searchTracks(ctx, query, limit, offset)
}

func (m *mockProvider) SearchArtist(ctx context.Context, name string) (*client.Artist, error) {
	if m.searchArtist == nil {
		return nil, errNotMocked
	}
	return m.searchArtist(ctx, name)
}

func (m *mockProvider) GetArtistGenres(ctx context.Context, artistIDs []string) ([]string, error) {
	if m.getArtistGenres == nil {
		return nil, errNotMocked
	}
	return m.getArtistGenres(ctx, artistIDs)
}

func (m *mockProvider) GetRecommendations(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
	if m.getRecommendations == nil {
		return nil, errNotMocked
	}
	return m.getRecommendations(ctx, seedIDs, profile, limit, minYear, maxYear)
}

func (m *mockProvider) GetArtistTopTracks(ctx context.Context, artistID string) ([]client.TrackDetail, error) {
	if m.getArtistTopTracks == nil {
		return nil, errNotMocked
	}
	return m.getArtistTopTracks(ctx, artistID)
}

func (m *mockProvider) GetRelatedArtists(ctx context.Context, artistID string) ([]client.Artist, error) {
	if m.getRelatedArtists == nil {
		return nil, errNotMocked
	}
	return m.getRelatedArtists(ctx, artistID)
}

func (m *mockProvider) CreatePlaylist(ctx context.Context, userID, name, description string) (*client.CreatedPlaylist, error) {
	if m.createPlaylist == nil {
		return nil, errNotMocked
	}
	return m.createPlaylist(ctx, userID, name, description)
}

func (m *mockProvider) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	if m.addTracks == nil {
		return errNotMocked
	}
	return m.addTracks(ctx, playlistID, uris)
}

// mockAI implements client.ChatCompleter with a canned response.
type mockAI struct {
	response   string
	err        error
	configured bool
}

func (m *mockAI) ChatCompletionJSON(ctx context.Context, system, user string) (string, error) {
	return m.response, m.err
}

func (m *mockAI) IsConfigured() bool {
	return m.configured
}

// td builds a track detail for tests.
func td(id, name, artist string, year int) client.TrackDetail {
	return client.TrackDetail{
		Track: model.Track{
			ID:      id,
			Name:    name,
			Artists: artist,
			URI:     "spotify:track:" + id,
		},
		PrimaryArtistID:   "artist-" + artist,
		PrimaryArtistName: artist,
		ReleaseYear:       year,
	}
}
