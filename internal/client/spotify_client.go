package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/playlistify/api/internal/config"
	"github.com/playlistify/api/internal/model"
)

// MusicProvider defines the catalog operations the generation pipeline
// depends on. Every method may fail with a generic provider error; callers
// must not distinguish error subtypes beyond succeeded/failed.
type MusicProvider interface {
	GetMe(ctx context.Context) (*SpotifyUser, error)
	GetTracks(ctx context.Context, ids []string) ([]TrackDetail, error)
	GetAudioFeatures(ctx context.Context, ids []string) ([]*model.AudioFeatures, error)
	SearchTracks(ctx context.Context, query string, limit, offset int) ([]TrackDetail, error)
	SearchArtist(ctx context.Context, name string) (*Artist, error)
	GetArtistGenres(ctx context.Context, artistIDs []string) ([]string, error)
	GetRecommendations(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]TrackDetail, error)
	GetArtistTopTracks(ctx context.Context, artistID string) ([]TrackDetail, error)
	GetRelatedArtists(ctx context.Context, artistID string) ([]Artist, error)
	CreatePlaylist(ctx context.Context, userID, name, description string) (*CreatedPlaylist, error)
	AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) error
}

// TrackDetail is a catalog track plus the fields the pipeline needs beyond
// the frontend shape: the primary artist identity and the release year.
type TrackDetail struct {
	model.Track
	PrimaryArtistID   string
	PrimaryArtistName string
	ReleaseYear       int
}

// Artist is a catalog artist reference.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyUser is the authenticated user's profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// CreatedPlaylist reports a playlist created on Spotify.
type CreatedPlaylist struct {
	ID  string
	URL string
}

// SpotifyAPI holds the shared, token-free pieces of the Spotify Web API
// client. WithToken derives a per-request client from it; request tokens are
// never stored on shared state, so concurrent users stay isolated.
type SpotifyAPI struct {
	httpClient *http.Client
	baseURL    string
	market     string
}

// NewSpotifyAPI creates the shared Spotify Web API factory.
func NewSpotifyAPI(cfg *config.SpotifyConfig) *SpotifyAPI {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SpotifyAPI{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		market:     cfg.Market,
	}
}

// WithToken returns a client bound to one caller's access token.
func (a *SpotifyAPI) WithToken(accessToken string) *SpotifyClient {
	return &SpotifyClient{api: a, accessToken: accessToken}
}

// SpotifyClient implements MusicProvider for one request's access token.
type SpotifyClient struct {
	api         *SpotifyAPI
	accessToken string
}

// Wire shapes. Only the fields the pipeline reads are declared.

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name        string         `json:"name"`
	Images      []spotifyImage `json:"images"`
	ReleaseDate string         `json:"release_date"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	URI        string          `json:"uri"`
	DurationMs int             `json:"duration_ms"`
}

func (t *spotifyTrack) toDetail() TrackDetail {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	detail := TrackDetail{
		Track: model.Track{
			ID:         t.ID,
			Name:       t.Name,
			Artists:    strings.Join(names, ", "),
			Album:      t.Album.Name,
			URI:        t.URI,
			DurationMs: t.DurationMs,
		},
	}
	if len(t.Album.Images) > 0 {
		detail.Image = t.Album.Images[0].URL
	}
	if len(t.Artists) > 0 {
		detail.PrimaryArtistID = t.Artists[0].ID
		detail.PrimaryArtistName = t.Artists[0].Name
	}
	if len(t.Album.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(t.Album.ReleaseDate[:4]); err == nil {
			detail.ReleaseYear = year
		}
	}
	return detail
}

func toDetails(tracks []spotifyTrack) []TrackDetail {
	details := make([]TrackDetail, 0, len(tracks))
	for i := range tracks {
		if tracks[i].ID == "" {
			continue
		}
		details = append(details, tracks[i].toDetail())
	}
	return details
}

// get performs an authenticated GET and decodes the response into out.
func (c *SpotifyClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.api.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

// post performs an authenticated POST with a JSON body.
func (c *SpotifyClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.api.baseURL+path, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *SpotifyClient) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.api.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spotify API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// GetMe returns the profile of the token's user.
func (c *SpotifyClient) GetMe(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := c.get(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetTracks looks up full track objects by id.
func (c *SpotifyClient) GetTracks(ctx context.Context, ids []string) ([]TrackDetail, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))

	var result struct {
		Tracks []spotifyTrack `json:"tracks"`
	}
	if err := c.get(ctx, "/tracks", query, &result); err != nil {
		return nil, err
	}
	return toDetails(result.Tracks), nil
}

// GetAudioFeatures returns per-track features. Entries come back nil when
// Spotify has no analysis for a track; callers skip those.
func (c *SpotifyClient) GetAudioFeatures(ctx context.Context, ids []string) ([]*model.AudioFeatures, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))

	var result struct {
		AudioFeatures []*model.AudioFeatures `json:"audio_features"`
	}
	if err := c.get(ctx, "/audio-features", query, &result); err != nil {
		return nil, err
	}
	return result.AudioFeatures, nil
}

// SearchTracks runs a free-text track search.
func (c *SpotifyClient) SearchTracks(ctx context.Context, searchQuery string, limit, offset int) ([]TrackDetail, error) {
	query := url.Values{}
	query.Set("q", searchQuery)
	query.Set("type", "track")
	query.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	query.Set("market", c.api.market)

	var result struct {
		Tracks struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := c.get(ctx, "/search", query, &result); err != nil {
		return nil, err
	}
	return toDetails(result.Tracks.Items), nil
}

// SearchArtist resolves an artist name to the best catalog match.
func (c *SpotifyClient) SearchArtist(ctx context.Context, name string) (*Artist, error) {
	query := url.Values{}
	query.Set("q", name)
	query.Set("type", "artist")
	query.Set("limit", "1")

	var result struct {
		Artists struct {
			Items []spotifyArtist `json:"items"`
		} `json:"artists"`
	}
	if err := c.get(ctx, "/search", query, &result); err != nil {
		return nil, err
	}
	if len(result.Artists.Items) == 0 {
		return nil, fmt.Errorf("no artist match for %q", name)
	}
	item := result.Artists.Items[0]
	return &Artist{ID: item.ID, Name: item.Name}, nil
}

// GetArtistGenres returns the deduplicated union of genre tags across the
// given artists, in catalog order.
func (c *SpotifyClient) GetArtistGenres(ctx context.Context, artistIDs []string) ([]string, error) {
	if len(artistIDs) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(artistIDs, ","))

	var result struct {
		Artists []struct {
			Genres []string `json:"genres"`
		} `json:"artists"`
	}
	if err := c.get(ctx, "/artists", query, &result); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var genres []string
	for _, a := range result.Artists {
		for _, genre := range a.Genres {
			if _, ok := seen[genre]; ok {
				continue
			}
			seen[genre] = struct{}{}
			genres = append(genres, genre)
		}
	}
	return genres, nil
}

// GetRecommendations issues the native recommendation call seeded with up to
// 5 track ids and the target audio profile.
func (c *SpotifyClient) GetRecommendations(ctx context.Context, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]TrackDetail, error) {
	if len(seedIDs) > 5 {
		seedIDs = seedIDs[:5]
	}

	query := url.Values{}
	query.Set("seed_tracks", strings.Join(seedIDs, ","))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("target_danceability", formatFloat(profile.Danceability))
	query.Set("target_energy", formatFloat(profile.Energy))
	query.Set("target_valence", formatFloat(profile.Valence))
	query.Set("target_tempo", formatFloat(profile.Tempo))
	query.Set("target_acousticness", formatFloat(profile.Acousticness))
	query.Set("market", c.api.market)
	if minYear != nil {
		query.Set("min_release_date", fmt.Sprintf("%d-01-01", *minYear))
	}
	if maxYear != nil {
		query.Set("max_release_date", fmt.Sprintf("%d-12-31", *maxYear))
	}

	var result struct {
		Tracks []spotifyTrack `json:"tracks"`
	}
	if err := c.get(ctx, "/recommendations", query, &result); err != nil {
		return nil, err
	}
	return toDetails(result.Tracks), nil
}

// GetArtistTopTracks returns an artist's top tracks in the configured market.
func (c *SpotifyClient) GetArtistTopTracks(ctx context.Context, artistID string) ([]TrackDetail, error) {
	query := url.Values{}
	query.Set("market", c.api.market)

	var result struct {
		Tracks []spotifyTrack `json:"tracks"`
	}
	if err := c.get(ctx, "/artists/"+artistID+"/top-tracks", query, &result); err != nil {
		return nil, err
	}
	return toDetails(result.Tracks), nil
}

// GetRelatedArtists returns artists related to the given artist.
func (c *SpotifyClient) GetRelatedArtists(ctx context.Context, artistID string) ([]Artist, error) {
	var result struct {
		Artists []spotifyArtist `json:"artists"`
	}
	if err := c.get(ctx, "/artists/"+artistID+"/related-artists", nil, &result); err != nil {
		return nil, err
	}
	artists := make([]Artist, 0, len(result.Artists))
	for _, a := range result.Artists {
		artists = append(artists, Artist{ID: a.ID, Name: a.Name})
	}
	return artists, nil
}

// CreatePlaylist creates a private playlist for the user.
func (c *SpotifyClient) CreatePlaylist(ctx context.Context, userID, name, description string) (*CreatedPlaylist, error) {
	body := map[string]interface{}{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var result struct {
		ID           string `json:"id"`
		ExternalURLs struct {
			Spotify string `json:"spotify"`
		} `json:"external_urls"`
	}
	if err := c.post(ctx, "/users/"+userID+"/playlists", body, &result); err != nil {
		return nil, err
	}
	return &CreatedPlaylist{ID: result.ID, URL: result.ExternalURLs.Spotify}, nil
}

// AddTracksToPlaylist appends track URIs to a playlist. Spotify caps one
// request at 100 URIs; callers batch accordingly.
func (c *SpotifyClient) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	body := map[string]interface{}{"uris": uris}
	return c.post(ctx, "/playlists/"+playlistID+"/tracks", body, nil)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
