package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/playlistify/api/internal/client"
	"github.com/playlistify/api/internal/middleware"
	"github.com/playlistify/api/internal/model"
	"github.com/playlistify/api/pkg/response"
)

// SpotifyHandler exposes catalog lookups the frontend needs while the user
// assembles a seed set.
type SpotifyHandler struct {
	spotifyAPI *client.SpotifyAPI
	validator  *validator.Validate
}

func NewSpotifyHandler(spotifyAPI *client.SpotifyAPI, v *validator.Validate) *SpotifyHandler {
	return &SpotifyHandler{
		spotifyAPI: spotifyAPI,
		validator:  v,
	}
}

// Search handles GET /api/spotify/search
// @Summary      Search tracks
// @Tags         Spotify
// @Produce      json
// @Param        q query string true "Search query"
// @Param        limit query int false "Max results" default(10)
// @Success      200 {object} model.SearchResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/spotify/search [get]
func (h *SpotifyHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return response.ValidationError(c, "Query parameter q is required", nil)
	}

	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}

	provider := h.spotifyAPI.WithToken(middleware.GetSpotifyToken(c))
	details, err := provider.SearchTracks(c.Context(), query, limit, 0)
	if err != nil {
		return response.ProviderError(c, err.Error())
	}

	tracks := make([]model.Track, 0, len(details))
	for _, d := range details {
		tracks = append(tracks, d.Track)
	}
	return response.OK(c, model.SearchResponse{Tracks: tracks})
}

// AudioFeatures handles POST /api/spotify/audio-features
// @Summary      Get audio features
// @Description  Fetch track details with audio features for up to 50 tracks
// @Tags         Spotify
// @Accept       json
// @Produce      json
// @Param        request body model.AudioFeaturesRequest true "Track ids"
// @Success      200 {object} model.AudioFeaturesResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/spotify/audio-features [post]
func (h *SpotifyHandler) AudioFeatures(c *fiber.Ctx) error {
	var req model.AudioFeaturesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	provider := h.spotifyAPI.WithToken(middleware.GetSpotifyToken(c))

	details, err := provider.GetTracks(c.Context(), req.TrackIDs)
	if err != nil {
		return response.ProviderError(c, err.Error())
	}

	features, err := provider.GetAudioFeatures(c.Context(), req.TrackIDs)
	if err != nil {
		return response.ProviderError(c, err.Error())
	}

	byID := make(map[string]*model.AudioFeatures, len(features))
	for _, f := range features {
		if f != nil {
			byID[f.ID] = f
		}
	}

	tracks := make([]model.TrackWithFeatures, 0, len(details))
	for _, d := range details {
		tracks = append(tracks, model.TrackWithFeatures{
			Track:         d.Track,
			AudioFeatures: byID[d.ID],
		})
	}
	return response.OK(c, model.AudioFeaturesResponse{Tracks: tracks})
}
