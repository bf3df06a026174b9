package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/playlistify/api/internal/client"
	"github.com/playlistify/api/internal/middleware"
	"github.com/playlistify/api/internal/model"
	"github.com/playlistify/api/internal/service"
	"github.com/playlistify/api/pkg/response"
)

type PlaylistHandler struct {
	generateService *service.GenerateService
	playlistService *service.PlaylistService
	jobService      *service.JobService
	spotifyAPI      *client.SpotifyAPI
	validator       *validator.Validate
}

func NewPlaylistHandler(generateService *service.GenerateService, playlistService *service.PlaylistService, jobService *service.JobService, spotifyAPI *client.SpotifyAPI, v *validator.Validate) *PlaylistHandler {
	return &PlaylistHandler{
		generateService: generateService,
		playlistService: playlistService,
		jobService:      jobService,
		spotifyAPI:      spotifyAPI,
		validator:       v,
	}
}

func (h *PlaylistHandler) provider(c *fiber.Ctx) client.MusicProvider {
	return h.spotifyAPI.WithToken(middleware.GetSpotifyToken(c))
}

// Generate handles POST /api/playlists/generate
// @Summary      Generate playlist
// @Description  Generate a playlist from 3-5 seed tracks and persist it
// @Tags         Playlists
// @Accept       json
// @Produce      json
// @Param        request body model.GenerateRequest true "Generation request"
// @Success      200 {object} model.GenerateResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/playlists/generate [post]
func (h *PlaylistHandler) Generate(c *fiber.Ctx) error {
	var req model.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.generateService.Generate(c.Context(), h.provider(c), &req, nil)
	if err != nil {
		if errors.Is(err, service.ErrPipelineExhausted) {
			return response.GenerationFailed(c, "Could not find any tracks for these seeds")
		}
		return response.ProviderError(c, err.Error())
	}

	playlist, err := h.playlistService.SavePlaylist(c.Context(), middleware.GetUserID(c), result)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.GenerateResponse{
		PlaylistID:              playlist.ID,
		GeneratedPlaylistResult: *result,
	})
}

// GenerateAsync handles POST /api/playlists/generate/async
// @Summary      Start async playlist generation
// @Description  Queue a generation job; progress streams over WebSocket
// @Tags         Playlists
// @Accept       json
// @Produce      json
// @Param        request body model.GenerateRequest true "Generation request"
// @Success      202 {object} model.GenerateStartResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/playlists/generate/async [post]
func (h *PlaylistHandler) GenerateAsync(c *fiber.Ctx) error {
	var req model.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.jobService.StartGenerate(c.Context(), middleware.GetUserID(c), middleware.GetSpotifyToken(c), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/playlists/generate/status/:jobId
// @Summary      Get generation job status
// @Tags         Playlists
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.GenerateStatusResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/playlists/generate/status/{jobId} [get]
func (h *PlaylistHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.jobService.GetStatus(c.Context(), middleware.GetUserID(c), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Result handles GET /api/playlists/generate/result/:jobId
// @Summary      Get generation job result
// @Tags         Playlists
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.GenerateResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/playlists/generate/result/{jobId} [get]
func (h *PlaylistHandler) Result(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.jobService.GetResult(c.Context(), middleware.GetUserID(c), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		if err.Error() == "job not completed" {
			return response.ValidationError(c, "Job not completed yet", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// History handles GET /api/playlists
// @Summary      List generated playlists
// @Tags         Playlists
// @Produce      json
// @Param        limit query int false "Max entries" default(20)
// @Success      200 {array} model.PlaylistSummary
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/playlists [get]
func (h *PlaylistHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	summaries, err := h.playlistService.ListPlaylists(c.Context(), middleware.GetUserID(c), limit)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, summaries)
}

// Get handles GET /api/playlists/:id
// @Summary      Get a playlist
// @Tags         Playlists
// @Produce      json
// @Param        id path string true "Playlist ID"
// @Success      200 {object} model.Playlist
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/playlists/{id} [get]
func (h *PlaylistHandler) Get(c *fiber.Ctx) error {
	playlist, err := h.playlistService.GetPlaylist(c.Context(), middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrPlaylistNotFound) {
			return response.NotFound(c, "Playlist not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, playlist)
}

// Delete handles DELETE /api/playlists/:id
// @Summary      Delete a playlist
// @Tags         Playlists
// @Param        id path string true "Playlist ID"
// @Success      204
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/playlists/{id} [delete]
func (h *PlaylistHandler) Delete(c *fiber.Ctx) error {
	err := h.playlistService.DeletePlaylist(c.Context(), middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrPlaylistNotFound) {
			return response.NotFound(c, "Playlist not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}

// Save handles POST /api/playlists/:id/save
// @Summary      Save playlist to Spotify
// @Description  Create the playlist on the user's Spotify account
// @Tags         Playlists
// @Produce      json
// @Param        id path string true "Playlist ID"
// @Success      200 {object} model.SaveToSpotifyResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/playlists/{id}/save [post]
func (h *PlaylistHandler) Save(c *fiber.Ctx) error {
	result, err := h.playlistService.SaveToSpotify(c.Context(), h.provider(c), middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrPlaylistNotFound) {
			return response.NotFound(c, "Playlist not found")
		}
		return response.ProviderError(c, err.Error())
	}

	return response.OK(c, result)
}

// Export handles POST /api/playlists/:id/export
// @Summary      Export playlist snapshot
// @Description  Upload a JSON snapshot of the playlist to object storage
// @Tags         Playlists
// @Produce      json
// @Param        id path string true "Playlist ID"
// @Success      200 {object} model.ExportResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/playlists/{id}/export [post]
func (h *PlaylistHandler) Export(c *fiber.Ctx) error {
	result, err := h.playlistService.ExportSnapshot(c.Context(), middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrPlaylistNotFound) {
			return response.NotFound(c, "Playlist not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}
