package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/playlistify/api/internal/client"
	"github.com/playlistify/api/internal/model"
	"github.com/playlistify/api/internal/service"
	"github.com/playlistify/api/internal/websocket"
)

// GenerateWorker processes playlist generation jobs
type GenerateWorker struct {
	jobService      *service.JobService
	generateService *service.GenerateService
	playlistService *service.PlaylistService
	spotifyAPI      *client.SpotifyAPI
	hub             *websocket.Hub
}

// NewGenerateWorker creates a new generation worker
func NewGenerateWorker(jobService *service.JobService, generateService *service.GenerateService, playlistService *service.PlaylistService, spotifyAPI *client.SpotifyAPI, hub *websocket.Hub) *GenerateWorker {
	return &GenerateWorker{
		jobService:      jobService,
		generateService: generateService,
		playlistService: playlistService,
		spotifyAPI:      spotifyAPI,
		hub:             hub,
	}
}

// ProcessTask handles one queued generation job.
func (w *GenerateWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Starting generation job: %s", jobID)

	var payload model.GenerateJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal generate payload: %w", err)
	}

	provider := w.spotifyAPI.WithToken(payload.SpotifyToken)
	req := &model.GenerateRequest{
		SeedTracks: payload.SeedTracks,
		Filters:    payload.Filters,
	}

	result, err := w.generateService.Generate(ctx, provider, req, func(progress int, step string) {
		w.updateProgress(ctx, jobID, progress, step)
	})
	if err != nil {
		w.failJob(ctx, jobID, fmt.Sprintf("Generation failed: %v", err))
		if errors.Is(err, service.ErrPipelineExhausted) {
			// Retrying won't produce tracks the pipeline could not find.
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	playlist, err := w.playlistService.SavePlaylist(ctx, payload.UserID, result)
	if err != nil {
		w.failJob(ctx, jobID, "Failed to save playlist")
		return err
	}

	response := &model.GenerateResponse{
		PlaylistID:              playlist.ID,
		GeneratedPlaylistResult: *result,
	}

	if err := w.jobService.CompleteJob(ctx, jobID, response); err != nil {
		w.failJob(ctx, jobID, "Failed to save result")
		return err
	}

	w.hub.BroadcastComplete(jobID, response)
	log.Printf("Generation job %s completed (%d tracks)", jobID, len(result.GeneratedTracks))
	return nil
}

func (w *GenerateWorker) updateProgress(ctx context.Context, jobID string, progress int, step string) {
	if err := w.jobService.UpdateJobProgress(ctx, jobID, progress, step); err != nil {
		log.Printf("Failed to update progress: %v", err)
	}
	w.hub.BroadcastProgress(jobID, progress, model.JobStatusRunning, step)
}

func (w *GenerateWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if err := w.jobService.FailJob(ctx, jobID, errMsg); err != nil {
		log.Printf("Failed to mark job as failed: %v", err)
	}
	w.hub.BroadcastError(jobID, "GENERATION_FAILED", errMsg)
}
