package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/playlistify/api/internal/client"
	"github.com/playlistify/api/internal/model"
)

const playlistTTL = 30 * 24 * time.Hour

// ErrPlaylistNotFound is returned for unknown ids and for playlists owned by
// a different user; callers must not be able to tell the two apart.
var ErrPlaylistNotFound = errors.New("playlist not found")

// PlaylistService persists generation results and pushes them back to
// Spotify or object storage on demand.
type PlaylistService struct {
	redis   *redis.Client
	storage client.StorageClient
}

func NewPlaylistService(redisClient *redis.Client, storage client.StorageClient) *PlaylistService {
	return &PlaylistService{
		redis:   redisClient,
		storage: storage,
	}
}

// SavePlaylist stores a generation result under a fresh id and records it in
// the user's history. Name and description come from the narrative when one
// exists.
func (s *PlaylistService) SavePlaylist(ctx context.Context, userID string, result *model.GeneratedPlaylistResult) (*model.Playlist, error) {
	playlist := &model.Playlist{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        "Generated Playlist",
		Description: "AI-generated playlist based on your music taste",
		Result:      *result,
		CreatedAt:   time.Now(),
	}
	if result.Narrative != nil {
		if result.Narrative.PlaylistName != "" {
			playlist.Name = result.Narrative.PlaylistName
		}
		if result.Narrative.Description != "" {
			playlist.Description = result.Narrative.Description
		}
	}

	if err := s.savePlaylist(ctx, playlist); err != nil {
		return nil, fmt.Errorf("failed to save playlist: %w", err)
	}

	if err := s.redis.LPush(ctx, historyKey(userID), playlist.ID).Err(); err != nil {
		return nil, fmt.Errorf("failed to record playlist in history: %w", err)
	}

	return playlist, nil
}

// GetPlaylist loads one playlist, scoped to its owner.
func (s *PlaylistService) GetPlaylist(ctx context.Context, userID, playlistID string) (*model.Playlist, error) {
	playlist, err := s.getPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.UserID != userID {
		return nil, ErrPlaylistNotFound
	}
	return playlist, nil
}

// ListPlaylists returns the user's history, newest first. Entries whose
// record has expired are skipped.
func (s *PlaylistService) ListPlaylists(ctx context.Context, userID string, limit int) ([]model.PlaylistSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	ids, err := s.redis.LRange(ctx, historyKey(userID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	summaries := make([]model.PlaylistSummary, 0, len(ids))
	for _, id := range ids {
		playlist, err := s.getPlaylist(ctx, id)
		if err != nil {
			if errors.Is(err, ErrPlaylistNotFound) {
				continue
			}
			return nil, err
		}
		if playlist.UserID != userID {
			continue
		}
		summaries = append(summaries, model.PlaylistSummary{
			ID:           playlist.ID,
			Name:         playlist.Name,
			Description:  playlist.Description,
			TrackCount:   len(playlist.Result.GeneratedTracks),
			UsedFallback: playlist.Result.UsedFallback,
			Algorithm:    playlist.Result.Algorithm,
			CreatedAt:    playlist.CreatedAt,
		})
	}
	return summaries, nil
}

// DeletePlaylist removes a playlist the user owns.
func (s *PlaylistService) DeletePlaylist(ctx context.Context, userID, playlistID string) error {
	playlist, err := s.getPlaylist(ctx, playlistID)
	if err != nil {
		return err
	}
	if playlist.UserID != userID {
		return ErrPlaylistNotFound
	}

	if err := s.redis.Del(ctx, playlistKey(playlistID)).Err(); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	s.redis.LRem(ctx, historyKey(userID), 0, playlistID)
	return nil
}

// SaveToSpotify creates a real Spotify playlist from a stored one and fills
// it with the generated tracks, batching adds at Spotify's limit of 100.
func (s *PlaylistService) SaveToSpotify(ctx context.Context, provider client.MusicProvider, userID, playlistID string) (*model.SaveToSpotifyResponse, error) {
	playlist, err := s.GetPlaylist(ctx, userID, playlistID)
	if err != nil {
		return nil, err
	}

	me, err := provider.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Spotify user: %w", err)
	}

	created, err := provider.CreatePlaylist(ctx, me.ID, playlist.Name, playlist.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify playlist: %w", err)
	}

	uris := make([]string, 0, len(playlist.Result.GeneratedTracks))
	for _, track := range playlist.Result.GeneratedTracks {
		if track.URI != "" {
			uris = append(uris, track.URI)
		}
	}
	for start := 0; start < len(uris); start += 100 {
		end := start + 100
		if end > len(uris) {
			end = len(uris)
		}
		if err := provider.AddTracksToPlaylist(ctx, created.ID, uris[start:end]); err != nil {
			return nil, fmt.Errorf("failed to add tracks to Spotify playlist: %w", err)
		}
	}

	playlist.SpotifyPlaylistID = created.ID
	if err := s.savePlaylist(ctx, playlist); err != nil {
		return nil, fmt.Errorf("failed to record Spotify playlist id: %w", err)
	}

	return &model.SaveToSpotifyResponse{
		Success:           true,
		SpotifyPlaylistID: created.ID,
		SpotifyURL:        created.URL,
		TrackCount:        len(uris),
	}, nil
}

// ExportSnapshot uploads the playlist as a JSON document to object storage
// and returns its public URL. Without configured storage a mock URL is
// returned so development flows stay usable.
func (s *PlaylistService) ExportSnapshot(ctx context.Context, userID, playlistID string) (*model.ExportResponse, error) {
	playlist, err := s.GetPlaylist(ctx, userID, playlistID)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(playlist, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist: %w", err)
	}

	now := time.Now()
	key := fmt.Sprintf("exports/%s/%s-%d.json", userID, playlistID, now.Unix())

	if s.storage == nil {
		return &model.ExportResponse{
			URL:        fmt.Sprintf("https://cdn.playlistify.app/%s", key),
			Key:        key,
			ExportedAt: now.Unix(),
		}, nil
	}

	url, err := s.storage.Upload(ctx, key, bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	return &model.ExportResponse{
		URL:        url,
		Key:        key,
		ExportedAt: now.Unix(),
	}, nil
}

// Helper methods

func (s *PlaylistService) savePlaylist(ctx context.Context, playlist *model.Playlist) error {
	data, err := json.Marshal(playlist)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, playlistKey(playlist.ID), data, playlistTTL).Err()
}

func (s *PlaylistService) getPlaylist(ctx context.Context, playlistID string) (*model.Playlist, error) {
	data, err := s.redis.Get(ctx, playlistKey(playlistID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrPlaylistNotFound
		}
		return nil, err
	}

	var playlist model.Playlist
	if err := json.Unmarshal(data, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

func playlistKey(id string) string {
	return fmt.Sprintf("playlist:%s", id)
}

func historyKey(userID string) string {
	return fmt.Sprintf("user:%s:playlists", userID)
}
