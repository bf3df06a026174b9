package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/playlistify/api/internal/client"
	"github.com/playlistify/api/internal/config"
	"github.com/playlistify/api/internal/model"
)

// providerCallTimeout bounds every individual Spotify call. A timed-out call
// takes the same failure path as any other provider error.
const providerCallTimeout = 10 * time.Second

// ErrPipelineExhausted is returned when every discovery strategy failed and
// no seed tracks were available to pad the result. It is the only fatal
// outcome of the fallback pipeline.
var ErrPipelineExhausted = errors.New("all discovery strategies failed to produce tracks")

// ProgressFunc receives pipeline progress updates (percent, step).
type ProgressFunc func(progress int, step string)

// generationState names the stages of the recommendation pipeline, so the
// fallback ordering is explicit rather than an artifact of error handling.
type generationState int

const (
	statePrimary generationState = iota
	stateStrategyFetch
	stateCollecting
	statePadding
	stateDone
	stateFailed
)

// GenerateService drives one playlist generation run: the native
// recommendation attempt, the AI-guided fallback discovery pipeline, seed
// padding, and the final narrative.
type GenerateService struct {
	profiles   *ProfileService
	strategies *StrategyService
	narratives *NarrativeService
	cfg        config.GeneratorConfig

	// newRand supplies the shuffle source. Seedable in tests; the shuffle
	// itself is intentionally non-deterministic in production so strategy
	// order never leaks into track order.
	newRand func() *rand.Rand
}

// NewGenerateService creates the recommendation orchestrator.
func NewGenerateService(profiles *ProfileService, strategies *StrategyService, narratives *NarrativeService, cfg config.GeneratorConfig) *GenerateService {
	return &GenerateService{
		profiles:   profiles,
		strategies: strategies,
		narratives: narratives,
		cfg:        cfg,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// Generate runs the full pipeline for one request. The provider is bound to
// the caller's token; progress may be nil.
func (s *GenerateService) Generate(ctx context.Context, provider client.MusicProvider, req *model.GenerateRequest, progress ProgressFunc) (*model.GeneratedPlaylistResult, error) {
	if len(req.SeedTracks) < 3 || len(req.SeedTracks) > 5 {
		return nil, fmt.Errorf("between 3 and 5 seed tracks required, got %d", len(req.SeedTracks))
	}

	report(progress, 5, "Looking up seed tracks...")
	seedDetails := s.lookupSeeds(ctx, provider, req.SeedTracks)

	report(progress, 15, "Analyzing audio profile...")
	profile := s.computeProfile(ctx, provider, req.SeedTracks, seedDetails, req.Filters)
	targetProfile := req.Filters.Apply(profile)

	limit := s.cfg.TargetSize
	if req.Filters != nil && req.Filters.Limit > 0 {
		limit = req.Filters.Limit
	}

	var minYear, maxYear *int
	if req.Filters != nil {
		minYear, maxYear = req.Filters.MinYear, req.Filters.MaxYear
	}

	target := s.cfg.TargetSize
	if limit > target {
		target = limit
	}
	collector := NewDiversityCollector(target, s.cfg.ArtistCap, req.SeedTracks, minYear, maxYear)

	var strategy *model.DiscoveryStrategy
	var tracks []client.TrackDetail
	usedFallback := false
	aiContributed := false

	for state := statePrimary; state != stateDone; {
		switch state {

		case statePrimary:
			report(progress, 25, "Requesting recommendations...")
			recs, err := s.primaryRecommendations(ctx, provider, req.SeedTracks, targetProfile, limit, minYear, maxYear)
			if err == nil && len(recs) > 0 {
				for _, rec := range recs {
					collector.TryAdd(rec)
				}
				// A year window can reject every recommendation; that is
				// the same situation as an empty response.
				if collector.Len() > 0 {
					tracks = collector.Accepted()
					state = stateDone
					break
				}
				log.Printf("Warning: no recommended track passed filtering, entering fallback pipeline")
				usedFallback = true
				state = stateStrategyFetch
				break
			}
			if err != nil {
				log.Printf("Warning: recommendations call failed, entering fallback pipeline: %v", err)
			} else {
				log.Printf("Warning: recommendations call returned no tracks, entering fallback pipeline")
			}
			usedFallback = true
			state = stateStrategyFetch

		case stateStrategyFetch:
			report(progress, 35, "Building discovery strategy...")
			strategy = s.strategies.BuildStrategy(ctx, seedDetails, targetProfile)
			state = stateCollecting

		case stateCollecting:
			s.runDiscovery(ctx, provider, collector, strategy, seedDetails, progress)
			aiContributed = collector.Len() > 0
			if !collector.Full() {
				s.collectSeedArtistBackstop(ctx, provider, collector, seedDetails)
			}
			state = statePadding

		case statePadding:
			// Pad with the seeds themselves when discovery under-produced.
			// Last resort: seeds add no novelty, but an almost-empty
			// playlist is worse.
			tracks = collector.Accepted()
			if len(tracks) < s.cfg.MinViableSize {
				tracks = padWithSeeds(tracks, seedDetails, s.cfg.MinViableSize)
			}
			if len(tracks) == 0 {
				state = stateFailed
				break
			}
			state = stateDone

		case stateFailed:
			return nil, ErrPipelineExhausted
		}
	}

	if usedFallback {
		r := s.newRand()
		r.Shuffle(len(tracks), func(i, j int) {
			tracks[i], tracks[j] = tracks[j], tracks[i]
		})
	}
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}

	seedTracks := toModelTracks(seedDetails)
	finalTracks := toModelTracks(tracks)

	algorithm := model.AlgorithmSpotifyRecommendations
	if usedFallback {
		algorithm = model.AlgorithmArtistBackstop
		if aiContributed {
			algorithm = model.AlgorithmAIEnhancedDiversity
		}
	}

	report(progress, 85, "Writing playlist narrative...")
	narrative := s.narratives.Narrate(ctx, seedTracks, profile, finalTracks)

	result := &model.GeneratedPlaylistResult{
		SeedTracks:      seedTracks,
		GeneratedTracks: finalTracks,
		AudioProfile:    profile,
		Narrative:       narrative,
		UsedFallback:    usedFallback,
		Algorithm:       algorithm,
	}
	if usedFallback {
		result.DiscoveryStrategy = strategy
	}

	report(progress, 95, "Finalizing...")
	return result, nil
}

// lookupSeeds fetches full seed track objects. Failure is tolerated: the
// primary path only needs ids, though padding and the backstop lose their
// inputs.
func (s *GenerateService) lookupSeeds(ctx context.Context, provider client.MusicProvider, seedIDs []string) []client.TrackDetail {
	cctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()

	details, err := provider.GetTracks(cctx, seedIDs)
	if err != nil {
		log.Printf("Warning: seed track lookup failed: %v", err)
		return nil
	}
	return details
}

func (s *GenerateService) computeProfile(ctx context.Context, provider client.MusicProvider, seedIDs []string, seeds []client.TrackDetail, filters *model.GenerateFilters) model.AudioProfile {
	artistIDs := make([]string, 0, len(seeds))
	seen := make(map[string]struct{}, len(seeds))
	for _, seed := range seeds {
		if seed.PrimaryArtistID == "" {
			continue
		}
		if _, ok := seen[seed.PrimaryArtistID]; ok {
			continue
		}
		seen[seed.PrimaryArtistID] = struct{}{}
		artistIDs = append(artistIDs, seed.PrimaryArtistID)
	}

	cctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()
	return s.profiles.FromSeeds(cctx, provider, seedIDs, artistIDs, filters)
}

func (s *GenerateService) primaryRecommendations(ctx context.Context, provider client.MusicProvider, seedIDs []string, profile model.AudioProfile, limit int, minYear, maxYear *int) ([]client.TrackDetail, error) {
	cctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()
	return provider.GetRecommendations(cctx, seedIDs, profile, limit, minYear, maxYear)
}

// runDiscovery executes the ordered fallback strategies, each gated on the
// collector still being short of target. Item-level failures are logged and
// skipped; they never abort the run.
func (s *GenerateService) runDiscovery(ctx context.Context, provider client.MusicProvider, collector *DiversityCollector, strategy *model.DiscoveryStrategy, seeds []client.TrackDetail, progress ProgressFunc) {
	if strategy == nil {
		return
	}

	report(progress, 45, "Exploring suggested artists...")
	if !collector.Full() {
		s.collectSuggestedArtists(ctx, provider, collector, strategy.SuggestedArtists)
	}

	report(progress, 55, "Searching for deeper cuts...")
	if !collector.Full() {
		s.collectSearchQueries(ctx, provider, collector, strategy.SearchQueries)
	}

	report(progress, 65, "Expanding related artists...")
	if !collector.Full() {
		s.collectRelatedArtists(ctx, provider, collector, seeds)
	}
}

// collectSuggestedArtists resolves each AI-suggested artist name and feeds
// its top tracks through the collector. Lookups for different artists are
// independent, so they run concurrently; TryAdd serializes acceptance.
func (s *GenerateService) collectSuggestedArtists(ctx context.Context, provider client.MusicProvider, collector *DiversityCollector, names []string) {
	var wg sync.WaitGroup
	for _, name := range names {
		if collector.Full() {
			break
		}
		wg.Add(1)
		go func(artistName string) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
			defer cancel()

			artist, err := provider.SearchArtist(cctx, artistName)
			if err != nil {
				log.Printf("Warning: artist lookup failed for %q: %v", artistName, err)
				return
			}

			top, err := provider.GetArtistTopTracks(cctx, artist.ID)
			if err != nil {
				log.Printf("Warning: top tracks failed for %q: %v", artistName, err)
				return
			}

			taken := 0
			for _, track := range top {
				if taken >= s.cfg.PerArtistTake || collector.Full() {
					break
				}
				if collector.TryAdd(track) {
					taken++
				}
			}
		}(name)
	}
	wg.Wait()
}

// collectSearchQueries runs each AI-suggested search, skipping the most
// obvious top hits to bias toward deeper cuts.
func (s *GenerateService) collectSearchQueries(ctx context.Context, provider client.MusicProvider, collector *DiversityCollector, queries []string) {
	for _, query := range queries {
		if collector.Full() {
			return
		}

		cctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
		results, err := provider.SearchTracks(cctx, query, s.cfg.SearchSkip+s.cfg.SearchTake, 0)
		cancel()
		if err != nil {
			log.Printf("Warning: track search failed for %q: %v", query, err)
			continue
		}

		if len(results) > s.cfg.SearchSkip {
			results = results[s.cfg.SearchSkip:]
		}
		for _, track := range results {
			if collector.Full() {
				return
			}
			collector.TryAdd(track)
		}
	}
}

// collectRelatedArtists expands a subset of seed artists through the
// related-artists graph and pulls top tracks from each neighbor.
func (s *GenerateService) collectRelatedArtists(ctx context.Context, provider client.MusicProvider, collector *DiversityCollector, seeds []client.TrackDetail) {
	expanded := 0
	for _, seed := range seeds {
		if expanded >= s.cfg.RelatedArtists || collector.Full() {
			return
		}
		if seed.PrimaryArtistID == "" {
			continue
		}
		expanded++

		cctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
		related, err := provider.GetRelatedArtists(cctx, seed.PrimaryArtistID)
		cancel()
		if err != nil {
			log.Printf("Warning: related artists failed for %q: %v", seed.PrimaryArtistName, err)
			continue
		}

		if len(related) > 2 {
			related = related[:2]
		}
		for _, artist := range related {
			if collector.Full() {
				return
			}

			cctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
			top, err := provider.GetArtistTopTracks(cctx, artist.ID)
			cancel()
			if err != nil {
				log.Printf("Warning: top tracks failed for related artist %q: %v", artist.Name, err)
				continue
			}

			taken := 0
			for _, track := range top {
				if taken >= s.cfg.PerArtistTake || collector.Full() {
					break
				}
				if collector.TryAdd(track) {
					taken++
				}
			}
		}
	}
}

// collectSeedArtistBackstop pulls top tracks of the seed artists themselves.
// Runs last since it reduces novelty; mid-list cuts are preferred over the
// artists' biggest hits.
func (s *GenerateService) collectSeedArtistBackstop(ctx context.Context, provider client.MusicProvider, collector *DiversityCollector, seeds []client.TrackDetail) {
	for _, seed := range seeds {
		if collector.Full() {
			return
		}
		if seed.PrimaryArtistID == "" {
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, providerCallTimeout)
		top, err := provider.GetArtistTopTracks(cctx, seed.PrimaryArtistID)
		cancel()
		if err != nil {
			log.Printf("Warning: backstop top tracks failed for %q: %v", seed.PrimaryArtistName, err)
			continue
		}

		if len(top) > 2 {
			top = top[2:]
		}
		for _, track := range top {
			if collector.Full() {
				return
			}
			collector.TryAdd(track)
		}
	}
}

// padWithSeeds appends seed tracks not already present until the minimum
// viable size is met or seeds run out.
func padWithSeeds(tracks []client.TrackDetail, seeds []client.TrackDetail, minViable int) []client.TrackDetail {
	present := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		present[t.ID] = struct{}{}
	}
	for _, seed := range seeds {
		if len(tracks) >= minViable {
			break
		}
		if _, ok := present[seed.ID]; ok {
			continue
		}
		present[seed.ID] = struct{}{}
		tracks = append(tracks, seed)
	}
	return tracks
}

func toModelTracks(details []client.TrackDetail) []model.Track {
	tracks := make([]model.Track, 0, len(details))
	for _, d := range details {
		tracks = append(tracks, d.Track)
	}
	return tracks
}

func report(progress ProgressFunc, percent int, step string) {
	if progress != nil {
		progress(percent, step)
	}
}
