package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/playlistify/api/internal/auth"
	"github.com/playlistify/api/internal/client"
	"github.com/playlistify/api/internal/config"
	"github.com/playlistify/api/internal/handler"
	"github.com/playlistify/api/internal/middleware"
	"github.com/playlistify/api/internal/service"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app *fiber.App
}

// setupApp creates a Fiber app identical to main.go but with unconfigured
// external clients, so AI services use their deterministic fallbacks. Tests
// only exercise paths that never reach the Spotify Web API.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	// Redis (localhost — must be running)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})

	// Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	// External clients — OpenAI unconfigured so AI services fall back
	openaiClient := client.NewOpenAIClient(&config.OpenAIConfig{BaseURL: "https://api.openai.com/v1"})
	spotifyAPI := client.NewSpotifyAPI(&config.SpotifyConfig{
		BaseURL: "http://localhost:1", // never reached by these tests
		Market:  "US",
		Timeout: 1,
	})

	generatorCfg := config.GeneratorConfig{
		TargetSize:     20,
		ArtistCap:      2,
		MinViableSize:  10,
		PerArtistTake:  2,
		SearchSkip:     2,
		SearchTake:     10,
		RelatedArtists: 3,
	}

	// Services
	profileService := service.NewProfileService()
	strategyService := service.NewStrategyService(openaiClient)
	narrativeService := service.NewNarrativeService(openaiClient)
	generateService := service.NewGenerateService(profileService, strategyService, narrativeService, generatorCfg)
	playlistService := service.NewPlaylistService(redisClient, nil) // nil storage → mock export URLs
	jobService := service.NewJobService(redisClient, asynqClient)

	// Handlers
	playlistHandler := handler.NewPlaylistHandler(generateService, playlistService, jobService, spotifyAPI, validate)
	spotifyHandler := handler.NewSpotifyHandler(spotifyAPI, validate)

	// Auth handler (for /auth/verify)
	authHandler := handler.NewAuthHandler(nil, testJWTSecret)

	// Auth middleware — legacy HMAC only
	authMiddleware := middleware.NewLegacyAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Fiber app
	app := fiber.New(fiber.Config{})

	// Base routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": 1234567890})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"openai": false,
				"r2":     false,
				"auth":   true,
			},
		})
	})
	app.Get("/auth/verify", authHandler.Verify)

	// API routes (authenticated)
	api := app.Group("/api", authMiddleware.Authenticate())

	// Use very high rate limits so tests don't get blocked
	spotify := api.Group("/spotify", middleware.RequireSpotifyToken(), rateLimiter.SearchLimit(10000))
	spotify.Get("/search", spotifyHandler.Search)
	spotify.Post("/audio-features", spotifyHandler.AudioFeatures)

	playlists := api.Group("/playlists")
	playlists.Post("/generate", middleware.RequireSpotifyToken(), rateLimiter.GenerateLimit(10000), playlistHandler.Generate)
	playlists.Post("/generate/async", middleware.RequireSpotifyToken(), rateLimiter.GenerateLimit(10000), playlistHandler.GenerateAsync)
	playlists.Get("/generate/status/:jobId", playlistHandler.Status)
	playlists.Get("/generate/result/:jobId", playlistHandler.Result)
	playlists.Get("/", playlistHandler.History)
	playlists.Get("/:id", playlistHandler.Get)
	playlists.Delete("/:id", playlistHandler.Delete)
	playlists.Post("/:id/save", middleware.RequireSpotifyToken(), rateLimiter.SaveLimit(10000), playlistHandler.Save)
	playlists.Post("/:id/export", rateLimiter.ExportLimit(10000), playlistHandler.Export)

	return &testApp{app: app}
}

// generateToken creates a legacy HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	claims := auth.LegacyClaims{
		UserID: "test-user-123",
		Email:  "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "playlistify-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// doSpotifyRequest performs an authenticated request carrying a Spotify token.
func doSpotifyRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization":   "Bearer " + token,
		"X-Spotify-Token": "test-spotify-token",
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
