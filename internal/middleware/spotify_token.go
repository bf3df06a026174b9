package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/playlistify/api/pkg/response"
)

// SpotifyTokenHeader carries the caller's Spotify access token. It is kept
// separate from Authorization, which holds our own JWT.
const SpotifyTokenHeader = "X-Spotify-Token"

// RequireSpotifyToken rejects requests that carry no Spotify access token.
// The token is stored in locals; handlers bind a provider client to it per
// request, so no token ever lives on shared state.
func RequireSpotifyToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(SpotifyTokenHeader)
		if token == "" {
			return response.Unauthorized(c, "Missing Spotify access token")
		}
		c.Locals("spotifyToken", token)
		return c.Next()
	}
}

// GetSpotifyToken extracts the Spotify access token from context.
func GetSpotifyToken(c *fiber.Ctx) string {
	if token, ok := c.Locals("spotifyToken").(string); ok {
		return token
	}
	return ""
}
