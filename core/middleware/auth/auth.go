package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// HeaderName is the request header carrying the API key.
const HeaderName = "X-API-Key"

// Config holds configuration for the API key middleware.
type Config struct {
	// ApiKey is the expected key. An empty key disables checking, so
	// local development works without credentials.
	ApiKey string
}

// New creates a middleware that rejects requests without a valid API key.
func New(config Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if config.ApiKey == "" {
			return c.Next()
		}
		provided := c.Get(HeaderName)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(config.ApiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or missing API key",
			})
		}
		return c.Next()
	}
}
