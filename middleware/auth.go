package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pitchlab-hq/pitch_api/shared"
)

// TokenVerifier is the slice of the JWT service the auth middleware needs.
type TokenVerifier interface {
	ExtractTokenFromHeader(authHeader string) (string, error)
	VerifyJWTToken(jwtToken string) (string, error)
}

// RequiredAuth rejects requests without a valid bearer token and stores the
// authenticated user id in locals under shared.UserID.
func RequiredAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := verifier.ExtractTokenFromHeader(c.Get("Authorization"))
		if err != nil {
			return shared.ResponseUnauthorized(c, err.Error())
		}

		userID, err := verifier.VerifyJWTToken(token)
		if err != nil {
			return shared.ResponseUnauthorized(c, "Invalid JWT token")
		}
		if userID == "" {
			return shared.ResponseUnauthorized(c, "Invalid user ID in token")
		}

		c.Locals(shared.UserID, userID)
		return c.Next()
	}
}

// OptionalAuth resolves the user id when a valid token is present and lets
// the request through either way. Endpoints that personalize their response
// check locals for shared.UserID themselves.
func OptionalAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := verifier.ExtractTokenFromHeader(c.Get("Authorization"))
		if err != nil {
			return c.Next()
		}

		if userID, err := verifier.VerifyJWTToken(token); err == nil && userID != "" {
			c.Locals(shared.UserID, userID)
		}
		return c.Next()
	}
}
