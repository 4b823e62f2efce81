// Package middleware provides authentication, logging, metrics, rate limiting
// and tracing middleware for the application.
package middleware

import (
	"context"
	"strings"

	"socialconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

// IdentityResolver turns a bearer credential into the acting identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (uint, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired enforces authentication for protected routes. The resolved
// identity is stored in c.Locals("userID") and in the user context.
func AuthRequired(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return models.Respond(c, models.NewAuthError("Authorization header required"))
		}
		token, ok := BearerToken(c)
		if !ok {
			return models.Respond(c, models.NewAuthError("Invalid authorization header format"))
		}

		userID, err := resolver.ResolveIdentity(c.UserContext(), token)
		if err != nil {
			return models.Respond(c, err)
		}

		c.Locals("userID", userID)
		c.Locals("token", token)
		ctx := context.WithValue(c.UserContext(), UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}
