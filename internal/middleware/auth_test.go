package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialconnect/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverStub map[string]uint

func (r resolverStub) ResolveIdentity(_ context.Context, token string) (uint, error) {
	id, ok := r[token]
	if !ok {
		return 0, models.NewAuthError("Invalid or expired token")
	}
	return id, nil
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	app.Get("/test", AuthRequired(resolverStub{"good": 123}), func(c *fiber.Ctx) error {
		fromCtx, _ := c.UserContext().Value(UserIDKey).(uint)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"userID":  c.Locals("userID"),
			"fromCtx": fromCtx,
		})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"Happy Path", "Bearer good", http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Empty Bearer", "Bearer ", http.StatusUnauthorized, 0},
		{"Unknown Token", "Bearer bad", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusOK {
				var body struct {
					UserID  uint `json:"userID"`
					FromCtx uint `json:"fromCtx"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedUserID, body.UserID)
				assert.Equal(t, tt.expectedUserID, body.FromCtx)
			} else {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, models.CodeAuth, body.Code)
			}
		})
	}
}
