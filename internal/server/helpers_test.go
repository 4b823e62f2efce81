package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"postId", "post ID"},
		{"storyImageId", "story image ID"},
		{"username", "username"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func TestParsePage(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePage(c)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})

	tests := []struct {
		query  string
		limit  float64
		offset float64
	}{
		{"", 0, 0},
		{"?limit=10&offset=30", 10, 30},
		{"?limit=1000", 100, 0},
		{"?limit=-5&offset=-1", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.limit, body["limit"])
			assert.Equal(t, tt.offset, body["offset"])
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		param  string
		value  string
		status int
		msg    string
	}{
		{"postId", "42", http.StatusOK, ""},
		{"postId", "abc", http.StatusBadRequest, "Invalid post ID"},
		{"userId", "0", http.StatusBadRequest, "Invalid user ID"},
		{"id", "-3", http.StatusBadRequest, "Invalid ID"},
	}
	for _, tt := range tests {
		t.Run(tt.param+"="+tt.value, func(t *testing.T) {
			app := fiber.New()
			app.Get("/items/:"+tt.param, func(c *fiber.Ctx) error {
				id, err := parseID(c, tt.param)
				if err != nil {
					return nil
				}
				return c.JSON(fiber.Map{"id": id})
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/"+tt.value, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.msg != "" {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.msg, body["error"])
				assert.Equal(t, "VALIDATION_ERROR", body["code"])
			}
		})
	}
}
