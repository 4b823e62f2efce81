package server

import (
	"errors"
	"io"
	"strings"
	"unicode"

	"socialconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parsePage reads optional limit and offset query parameters. Without a
// limit the listing is unbounded.
func parsePage(c *fiber.Ctx) models.Page {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		limit = 0
	}
	if limit > models.MaxPageLimit {
		limit = models.MaxPageLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return models.Page{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.Respond(c, models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "postId" -> "post ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// actorID is the identity resolved by AuthRequired.
func actorID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// readUpload returns the bytes of the multipart file in field, or nil when
// the request carries none.
func readUpload(c *fiber.Ctx, field string) ([]byte, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	src, err := file.Open()
	if err != nil {
		return nil, models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, models.NewValidationError("Unable to read uploaded file")
	}
	return data, nil
}

// optionalForm returns a pointer to the form value of key, or nil when the
// field is absent from the request.
func optionalForm(c *fiber.Ctx, key string) *string {
	form, err := c.MultipartForm()
	if err == nil && form != nil {
		if values, ok := form.Value[key]; ok && len(values) > 0 {
			v := values[0]
			return &v
		}
		return nil
	}
	if args := c.Request().PostArgs(); args.Has(key) {
		v := string(args.Peek(key))
		return &v
	}
	return nil
}
