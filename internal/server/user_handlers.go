package server

import (
	"socialconnect/internal/models"
	"socialconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchUsers handles GET /api/user/search?q=...
// @Summary Search users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search term"
// @Success 200 {array} models.User
// @Router /user/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.graph.SearchIdentities(c.UserContext(), c.Query("q"), parsePage(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(users)
}

// GetProfile handles GET /api/user/profile/:username
// @Summary Get profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /user/profile/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.identity.GetProfile(c.UserContext(), actorID(c), c.Params("username"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// UpdateProfile handles PUT /api/user/update
// (multipart: profilePic, bio, fullName, password, currentPassword)
// @Summary Update own profile
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param profilePic formData file false "Profile picture"
// @Param bio formData string false "Bio"
// @Param fullName formData string false "Full name"
// @Param password formData string false "New password"
// @Param currentPassword formData string false "Current password"
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /user/update [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	picture, err := readUpload(c, "profilePic")
	if err != nil {
		return models.Respond(c, err)
	}

	actor := actorID(c)
	user, err := s.identity.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		ActorID:         actor,
		TargetID:        actor,
		Bio:             optionalForm(c, "bio"),
		FullName:        c.FormValue("fullName"),
		Password:        c.FormValue("password"),
		CurrentPassword: c.FormValue("currentPassword"),
		Picture:         picture,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}
