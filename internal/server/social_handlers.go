package server

import (
	"socialconnect/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Follow handles POST /api/social/follow/:userId
// @Summary Follow user
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /social/follow/{userId} [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	targetID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	if err := s.graph.Follow(c.UserContext(), actorID(c), targetID); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "User followed successfully"})
}

// Unfollow handles POST /api/social/unfollow/:userId
// @Summary Unfollow user
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /social/unfollow/{userId} [post]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	targetID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	if err := s.graph.Unfollow(c.UserContext(), actorID(c), targetID); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "User unfollowed successfully"})
}

// Followers handles GET /api/social/:userId/followers
// @Summary List followers
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} object{followers=[]int}
// @Router /social/{userId}/followers [get]
func (s *Server) Followers(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	ids, err := s.graph.FollowersOf(c.UserContext(), userID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"followers": ids})
}

// Following handles GET /api/social/:userId/following
// @Summary List following
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} object{following=[]int}
// @Router /social/{userId}/following [get]
func (s *Server) Following(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	ids, err := s.graph.FollowingOf(c.UserContext(), userID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"following": ids})
}
