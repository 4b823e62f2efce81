package server

import (
	"socialconnect/internal/models"
	"socialconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadStory handles POST /api/stories/upload (multipart: image)
// @Summary Upload story
// @Tags stories
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Story image"
// @Success 201 {object} models.Story
// @Router /stories/upload [post]
func (s *Server) UploadStory(c *fiber.Ctx) error {
	image, err := readUpload(c, "image")
	if err != nil {
		return models.Respond(c, err)
	}

	story, err := s.content.CreateStory(c.UserContext(), service.CreateStoryInput{
		AuthorID: actorID(c),
		Image:    image,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(story)
}

// StoryFeed handles GET /api/stories/feed
// @Summary Story feed
// @Description Unexpired stories by followed accounts
// @Tags stories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Story
// @Router /stories/feed [get]
func (s *Server) StoryFeed(c *fiber.Ctx) error {
	stories, err := s.feeds.StoryFeed(c.UserContext(), actorID(c), parsePage(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(stories)
}
