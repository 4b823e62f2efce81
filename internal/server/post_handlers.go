package server

import (
	"socialconnect/internal/models"
	"socialconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts/create (multipart: image, caption, location)
// @Summary Create post
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Post image"
// @Param caption formData string false "Caption"
// @Param location formData string false "Location"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/create [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	image, err := readUpload(c, "image")
	if err != nil {
		return models.Respond(c, err)
	}

	post, err := s.content.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: actorID(c),
		Caption:  c.FormValue("caption"),
		Location: c.FormValue("location"),
		Image:    image,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HomeFeed handles GET /api/posts/feed
// @Summary Home feed
// @Description Posts by the caller and the accounts they follow, newest first
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size"
// @Success 200 {array} models.Post
// @Router /posts/feed [get]
func (s *Server) HomeFeed(c *fiber.Ctx) error {
	posts, err := s.feeds.HomeFeed(c.UserContext(), actorID(c), parsePage(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// ExploreFeed handles GET /api/posts/all
// @Summary Explore feed
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size"
// @Success 200 {array} models.Post
// @Router /posts/all [get]
func (s *Server) ExploreFeed(c *fiber.Ctx) error {
	posts, err := s.feeds.ExploreFeed(c.UserContext(), actorID(c), parsePage(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// AuthorFeed handles GET /api/posts/user/:username
// @Summary Posts by author
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param username path string true "Author username"
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/user/{username} [get]
func (s *Server) AuthorFeed(c *fiber.Ctx) error {
	posts, err := s.feeds.AuthorFeed(c.UserContext(), c.Params("username"), parsePage(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// EditPost handles PUT /api/posts/:postId
// @Summary Edit post caption
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param request body object{caption=string} true "New caption"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId} [put]
func (s *Server) EditPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req struct {
		Caption string `json:"caption" form:"caption"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.content.EditCaption(c.UserContext(), postID, actorID(c), req.Caption)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:postId
// @Summary Delete post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	if err := s.content.DeletePost(c.UserContext(), postID, actorID(c)); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// AddComment handles POST /api/posts/:postId/comments
// @Summary Comment on post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param request body object{text=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text" form:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewValidationError("Invalid request body"))
	}

	comment, err := s.content.AddComment(c.UserContext(), postID, actorID(c), req.Text)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
