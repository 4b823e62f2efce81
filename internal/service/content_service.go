package service

import (
	"context"
	"log/slog"
	"strings"

	"socialconnect/internal/authz"
	"socialconnect/internal/blob"
	"socialconnect/internal/middleware"
	"socialconnect/internal/models"
	"socialconnect/internal/observability"
	"socialconnect/internal/repository"
	"socialconnect/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// ContentService publishes and mutates posts, stories and comments.
type ContentService struct {
	posts    repository.PostRepository
	stories  repository.StoryRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	blobs    blob.Store
	guard    authz.Guard
	authors  authorResolver
}

// CreatePostInput carries either raw image bytes, which are stored first,
// or a reference to an already stored blob.
type CreatePostInput struct {
	AuthorID uint
	Caption  string
	Location string
	Image    []byte
	ImageRef string
}

type CreateStoryInput struct {
	AuthorID uint
	Image    []byte
	ImageRef string
}

func NewContentService(
	posts repository.PostRepository,
	stories repository.StoryRepository,
	comments repository.CommentRepository,
	users repository.UserRepository,
	blobs blob.Store,
	guard authz.Guard,
) *ContentService {
	return &ContentService{
		posts:    posts,
		stories:  stories,
		comments: comments,
		users:    users,
		blobs:    blobs,
		guard:    guard,
		authors:  authorResolver{users: users},
	}
}

// storeImage uploads data when present. The returned release func deletes
// a blob stored by this call and is a no-op otherwise.
func (s *ContentService) storeImage(ctx context.Context, data []byte, ref string) (string, func(), error) {
	if len(data) == 0 {
		return ref, func() {}, nil
	}
	stored, err := s.blobs.Put(ctx, data)
	if err != nil {
		return "", nil, err
	}
	return stored, func() { releaseBlob(ctx, s.blobs, stored) }, nil
}

// releaseBlob deletes ref after the metadata referencing it is gone. A
// failure leaves an orphan file, which is logged rather than returned.
func releaseBlob(ctx context.Context, blobs blob.Store, ref string) {
	if err := blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to delete blob",
			slog.String("ref", ref),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ContentService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "ContentService", "CreatePost",
		attribute.Int64("author.id", int64(in.AuthorID)),
	)
	defer func() { finish(err) }()

	if err := validation.ValidateCaption(in.Caption); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateLocation(in.Location); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(in.Image) == 0 && strings.TrimSpace(in.ImageRef) == "" {
		return nil, models.NewValidationError("Image is required")
	}

	author, err := s.users.GetByID(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	ref, release, err := s.storeImage(ctx, in.Image, in.ImageRef)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		UserID:   in.AuthorID,
		Caption:  in.Caption,
		Image:    ref,
		Location: strings.TrimSpace(in.Location),
		Comments: []models.Comment{},
	}
	if err := s.posts.Create(ctx, post); err != nil {
		release()
		return nil, err
	}
	post.Author = author.Summary()
	return post, nil
}

func (s *ContentService) CreateStory(ctx context.Context, in CreateStoryInput) (story *models.Story, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "ContentService", "CreateStory",
		attribute.Int64("author.id", int64(in.AuthorID)),
	)
	defer func() { finish(err) }()

	if len(in.Image) == 0 && strings.TrimSpace(in.ImageRef) == "" {
		return nil, models.NewValidationError("Image is required")
	}

	author, err := s.users.GetByID(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	ref, release, err := s.storeImage(ctx, in.Image, in.ImageRef)
	if err != nil {
		return nil, err
	}

	story = &models.Story{UserID: in.AuthorID, Image: ref}
	if err := s.stories.Create(ctx, story); err != nil {
		release()
		return nil, err
	}
	story.Author = author.Summary()
	return story, nil
}

// EditCaption replaces the caption of a post owned by actorID. An empty
// caption keeps the current one.
func (s *ContentService) EditCaption(ctx context.Context, postID, actorID uint, caption string) (post *models.Post, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "ContentService", "EditCaption",
		attribute.Int64("post.id", int64(postID)),
	)
	defer func() { finish(err) }()

	if err := validation.ValidateCaption(caption); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post, err = s.posts.UpdateLocked(ctx, postID, func(p *models.Post) error {
		if err := s.guard.AssertOwner(actorID, p.UserID); err != nil {
			return err
		}
		if caption != "" {
			p.Caption = caption
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	posts := []models.Post{*post}
	if err := s.authors.posts(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// DeletePost removes a post owned by actorID with its comments, then
// releases the image. A failed blob delete does not resurrect the post.
func (s *ContentService) DeletePost(ctx context.Context, postID, actorID uint) (err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "ContentService", "DeletePost",
		attribute.Int64("post.id", int64(postID)),
	)
	defer func() { finish(err) }()

	deleted, err := s.posts.DeleteLocked(ctx, postID, func(p *models.Post) error {
		return s.guard.AssertOwner(actorID, p.UserID)
	})
	if err != nil {
		return err
	}

	releaseBlob(ctx, s.blobs, deleted.Image)
	return nil
}

// AddComment lets any identity comment on an existing post.
func (s *ContentService) AddComment(ctx context.Context, postID, actorID uint, text string) (*models.Comment, error) {
	if err := validation.ValidateComment(text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	author, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, UserID: actorID, Text: strings.TrimSpace(text)}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = author.Summary()
	return comment, nil
}
