package service

import (
	"context"
	"strings"

	"socialconnect/internal/models"
	"socialconnect/internal/observability"
	"socialconnect/internal/repository"
	"socialconnect/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// GraphService maintains the follow graph and identity search.
type GraphService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
}

func NewGraphService(follows repository.FollowRepository, users repository.UserRepository) *GraphService {
	return &GraphService{follows: follows, users: users}
}

// Follow adds the edge actor -> target.
func (s *GraphService) Follow(ctx context.Context, actorID, targetID uint) (err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "GraphService", "Follow",
		attribute.Int64("actor.id", int64(actorID)),
		attribute.Int64("target.id", int64(targetID)),
	)
	defer func() {
		observability.GraphMutations.WithLabelValues("follow", mutationResult(err)).Inc()
		finish(err)
	}()

	if actorID == targetID {
		return models.NewInvalidOperationError("You cannot follow yourself")
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.follows.Follow(ctx, actorID, targetID)
}

// Unfollow removes the edge actor -> target. It fails with NOT_FOUND when
// no such edge exists.
func (s *GraphService) Unfollow(ctx context.Context, actorID, targetID uint) (err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "GraphService", "Unfollow",
		attribute.Int64("actor.id", int64(actorID)),
		attribute.Int64("target.id", int64(targetID)),
	)
	defer func() {
		observability.GraphMutations.WithLabelValues("unfollow", mutationResult(err)).Inc()
		finish(err)
	}()

	// A self edge can never exist, so unfollowing oneself is NOT_FOUND.
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.follows.Unfollow(ctx, actorID, targetID)
}

// FollowingOf lists the ids userID follows.
func (s *GraphService) FollowingOf(ctx context.Context, userID uint) ([]uint, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.FollowingOf(ctx, userID)
}

// FollowersOf lists the ids following userID.
func (s *GraphService) FollowersOf(ctx context.Context, userID uint) ([]uint, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.FollowersOf(ctx, userID)
}

// SearchIdentities matches query against usernames and full names.
func (s *GraphService) SearchIdentities(ctx context.Context, query string, page models.Page) ([]*models.AuthorSummary, error) {
	if err := validation.ValidateSearchQuery(query); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	users, err := s.users.Search(ctx, strings.TrimSpace(query), page)
	if err != nil {
		return nil, err
	}
	out := make([]*models.AuthorSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func mutationResult(err error) string {
	if err == nil {
		return "ok"
	}
	return models.ErrorCode(err)
}
