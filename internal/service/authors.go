// Package service implements the application's use cases on top of the
// repositories.
package service

import (
	"context"

	"socialconnect/internal/models"
	"socialconnect/internal/repository"
)

// authorResolver attaches display fields of authors to content in one
// batched lookup.
type authorResolver struct {
	users repository.UserRepository
}

func (r authorResolver) lookup(ctx context.Context, ids map[uint]struct{}) (map[uint]*models.AuthorSummary, error) {
	list := make([]uint, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	users, err := r.users.GetByIDs(ctx, list)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]*models.AuthorSummary, len(users))
	for id, u := range users {
		out[id] = u.Summary()
	}
	return out, nil
}

func (r authorResolver) posts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make(map[uint]struct{})
	for _, p := range posts {
		ids[p.UserID] = struct{}{}
		for _, c := range p.Comments {
			ids[c.UserID] = struct{}{}
		}
	}
	authors, err := r.lookup(ctx, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].Author = authors[posts[i].UserID]
		for j := range posts[i].Comments {
			posts[i].Comments[j].Author = authors[posts[i].Comments[j].UserID]
		}
	}
	return nil
}

func (r authorResolver) stories(ctx context.Context, stories []models.Story) error {
	if len(stories) == 0 {
		return nil
	}
	ids := make(map[uint]struct{})
	for _, s := range stories {
		ids[s.UserID] = struct{}{}
	}
	authors, err := r.lookup(ctx, ids)
	if err != nil {
		return err
	}
	for i := range stories {
		stories[i].Author = authors[stories[i].UserID]
	}
	return nil
}
