// Package authz gates mutations on content and profiles.
package authz

import "socialconnect/internal/models"

// Guard decides whether an actor may mutate a resource it is asked about.
type Guard interface {
	AssertOwner(actorID, authorID uint) error
}

// OwnerGuard allows a mutation only when the actor authored the resource.
type OwnerGuard struct{}

// NewOwnerGuard returns the ownership guard.
func NewOwnerGuard() Guard {
	return OwnerGuard{}
}

func (OwnerGuard) AssertOwner(actorID, authorID uint) error {
	if actorID == 0 || actorID != authorID {
		return models.NewForbiddenError("You are not allowed to modify this resource")
	}
	return nil
}
