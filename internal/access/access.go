// Package access decides whether a user may work on a project's position.
package access

import (
	"context"

	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/storage"
)

type Checker struct {
	store *storage.Store
}

func NewChecker(store *storage.Store) *Checker {
	return &Checker{store: store}
}

// AuthorizeProject returns the project when userID owns it or is a member.
func (c *Checker) AuthorizeProject(ctx context.Context, userID, projectID string) (*storage.Project, error) {
	if userID == "" {
		return nil, errors.PermissionDeniedf("missing user identity")
	}
	project, err := c.store.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanAccess(userID) {
		return nil, errors.PermissionDeniedf("you don't have permission to access this project")
	}
	return project, nil
}

// Authorize returns the project and the position when the user may access
// the project and the project lists the position.
func (c *Checker) Authorize(ctx context.Context, userID, projectID, positionID string) (*storage.Project, *storage.Position, error) {
	project, err := c.AuthorizeProject(ctx, userID, projectID)
	if err != nil {
		return nil, nil, err
	}
	if !project.HasPosition(positionID) {
		return nil, nil, errors.PermissionDeniedf("you don't have permission to access this position")
	}
	position, err := c.store.Positions.Get(ctx, positionID)
	if err != nil {
		return nil, nil, err
	}
	return project, position, nil
}
