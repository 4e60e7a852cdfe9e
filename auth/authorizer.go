// Package auth implements the security seam of the stream endpoint: bearer
// token verification to establish the caller's identity, and the channel
// access check the registry consults before a stream is registered.
package auth

import (
	"context"

	"github.com/skillsenselab/streamhub/errors"
	"github.com/skillsenselab/streamhub/stream"
)

// OwnerAuthorizer enforces the baseline channel access rule: a user
// channel can only be streamed by its owner. Global, workspace, and
// conversation channels pass through; membership checks for those scopes
// belong to the platform's ACL service behind the same interface.
type OwnerAuthorizer struct{}

var _ stream.Authorizer = (*OwnerAuthorizer)(nil)

// NewOwnerAuthorizer creates the default authorizer.
func NewOwnerAuthorizer() *OwnerAuthorizer {
	return &OwnerAuthorizer{}
}

// Authorize refuses user channels not owned by the caller.
func (a *OwnerAuthorizer) Authorize(_ context.Context, userID string, key stream.ChannelKey) error {
	if key.Type == stream.TypeUser && key.ResourceID != userID {
		return errors.AuthorizationDenied(userID, key.String())
	}
	return nil
}

// AllowAll authorizes every registration. For tests and trusted internal
// deployments.
type AllowAll struct{}

var _ stream.Authorizer = AllowAll{}

// Authorize always succeeds.
func (AllowAll) Authorize(context.Context, string, stream.ChannelKey) error {
	return nil
}

// DenyAll refuses every registration. For tests.
type DenyAll struct{}

var _ stream.Authorizer = DenyAll{}

// Authorize always fails.
func (DenyAll) Authorize(_ context.Context, userID string, key stream.ChannelKey) error {
	return errors.AuthorizationDenied(userID, key.String())
}
