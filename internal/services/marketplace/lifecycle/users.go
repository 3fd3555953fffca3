package lifecycle

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
)

// RegisterInput is the profile a token subject registers.
type RegisterInput struct {
	DisplayName string
	Email       string
	Role        string
}

// RegisterUser creates the profile for subjectID. The admin role can only
// be registered by a subject whose token already claims it.
func (c *Coordinator) RegisterUser(ctx context.Context, subjectID string, claimedRole string, in RegisterInput) (u user.User, err error) {
	ctx, span := c.start(ctx, "RegisterUser", attribute.String("user.id", subjectID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return user.User{}, err
	}

	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return user.User{}, apperrors.New(apperrors.CodeUnauthenticated, "subject is required")
	}
	role, ok := user.ParseRole(in.Role)
	if !ok {
		return user.User{}, apperrors.Validation("role", "role must be student or customer")
	}
	if role.IsAdmin() {
		if claimed, _ := user.ParseRole(claimedRole); !claimed.IsAdmin() {
			return user.User{}, forbidden("admin role cannot be self-assigned")
		}
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		return user.User{}, apperrors.Validation("display_name", "display name is required")
	}

	u = user.User{
		ID:          subjectID,
		DisplayName: displayName,
		Email:       strings.TrimSpace(in.Email),
		Role:        role,
		CreatedAt:   c.now(),
	}
	if err := c.store.PutUser(ctx, u); err != nil {
		return user.User{}, mapStoreError(err, "user")
	}
	return u, nil
}

// GetUser returns a registered user. Any registered actor may read profiles.
func (c *Coordinator) GetUser(ctx context.Context, actorID, userID string) (u user.User, err error) {
	ctx, span := c.start(ctx, "GetUser", attribute.String("user.id", userID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return user.User{}, err
	}
	if _, err := c.actor(ctx, actorID); err != nil {
		return user.User{}, err
	}
	userID, err = requireID("user_id", userID)
	if err != nil {
		return user.User{}, err
	}
	u, err = c.store.GetUser(ctx, userID)
	if err != nil {
		return user.User{}, mapStoreError(err, "user")
	}
	return u, nil
}

// Me returns the stored profile of actorID.
func (c *Coordinator) Me(ctx context.Context, actorID string) (user.User, error) {
	if err := c.ready(); err != nil {
		return user.User{}, err
	}
	return c.actor(ctx, actorID)
}
