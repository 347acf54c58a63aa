package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk/internal/policy"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// RequireAction rejects callers whose role can never perform action.
// Ownership-dependent checks stay in the services.
func RequireAction(action policy.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := policy.Require(actor, action, policy.ResourceContext{OwnerID: actor.ID}); err != nil {
			return err
		}
		return c.Next()
	}
}
