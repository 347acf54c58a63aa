package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk/internal/domain"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

const (
	actorKey      = "auth_actor"
	credentialKey = "auth_credential"
)

// AuthMiddleware validates bearer tokens and stores the resolved actor.
type AuthMiddleware struct {
	resolver *Resolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver *Resolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("invalid authorization header")
	}
	credential := strings.TrimSpace(parts[1])

	identity, err := m.resolver.Resolve(c.UserContext(), credential)
	if err != nil {
		return err
	}

	c.Locals(actorKey, identity.Actor())
	c.Locals(credentialKey, credential)
	return c.Next()
}

// ActorFromContext retrieves the authenticated caller.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(actorKey).(domain.Actor)
	return actor, ok
}

// CredentialFromContext returns the bearer token the request was authenticated with.
func CredentialFromContext(c *fiber.Ctx) (string, bool) {
	credential, ok := c.Locals(credentialKey).(string)
	return credential, ok && credential != ""
}
