package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/repository"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// SessionRevoker blocks a credential before it expires.
type SessionRevoker interface {
	Revoke(ctx context.Context, credential string) error
}

// SessionInvalidator drops whatever was cached for a credential.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, credential string)
}

// AuthService coordinates registration, login and logout.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	revoker    SessionRevoker
	cache      SessionInvalidator
	bcryptCost int
	logger     *zap.Logger

	// decoyHash is checked for unknown usernames so a failed login takes
	// the same time whether or not the account exists.
	decoyHash string
	matches   func(hashed, plain string) bool
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Revoker      SessionRevoker
	Invalidator  SessionInvalidator
	BcryptCost   int
	Logger       *zap.Logger
}

// AuthResult is a freshly issued session.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// RegisterInput describes a customer self sign-up.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	decoy, err := auth.DecoyHash(deps.BcryptCost)
	if err != nil {
		logger.Warn("decoy password hash unavailable", zap.Error(err))
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.TokenManager,
		revoker:    deps.Revoker,
		cache:      deps.Invalidator,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
		decoyHash:  decoy,
		matches:    auth.PasswordMatches,
	}
}

// Register creates a CUSTOMER account and signs it in. Staff accounts are
// only created by administrators.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	user, err := newAccount(input.Username, input.Email, input.Password, domain.RoleCustomer, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapUserError(err, user.Username)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issue(user)
}

// Login verifies a password and issues a token carrying the stored role.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.matches(s.decoyHash, password)
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, mapStoreError(err, "user", "")
	}
	if !s.matches(user.PasswordHash, password) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active() {
		return nil, apperrors.NewUnauthorized("account deactivated")
	}
	return s.issue(user)
}

// Logout revokes the credential and drops its cached role.
func (s *AuthService) Logout(ctx context.Context, credential string) error {
	if err := s.revoker.Revoke(ctx, credential); err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			return apperrors.NewUnauthorized("invalid or expired token")
		}
		return apperrors.NewDependencyUnavailable("session store", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, credential)
	}
	return nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
