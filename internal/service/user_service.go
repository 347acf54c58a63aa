package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/policy"
	"github.com/deskline/helpdesk/internal/repository"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

const usernameMaxLength = 150

// SubjectRevoker invalidates every live session of a user.
type SubjectRevoker interface {
	RevokeSubject(ctx context.Context, subjectID string) error
}

// UserService implements administrator user management.
type UserService struct {
	users      repository.UserRepository
	sessions   SubjectRevoker
	bcryptCost int
	logger     *zap.Logger
	guard      guard
	now        func() time.Time
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Sessions   SubjectRevoker
	BcryptCost int
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// UserCreateInput describes an administrator-created account.
type UserCreateInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// UserUpdateInput carries the mutable user fields; nil leaves a field as is.
type UserUpdateInput struct {
	Email    *string
	Role     *domain.Role
	Password *string
}

// NewUserService creates the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:      deps.UserRepo,
		sessions:   deps.Sessions,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
		guard:      newGuard(deps.Metrics, logger),
		now:        time.Now,
	}
}

// CreateUser adds an account with any role.
func (s *UserService) CreateUser(ctx context.Context, actor domain.Actor, input UserCreateInput) (*domain.User, error) {
	if err := s.guard.require(actor, policy.ActionManageUsers, ""); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = domain.RoleCustomer
	}
	if !input.Role.Valid() {
		return nil, validation("role", "role must be one of CUSTOMER, SUPPORT_AGENT, ADMINISTRATOR")
	}
	user, err := newAccount(input.Username, input.Email, input.Password, input.Role, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapUserError(err, user.Username)
	}
	s.logger.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("actor_id", actor.ID))
	return user, nil
}

// ListUsers lists accounts, optionally narrowed to one role.
func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor, role *domain.Role, page Page) ([]domain.User, error) {
	if err := s.guard.require(actor, policy.ActionManageUsers, ""); err != nil {
		return nil, err
	}
	if role != nil && !role.Valid() {
		return nil, validation("role", "unknown role "+string(*role))
	}
	users, err := s.users.List(ctx, repository.UserFilter{Role: role, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, mapStoreError(err, "user", "")
	}
	return users, nil
}

// GetUser fetches one account.
func (s *UserService) GetUser(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	if err := s.guard.require(actor, policy.ActionManageUsers, ""); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "user", id)
	}
	return user, nil
}

// UpdateUser changes email, role or password. A role change takes effect
// at the user's next login, when a token with the new role is issued.
func (s *UserService) UpdateUser(ctx context.Context, actor domain.Actor, id string, input UserUpdateInput) (*domain.User, error) {
	if err := s.guard.require(actor, policy.ActionManageUsers, ""); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "user", id)
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, validation("role", "role must be one of CUSTOMER, SUPPORT_AGENT, ADMINISTRATOR")
		}
		user.Role = *input.Role
	}
	if input.Password != nil {
		if v := auth.PasswordViolation(*input.Password); v != "" {
			return nil, validation("password", v)
		}
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapStoreError(err, "user", id)
	}
	s.logger.Info("user updated",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("actor_id", actor.ID))
	return user, nil
}

// DeactivateUser retires an account. Its tickets and comments stay in
// place, sign-in is refused from now on and every token issued so far stops
// working. Deactivating an inactive account is a no-op.
func (s *UserService) DeactivateUser(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	if err := s.guard.require(actor, policy.ActionManageUsers, ""); err != nil {
		return nil, err
	}
	if id == actor.ID {
		return nil, validation("id", "administrators cannot deactivate their own account")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "user", id)
	}
	if !user.Active() {
		return user, nil
	}

	if s.sessions != nil {
		if err := s.sessions.RevokeSubject(ctx, user.ID); err != nil {
			s.logger.Error("session revocation failed", zap.String("user_id", user.ID), zap.Error(err))
			return nil, apperrors.NewDependencyUnavailable("session store", err)
		}
	}
	now := s.now()
	user.DeactivatedAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapStoreError(err, "user", id)
	}
	s.logger.Info("user deactivated",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("actor_id", actor.ID))
	return user, nil
}

// EnsureAdministrator creates an ADMINISTRATOR named username unless an
// account with that name already exists. It runs at startup, outside any
// session, and reports whether an account was created.
func (s *UserService) EnsureAdministrator(ctx context.Context, username, password string) (bool, error) {
	existing, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdministrator || !existing.Active() {
			s.logger.Warn("bootstrap account exists but is not an active administrator", zap.String("user_id", existing.ID))
		}
		return false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return false, mapStoreError(err, "user", "")
	}

	user, err := newAccount(username, "", password, domain.RoleAdministrator, s.bcryptCost)
	if err != nil {
		return false, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, mapStoreError(err, "user", "")
	}
	s.logger.Info("bootstrap administrator created", zap.String("user_id", user.ID))
	return true, nil
}

func newAccount(username, email, password string, role domain.Role, cost int) (*domain.User, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return nil, validation("username", "username must not be empty")
	case utf8.RuneCountInString(username) > usernameMaxLength:
		return nil, validation("username", "username must be at most 150 characters")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if v := auth.PasswordViolation(password); v != "" {
		return nil, validation("password", v)
	}
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.User{Username: username, Email: email, PasswordHash: hash, Role: role}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", validation("email", "email must be a valid address")
	}
	return email, nil
}

func mapUserError(err error, username string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict("username already taken", map[string]any{"username": username})
	}
	return mapStoreError(err, "user", "")
}
