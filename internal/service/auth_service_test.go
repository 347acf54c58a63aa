package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/repository/memory"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

func setupAuth(t *testing.T) (*AuthService, *auth.Resolver) {
	t.Helper()
	store := memory.NewStore()
	sessions := auth.NewMemorySessionStore()
	tokens := auth.NewTokenManager("test-secret", "helpdesk", 15)
	source := auth.NewSessionClaimsSource(tokens, sessions)
	resolver := auth.NewResolver(source, sessions, time.Minute, nil)
	svc := NewAuthService(AuthDependencies{
		UserRepo:     store.Users(),
		TokenManager: tokens,
		Revoker:      source,
		Invalidator:  resolver,
		BcryptCost:   4,
	})
	return svc, resolver
}

func TestRegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	svc, resolver := setupAuth(t)

	registered, err := svc.Register(ctx, RegisterInput{Username: "carol", Email: "carol@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, registered.User.Role)
	assert.NotEmpty(t, registered.Token)

	_, err = svc.Register(ctx, RegisterInput{Username: "carol", Password: "s3cret-pass"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	_, err = svc.Login(ctx, "carol", "wrong-pass")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
	_, err = svc.Login(ctx, "nobody", "whatever1")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	session, err := svc.Login(ctx, " carol ", "s3cret-pass")
	require.NoError(t, err)

	identity, err := resolver.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, identity.SubjectID)
	assert.Equal(t, domain.RoleCustomer, identity.Role)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = resolver.Resolve(ctx, session.Token)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	err = svc.Logout(ctx, "garbage")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestLoginChecksPasswordForUnknownUsers(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAuth(t)
	_, err := svc.Register(ctx, RegisterInput{Username: "carol", Password: "s3cret-pass"})
	require.NoError(t, err)

	var compared []string
	svc.matches = func(hashed, plain string) bool {
		compared = append(compared, hashed)
		return auth.PasswordMatches(hashed, plain)
	}

	_, err = svc.Login(ctx, "nobody", "s3cret-pass")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
	require.Len(t, compared, 1)
	assert.Equal(t, svc.decoyHash, compared[0])

	cost, err := bcrypt.Cost([]byte(svc.decoyHash))
	require.NoError(t, err)
	assert.Equal(t, 4, cost)

	_, err = svc.Login(ctx, "carol", "wrong-pass")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
	assert.Len(t, compared, 2)
}

func TestLoginRefusedForDeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAuth(t)
	registered, err := svc.Register(ctx, RegisterInput{Username: "carol", Password: "s3cret-pass"})
	require.NoError(t, err)

	user := registered.User
	now := time.Now()
	user.DeactivatedAt = &now
	require.NoError(t, svc.users.Update(ctx, user))

	_, err = svc.Login(ctx, "carol", "s3cret-pass")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}
