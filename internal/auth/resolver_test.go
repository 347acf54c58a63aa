package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/auth/mock_auth"
	"github.com/deskline/helpdesk/internal/domain"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

func setupResolver(t *testing.T, ttl time.Duration) (*auth.Resolver, *mock_auth.MockClaimsSource, *mock_auth.MockRoleCache) {
	ctrl := gomock.NewController(t)
	t.Cleanup(func() { ctrl.Finish() })

	source := mock_auth.NewMockClaimsSource(ctrl)
	cache := mock_auth.NewMockRoleCache(ctrl)
	return auth.NewResolver(source, cache, ttl, nil), source, cache
}

func claimsFor(subject string, expiresIn time.Duration, roles ...domain.Role) *auth.Claims {
	return &auth.Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-" + subject,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
}

func TestResolveRoleFromClaims(t *testing.T) {
	cases := []struct {
		name  string
		roles []domain.Role
		want  domain.Role
	}{
		{"absent claim is customer", nil, domain.RoleCustomer},
		{"single agent", []domain.Role{domain.RoleSupportAgent}, domain.RoleSupportAgent},
		{"highest of several", []domain.Role{domain.RoleCustomer, domain.RoleAdministrator, domain.RoleSupportAgent}, domain.RoleAdministrator},
		{"unknown roles ignored", []domain.Role{"SUPERUSER"}, domain.RoleCustomer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver, source, cache := setupResolver(t, time.Hour)

			cache.EXPECT().Get(gomock.Any(), auth.CacheKey("tok")).Return(nil, false, nil)
			source.EXPECT().Claims(gomock.Any(), "tok").Return(claimsFor("u1", time.Hour, tc.roles...), nil)
			cache.EXPECT().Set(gomock.Any(), auth.CacheKey("tok"), gomock.Any(), gomock.Any()).Return(nil)

			identity, err := resolver.Resolve(context.Background(), "tok")
			require.NoError(t, err)
			assert.Equal(t, "u1", identity.SubjectID)
			assert.Equal(t, tc.want, identity.Role)
		})
	}
}

func TestResolveServesCachedIdentity(t *testing.T) {
	resolver, source, cache := setupResolver(t, time.Hour)

	cached := &auth.Identity{SubjectID: "u1", Role: domain.RoleSupportAgent, TokenID: "jti-u1", ExpiresAt: time.Now().Add(time.Minute)}
	cache.EXPECT().Get(gomock.Any(), auth.CacheKey("tok")).Return(cached, true, nil)
	source.EXPECT().Revoked(gomock.Any(), *cached).Return(false, nil)

	identity, err := resolver.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupportAgent, identity.Role)
}

func TestResolveRejectsCachedIdentityRevokedLater(t *testing.T) {
	resolver, source, cache := setupResolver(t, time.Hour)

	cached := &auth.Identity{SubjectID: "u1", Role: domain.RoleAdministrator, TokenID: "jti-u1", ExpiresAt: time.Now().Add(time.Minute)}
	cache.EXPECT().Get(gomock.Any(), auth.CacheKey("tok")).Return(cached, true, nil)
	source.EXPECT().Revoked(gomock.Any(), *cached).Return(true, nil)
	cache.EXPECT().Delete(gomock.Any(), auth.CacheKey("tok")).Return(errors.New("cache down"))

	_, err := resolver.Resolve(context.Background(), "tok")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestResolveCachedRevocationLookupFailure(t *testing.T) {
	resolver, source, cache := setupResolver(t, time.Hour)

	cached := &auth.Identity{SubjectID: "u1", Role: domain.RoleCustomer, ExpiresAt: time.Now().Add(time.Minute)}
	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cached, true, nil)
	source.EXPECT().Revoked(gomock.Any(), gomock.Any()).Return(false, errors.New("redis: i/o timeout"))

	_, err := resolver.Resolve(context.Background(), "tok")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDependencyUnavailable))
}

func TestResolveCacheTTLBoundedByTokenExpiry(t *testing.T) {
	resolver, source, cache := setupResolver(t, time.Hour)

	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, nil)
	source.EXPECT().Claims(gomock.Any(), "tok").Return(claimsFor("u1", 5*time.Minute), nil)
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ auth.Identity, ttl time.Duration) error {
			assert.LessOrEqual(t, ttl, 5*time.Minute)
			assert.Greater(t, ttl, time.Duration(0))
			return nil
		})

	_, err := resolver.Resolve(context.Background(), "tok")
	require.NoError(t, err)
}

func TestResolveSourceFailureIsDependencyUnavailable(t *testing.T) {
	resolver, source, cache := setupResolver(t, time.Hour)

	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, nil)
	source.EXPECT().Claims(gomock.Any(), "tok").Return(nil, errors.New("redis: connection refused"))

	_, err := resolver.Resolve(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDependencyUnavailable))
}

func TestResolveInvalidCredentialIsUnauthorized(t *testing.T) {
	resolver, source, cache := setupResolver(t, time.Hour)

	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, nil)
	source.EXPECT().Claims(gomock.Any(), "tok").Return(nil, fmt.Errorf("%w: expired", auth.ErrInvalidCredential))

	_, err := resolver.Resolve(context.Background(), "tok")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, err = resolver.Resolve(context.Background(), "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestResolveFallsThroughCacheErrors(t *testing.T) {
	resolver, source, cache := setupResolver(t, time.Hour)

	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, errors.New("cache down"))
	source.EXPECT().Claims(gomock.Any(), "tok").Return(claimsFor("u1", time.Hour, domain.RoleAdministrator), nil)
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache down"))

	identity, err := resolver.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdministrator, identity.Role)
}

func TestInvalidateDropsCacheEntry(t *testing.T) {
	resolver, _, cache := setupResolver(t, time.Hour)
	cache.EXPECT().Delete(gomock.Any(), auth.CacheKey("tok")).Return(nil)

	resolver.Invalidate(context.Background(), "tok")
}

func TestSessionLifecycleWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	tokens := auth.NewTokenManager("secret", "helpdesk", 30)
	store := auth.NewMemorySessionStore()
	source := auth.NewSessionClaimsSource(tokens, store)
	resolver := auth.NewResolver(source, store, time.Hour, nil)

	token, _, err := tokens.GenerateToken("agent-1", domain.RoleSupportAgent)
	require.NoError(t, err)

	identity, err := resolver.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{ID: "agent-1", Role: domain.RoleSupportAgent}, identity.Actor())

	require.NoError(t, source.Revoke(ctx, token))
	resolver.Invalidate(ctx, token)

	_, err = resolver.Resolve(ctx, token)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestRevokedTokenRejectedEvenWhenCacheKeepsIt(t *testing.T) {
	ctx := context.Background()
	tokens := auth.NewTokenManager("secret", "helpdesk", 30)
	store := auth.NewMemorySessionStore()
	source := auth.NewSessionClaimsSource(tokens, store)
	resolver := auth.NewResolver(source, store, time.Hour, nil)

	token, _, err := tokens.GenerateToken("cust-1")
	require.NoError(t, err)
	_, err = resolver.Resolve(ctx, token)
	require.NoError(t, err)

	// the cached entry is left in place
	require.NoError(t, source.Revoke(ctx, token))

	_, err = resolver.Resolve(ctx, token)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestRevokeSubjectCutsOffEveryEarlierToken(t *testing.T) {
	ctx := context.Background()
	tokens := auth.NewTokenManager("secret", "helpdesk", 30)
	store := auth.NewMemorySessionStore()
	source := auth.NewSessionClaimsSource(tokens, store)
	resolver := auth.NewResolver(source, store, time.Hour, nil)

	first, _, err := tokens.GenerateToken("agent-1", domain.RoleSupportAgent)
	require.NoError(t, err)
	second, _, err := tokens.GenerateToken("agent-1", domain.RoleSupportAgent)
	require.NoError(t, err)
	other, _, err := tokens.GenerateToken("agent-2", domain.RoleSupportAgent)
	require.NoError(t, err)

	_, err = resolver.Resolve(ctx, first)
	require.NoError(t, err)

	require.NoError(t, source.RevokeSubject(ctx, "agent-1"))

	for _, token := range []string{first, second} {
		_, err = resolver.Resolve(ctx, token)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
	}
	identity, err := resolver.Resolve(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "agent-2", identity.SubjectID)
}

func TestResolveWithUnreachableRedisIsDependencyUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	tokens := auth.NewTokenManager("secret", "helpdesk", 30)
	store := auth.NewRedisSessionStore(client, "test")
	resolver := auth.NewResolver(auth.NewSessionClaimsSource(tokens, store), store, time.Hour, nil)

	token, _, err := tokens.GenerateToken("cust-1")
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), token)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDependencyUnavailable))
}
