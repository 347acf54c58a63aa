//go:generate mockgen -destination=mock_auth/mock_auth.go -package=mock_auth github.com/deskline/helpdesk/internal/auth ClaimsSource,RoleCache

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/domain"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// ErrInvalidCredential marks a credential that is malformed, expired or revoked.
var ErrInvalidCredential = errors.New("auth: invalid credential")

// Identity is the effective role a session acts under.
type Identity struct {
	SubjectID string      `json:"subject_id"`
	Role      domain.Role `json:"role"`
	TokenID   string      `json:"token_id"`
	IssuedAt  time.Time   `json:"issued_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Actor converts the identity for the service layer.
func (i Identity) Actor() domain.Actor {
	return domain.Actor{ID: i.SubjectID, Role: i.Role}
}

// ClaimsSource yields the signed claims behind a credential. Any error not
// wrapping ErrInvalidCredential means the source itself failed. Revoked
// rechecks an identity served from cache.
type ClaimsSource interface {
	Claims(ctx context.Context, credential string) (*Claims, error)
	Revoked(ctx context.Context, identity Identity) (bool, error)
}

// SessionClaimsSource decodes bearer tokens and rejects revoked ones.
type SessionClaimsSource struct {
	tokens  *TokenManager
	revoked RevocationStore
}

// NewSessionClaimsSource wires the token decoder to a revocation store.
func NewSessionClaimsSource(tokens *TokenManager, revoked RevocationStore) *SessionClaimsSource {
	return &SessionClaimsSource{tokens: tokens, revoked: revoked}
}

func (s *SessionClaimsSource) Claims(ctx context.Context, credential string) (*Claims, error) {
	claims, err := s.tokens.ParseToken(credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	revoked, err := s.isRevoked(ctx, claims.ID, claims.Subject, issuedAt)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrInvalidCredential)
	}
	return claims, nil
}

func (s *SessionClaimsSource) Revoked(ctx context.Context, identity Identity) (bool, error) {
	return s.isRevoked(ctx, identity.TokenID, identity.SubjectID, identity.IssuedAt)
}

// isRevoked reports whether the token id was logged out or the subject's
// tokens were cut off at or after issuedAt.
func (s *SessionClaimsSource) isRevoked(ctx context.Context, tokenID, subjectID string, issuedAt time.Time) (bool, error) {
	revoked, err := s.revoked.IsRevoked(ctx, tokenID)
	if err != nil {
		return false, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return true, nil
	}
	cutoff, ok, err := s.revoked.SubjectRevokedAt(ctx, subjectID)
	if err != nil {
		return false, fmt.Errorf("subject revocation lookup: %w", err)
	}
	return ok && !issuedAt.After(cutoff), nil
}

// Revoke blocks the credential's token id until it would have expired anyway.
func (s *SessionClaimsSource) Revoke(ctx context.Context, credential string) error {
	claims, err := s.tokens.ParseToken(credential)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// RevokeSubject blocks every token issued to subjectID so far. The cutoff is
// kept for one token lifetime, after which no such token can still be valid.
func (s *SessionClaimsSource) RevokeSubject(ctx context.Context, subjectID string) error {
	now := s.tokens.now()
	return s.revoked.RevokeSubject(ctx, subjectID, now, now.Add(s.tokens.ttl))
}

// Resolver turns credentials into identities, caching the result per session.
type Resolver struct {
	source ClaimsSource
	cache  RoleCache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewResolver builds a resolver. A nil cache disables caching.
func NewResolver(source ClaimsSource, cache RoleCache, ttl time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{source: source, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// CacheKey fingerprints a credential so raw tokens never become cache keys.
func CacheKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

// Resolve returns the effective identity for credential. Absent role claims
// resolve to CUSTOMER; several roles resolve to the most privileged one.
func (r *Resolver) Resolve(ctx context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, apperrors.NewUnauthorized("missing credential")
	}
	key := CacheKey(credential)

	if r.cache != nil {
		cached, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			r.logger.Warn("role cache read failed", zap.Error(err))
		case ok && r.now().Before(cached.ExpiresAt):
			return r.recheck(ctx, key, *cached)
		}
	}

	claims, err := r.source.Claims(ctx, credential)
	if err != nil {
		if errors.Is(err, ErrInvalidCredential) {
			return Identity{}, apperrors.NewUnauthorized("invalid or expired token")
		}
		r.logger.Error("claims source failed", zap.Error(err))
		return Identity{}, apperrors.NewDependencyUnavailable("claims source", err)
	}

	identity := Identity{SubjectID: claims.Subject, Role: domain.HighestRole(claims.Roles), TokenID: claims.ID}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	if r.cache != nil {
		ttl := identity.ExpiresAt.Sub(r.now())
		if r.ttl > 0 && r.ttl < ttl {
			ttl = r.ttl
		}
		if ttl > 0 {
			if err := r.cache.Set(ctx, key, identity, ttl); err != nil {
				r.logger.Warn("role cache write failed", zap.Error(err))
			}
		}
	}
	return identity, nil
}

// recheck serves a cached identity unless it was revoked after caching.
func (r *Resolver) recheck(ctx context.Context, key string, identity Identity) (Identity, error) {
	revoked, err := r.source.Revoked(ctx, identity)
	if err != nil {
		r.logger.Error("revocation check failed", zap.Error(err))
		return Identity{}, apperrors.NewDependencyUnavailable("claims source", err)
	}
	if revoked {
		if err := r.cache.Delete(ctx, key); err != nil {
			r.logger.Warn("role cache invalidate failed", zap.Error(err))
		}
		return Identity{}, apperrors.NewUnauthorized("invalid or expired token")
	}
	return identity, nil
}

// Invalidate drops any cached identity for credential.
func (r *Resolver) Invalidate(ctx context.Context, credential string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, CacheKey(credential)); err != nil {
		r.logger.Warn("role cache invalidate failed", zap.Error(err))
	}
}
