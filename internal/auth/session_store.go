package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoleCache stores resolved identities keyed by a credential fingerprint.
type RoleCache interface {
	Get(ctx context.Context, key string) (*Identity, bool, error)
	Set(ctx context.Context, key string, identity Identity, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RevocationStore remembers token ids that were logged out before expiry
// and subjects whose earlier tokens were all cut off.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	RevokeSubject(ctx context.Context, subjectID string, at, until time.Time) error
	SubjectRevokedAt(ctx context.Context, subjectID string) (time.Time, bool, error)
}

// RedisSessionStore implements RoleCache and RevocationStore on Redis.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisSessionStore builds a store that namespaces keys under prefix.
func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisSessionStore) roleKey(key string) string   { return s.prefix + ":role:" + key }
func (s *RedisSessionStore) revokedKey(id string) string { return s.prefix + ":revoked:" + id }
func (s *RedisSessionStore) subjectKey(id string) string { return s.prefix + ":subject:" + id }

func (s *RedisSessionStore) Get(ctx context.Context, key string) (*Identity, bool, error) {
	raw, err := s.client.Get(ctx, s.roleKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var identity Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, false, err
	}
	return &identity, true, nil
}

func (s *RedisSessionStore) Set(ctx context.Context, key string, identity Identity, ttl time.Duration) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.roleKey(key), payload, ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.roleKey(key)).Err()
}

func (s *RedisSessionStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.revokedKey(tokenID), "1", ttl).Err()
}

func (s *RedisSessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSessionStore) RevokeSubject(ctx context.Context, subjectID string, at, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.subjectKey(subjectID), strconv.FormatInt(at.UnixNano(), 10), ttl).Err()
}

func (s *RedisSessionStore) SubjectRevokedAt(ctx context.Context, subjectID string) (time.Time, bool, error) {
	nanos, err := s.client.Get(ctx, s.subjectKey(subjectID)).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(0, nanos), true, nil
}

// MemorySessionStore is the in-process RoleCache and RevocationStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	now      func() time.Time
	roles    map[string]memoryEntry
	revoked  map[string]time.Time
	subjects map[string]subjectCutoff
}

type memoryEntry struct {
	identity  Identity
	expiresAt time.Time
}

type subjectCutoff struct {
	at    time.Time
	until time.Time
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		now:      time.Now,
		roles:    make(map[string]memoryEntry),
		revoked:  make(map[string]time.Time),
		subjects: make(map[string]subjectCutoff),
	}
}

func (s *MemorySessionStore) Get(_ context.Context, key string) (*Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.roles[key]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.roles, key)
		return nil, false, nil
	}
	identity := entry.identity
	return &identity, true, nil
}

func (s *MemorySessionStore) Set(_ context.Context, key string, identity Identity, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[key] = memoryEntry{identity: identity, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, key)
	return nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until.After(s.now()) {
		s.revoked[tokenID] = until
	}
	return nil
}

func (s *MemorySessionStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessionStore) RevokeSubject(_ context.Context, subjectID string, at, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until.After(s.now()) {
		s.subjects[subjectID] = subjectCutoff{at: at, until: until}
	}
	return nil
}

func (s *MemorySessionStore) SubjectRevokedAt(_ context.Context, subjectID string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff, ok := s.subjects[subjectID]
	if !ok {
		return time.Time{}, false, nil
	}
	if !s.now().Before(cutoff.until) {
		delete(s.subjects, subjectID)
		return time.Time{}, false, nil
	}
	return cutoff.at, true, nil
}
