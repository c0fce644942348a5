package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Denylist invalidates bearer tokens before their natural expiry. Logout and
// password change revoke every token issued up to that instant; Verify-time
// lookups reject any token whose issuance predates the revocation mark.
// Entries carry a TTL equal to the longest outstanding token lifetime, so the
// list stays small without a background sweeper.
type Denylist interface {
	Revoke(ctx context.Context, subject string, at time.Time, ttl time.Duration) error
	IsRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error)
}

// NewDenylist picks the Redis backend when an address is configured and the
// in-process one otherwise, so single-node deployments need no extra infra.
func NewDenylist(redisAddr string) (Denylist, error) {
	if redisAddr == "" {
		return NewMemoryDenylist(), nil
	}
	return NewRedisDenylist(redisAddr)
}

type memoryDenylist struct {
	mu      sync.RWMutex
	revoked map[string]memoryEntry
}

type memoryEntry struct {
	at      time.Time
	expires time.Time
}

func NewMemoryDenylist() Denylist {
	return &memoryDenylist{revoked: make(map[string]memoryEntry)}
}

func (d *memoryDenylist) Revoke(_ context.Context, subject string, at time.Time, ttl time.Duration) error {
	// JWT iat claims carry second precision; align the mark with it so a
	// token minted in the same second as the revocation is not rejected.
	at = at.Truncate(time.Second)

	d.mu.Lock()
	defer d.mu.Unlock()

	// Keep the latest revocation mark; an older one is subsumed by it.
	if e, ok := d.revoked[subject]; ok && e.at.After(at) {
		return nil
	}
	d.revoked[subject] = memoryEntry{at: at, expires: time.Now().Add(ttl)}
	d.prune()
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, subject string, issuedAt time.Time) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.revoked[subject]
	if !ok || time.Now().After(e.expires) {
		return false, nil
	}
	// Strictly-before: tokens minted in the same instant as the revocation
	// (e.g. the fresh pair issued right after a password change) stay valid.
	return issuedAt.Before(e.at), nil
}

// prune drops expired entries; called under the write lock.
func (d *memoryDenylist) prune() {
	now := time.Now()
	for subject, e := range d.revoked {
		if now.After(e.expires) {
			delete(d.revoked, subject)
		}
	}
}

type redisDenylist struct {
	client *redis.Client
}

func NewRedisDenylist(addr string) (Denylist, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &redisDenylist{client: client}, nil
}

func denylistKey(subject string) string {
	return "revoked:" + subject
}

func (d *redisDenylist) Revoke(ctx context.Context, subject string, at time.Time, ttl time.Duration) error {
	// Second precision, matching JWT iat claims.
	return d.client.Set(ctx, denylistKey(subject), at.Truncate(time.Second).UnixNano(), ttl).Err()
}

func (d *redisDenylist) IsRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error) {
	nanos, err := d.client.Get(ctx, denylistKey(subject)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading denylist: %w", err)
	}
	return issuedAt.Before(time.Unix(0, nanos)), nil
}
