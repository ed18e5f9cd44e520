package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moody/internal/shared"
	"github.com/go-redis/redis/v8"
)

// Revoker records logged out token ids until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	Revoked(ctx context.Context, id string) (bool, error)
	Close() error
}

// NewRevoker returns a [RedisRevoker] when cfg names an address, and a [MemoryRevoker] otherwise.
func NewRevoker(ctx context.Context, cfg shared.RedisConfig, logger *log.Logger) (Revoker, error) {
	if cfg.Addr == "" {
		logger.Debug("redis not configured, using in-memory token blocklist")
		return NewMemoryRevoker(time.Now), nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis at %s: %v", shared.ErrServiceUnavailable, cfg.Addr, err)
	}
	logger.Info("using redis token blocklist", "addr", cfg.Addr)
	return NewRedisRevoker(client, time.Now), nil
}

// MemoryRevoker keeps revoked ids in process memory.
type MemoryRevoker struct {
	mu  sync.Mutex
	ids map[string]time.Time
	now func() time.Time
}

// NewMemoryRevoker creates an empty [MemoryRevoker].
func NewMemoryRevoker(now func() time.Time) *MemoryRevoker {
	return &MemoryRevoker{ids: make(map[string]time.Time), now: now}
}

// Revoke records id until the given time. Expired entries are pruned on each call.
func (m *MemoryRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.ids {
		if !now.Before(exp) {
			delete(m.ids, k)
		}
	}
	if now.Before(until) {
		m.ids[id] = until
	}
	return nil
}

// Revoked reports whether id is still revoked.
func (m *MemoryRevoker) Revoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.ids[id]
	return ok && m.now().Before(exp), nil
}

func (m *MemoryRevoker) Close() error { return nil }

// RedisRevoker stores revoked ids as keys that expire with the token.
type RedisRevoker struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRevoker wraps client.
func NewRedisRevoker(client *redis.Client, now func() time.Time) *RedisRevoker {
	return &RedisRevoker{client: client, now: now}
}

func revokedKey(id string) string { return "revoked:" + id }

// Revoke sets a key for id that expires at until.
func (r *RedisRevoker) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKey(id), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: revoke token: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}

// Revoked reports whether a key exists for id.
func (r *RedisRevoker) Revoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: check token: %v", shared.ErrServiceUnavailable, err)
	}
	return n > 0, nil
}

// Close closes the redis client.
func (r *RedisRevoker) Close() error { return r.client.Close() }
