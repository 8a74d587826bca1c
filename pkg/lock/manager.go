// Package lock provides Redis-backed idempotency locks keyed on change
// intent (device + action + payload fingerprint). A held lock means the
// same change is already in flight somewhere in the fleet.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/fibron-net/fibron/pkg/command"
	"github.com/fibron-net/fibron/pkg/util"
)

const (
	// DefaultTTL bounds how long a crashed holder can block the fleet.
	DefaultTTL = 5 * time.Minute

	keyPrefix = "FIBRON_LOCK|"
)

// releaseScript deletes the lock only when the token matches, so a
// holder whose lock expired cannot delete a successor's lock.
var releaseScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == false then
	return -1
end
if current ~= ARGV[1] then
	return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

// Handle represents one acquired lock. Unprotected handles were granted
// without backend coordination because the backend was unreachable.
type Handle struct {
	Key         string
	Token       string
	Unprotected bool
}

// Manager acquires and releases idempotency locks.
type Manager struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewManager creates a lock manager against the given Redis address.
func NewManager(addr string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		client: redis.NewClient(&redis.Options{
			Addr:        addr,
			DialTimeout: 3 * time.Second,
		}),
		ttl: ttl,
	}
}

// NewManagerWithClient creates a lock manager on an existing client.
func NewManagerWithClient(client redis.UniversalClient, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{client: client, ttl: ttl}
}

// Key derives the lock key for a change intent. Identical intent always
// produces the identical key, regardless of payload field order.
func Key(device, action string, payload command.Payload) string {
	return keyPrefix + command.Fingerprint(device, action, payload)
}

// TryAcquire attempts a single non-blocking acquisition. A lock held
// elsewhere returns LockBusyError. A backend failure fails OPEN: the
// returned handle is marked Unprotected and the caller proceeds without
// fleet-wide idempotency protection.
func (m *Manager) TryAcquire(ctx context.Context, key, operation string) (*Handle, error) {
	token := uuid.NewString()

	ok, err := m.client.SetNX(ctx, key, token, m.ttl).Result()
	if err != nil {
		util.Warnf("lock: backend unavailable, proceeding unprotected: %v", err)
		return &Handle{Key: key, Token: token, Unprotected: true}, nil
	}
	if !ok {
		return nil, &util.LockBusyError{Key: key, Operation: operation}
	}
	return &Handle{Key: key, Token: token}, nil
}

// Release frees the lock if this handle still holds it. Releasing an
// unprotected or already-expired handle is a no-op.
func (m *Manager) Release(ctx context.Context, h *Handle) error {
	if h == nil || h.Unprotected {
		return nil
	}

	result, err := releaseScript.Run(ctx, m.client, []string{h.Key}, h.Token).Int()
	if err != nil {
		// Best-effort: TTL reclaims the lock if the backend comes back.
		util.Warnf("lock: release failed for %s: %v", h.Key, err)
		return nil
	}
	if result == 0 {
		return fmt.Errorf("lock token mismatch for %s", h.Key)
	}
	return nil
}

// Close releases the underlying Redis client.
func (m *Manager) Close() error {
	return m.client.Close()
}
