// Package distlock serializes apply-mode optimization runs. Two concurrent
// apply runs against the same customer account could double-submit the same
// mutation batch; a redis SET NX lock with a TTL guarantees at most one
// apply per account at a time. Dry runs never take the lock.
package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a distributed lock backed by Redis SET NX with TTL. A random
// ownership value and a Lua compare-and-delete keep one process from
// releasing a lock held by another.
type Lock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// ForCustomer creates the apply-mode lock for one customer account.
func ForCustomer(client *redis.Client, customerID string, ttl time.Duration) *Lock {
	b := make([]byte, 16)
	rand.Read(b)
	return &Lock{
		client: client,
		key:    fmt.Sprintf("adpilot:apply-lock:%s", customerID),
		value:  hex.EncodeToString(b),
		ttl:    ttl,
	}
}

// Acquire tries to acquire the lock. Returns true if successful.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	return ok, nil
}

// Release releases the lock only if we still own it.
func (l *Lock) Release(ctx context.Context) error {
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)
	_, err := script.Run(ctx, l.client, []string{l.key}, l.value).Result()
	return err
}
