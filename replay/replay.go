// Package replay remembers which token nonces have already been presented.
// A token is a stateless bearer credential, so within its window the token
// alone cannot tell a first presentation from a copy; the guard closes that
// gap for the verification path without making issuance stateful.
package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "entry:nonce:"

type Guard struct {
	client *redis.Client
	window time.Duration
}

// NewGuard wraps a redis client. window should match the token validity
// window; the nonce key expires with the token, so the set stays small.
func NewGuard(client *redis.Client, window time.Duration) *Guard {
	return &Guard{client: client, window: window}
}

// FirstUse returns true exactly once per nonce within the window. SETNX
// makes the check-and-mark a single atomic store operation, safe across
// multiple scanner stations and API instances.
func (g *Guard) FirstUse(ctx context.Context, nonce string) (bool, error) {
	ok, err := g.client.SetNX(ctx, keyPrefix+nonce, 1, g.window).Result()
	if err != nil {
		return false, fmt.Errorf("firstUse: error marking nonce: %w", err)
	}
	return ok, nil
}

// Release hands a consumed nonce back, for presentations that ended without
// a decision. The token itself is still window-bounded, so a released nonce
// never outlives its payload.
func (g *Guard) Release(ctx context.Context, nonce string) error {
	if err := g.client.Del(ctx, keyPrefix+nonce).Err(); err != nil {
		return fmt.Errorf("release: error releasing nonce: %w", err)
	}
	return nil
}
