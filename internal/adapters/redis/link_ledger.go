package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LinkLedger remembers which sign-in link ids have been redeemed.
type LinkLedger struct {
	client redis.UniversalClient
	prefix string
}

// NewLinkLedger creates a ledger storing keys under "magiclink:used:".
func NewLinkLedger(client redis.UniversalClient) *LinkLedger {
	return &LinkLedger{client: client, prefix: "magiclink:used:"}
}

// Consume atomically records id and reports whether this was its first use.
// The marker expires after ttl, which should cover the link's remaining lifetime.
func (l *LinkLedger) Consume(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if id == "" {
		return false, errors.New("link id cannot be empty")
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	ok, err := l.client.SetNX(ctx, l.prefix+id, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}
