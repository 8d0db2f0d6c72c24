// Package redis provides Redis-backed adapters for browser auth state and the
// consumed sign-in link ledger.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/ports"
	"github.com/redis/go-redis/v9"
)

// DefaultAuthStateTTL bounds how long a browser stays signed in without revisiting.
const DefaultAuthStateTTL = 30 * 24 * time.Hour

// AuthStateStore keeps the signed-in identity of each browser, keyed by the
// browser's session id. Every Save refreshes the TTL.
type AuthStateStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// AuthStateStoreOptions configures AuthStateStore.
type AuthStateStoreOptions struct {
	Prefix string
	TTL    time.Duration
}

// NewAuthStateStore creates a Redis-backed auth state store.
func NewAuthStateStore(client redis.UniversalClient, opts AuthStateStoreOptions) *AuthStateStore {
	if opts.Prefix == "" {
		opts.Prefix = "authstate:"
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultAuthStateTTL
	}
	return &AuthStateStore{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

func (s *AuthStateStore) Save(ctx context.Context, browserID string, id domainauth.Identity) error {
	if browserID == "" {
		return errors.New("browser ID cannot be empty")
	}
	if id.ID == "" {
		return errors.New("identity ID cannot be empty")
	}
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	return s.client.Set(ctx, s.prefix+browserID, data, s.ttl).Err()
}

func (s *AuthStateStore) Get(ctx context.Context, browserID string) (domainauth.Identity, error) {
	if browserID == "" {
		return domainauth.Identity{}, ErrNotFound
	}
	data, err := s.client.Get(ctx, s.prefix+browserID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Identity{}, ErrNotFound
		}
		return domainauth.Identity{}, fmt.Errorf("redis get: %w", err)
	}
	var id domainauth.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return domainauth.Identity{}, fmt.Errorf("unmarshal identity: %w", err)
	}
	return id, nil
}

func (s *AuthStateStore) Delete(ctx context.Context, browserID string) error {
	if browserID == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+browserID).Err()
}

type notFoundError struct{}

func (notFoundError) Error() string { return "auth state not found" }

func (notFoundError) Is(target error) bool { return target == ports.ErrNotFound }

// ErrNotFound is returned when a browser has no stored auth state.
var ErrNotFound error = notFoundError{}
