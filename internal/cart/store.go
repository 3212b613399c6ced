package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/atacadobras/atacado-backend/pkg/errors"
	"github.com/atacadobras/atacado-backend/pkg/redis"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(buyerID string) string
}

// Store persists session carts in Redis as JSON blobs with a sliding TTL.
type Store struct {
	redis sessionStore
	ttl   time.Duration
}

// NewStore builds a cart store over the provided Redis client.
func NewStore(client sessionStore, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart session ttl must be positive")
	}
	return &Store{redis: client, ttl: ttl}, nil
}

// Load fetches the buyer's cart. A missing key yields an empty cart, not an error.
func (s *Store) Load(ctx context.Context, buyerID uuid.UUID) (*Cart, error) {
	raw, err := s.redis.Get(ctx, s.redis.CartKey(buyerID.String()))
	if errors.Is(err, redis.ErrNil) {
		return &Cart{BuyerID: buyerID}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading session cart")
	}

	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding session cart")
	}
	c.BuyerID = buyerID
	return &c, nil
}

// Save writes the cart back and refreshes the session TTL.
func (s *Store) Save(ctx context.Context, c *Cart) error {
	if c == nil || c.BuyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart buyer id is required")
	}
	c.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(c)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding session cart")
	}
	if err := s.redis.Set(ctx, s.redis.CartKey(c.BuyerID.String()), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving session cart")
	}
	return nil
}

// Delete drops the buyer's cart entirely.
func (s *Store) Delete(ctx context.Context, buyerID uuid.UUID) error {
	if err := s.redis.Del(ctx, s.redis.CartKey(buyerID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting session cart")
	}
	return nil
}
