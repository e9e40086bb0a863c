package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/consulting-service/internal/domain"
)

const (
	checkoutPrefix    = "checkout:"
	idempotencyPrefix = "payment:"
	catalogKey        = "catalog:services"
)

// ErrSessionNotFound is returned when a checkout session expired or never existed.
var ErrSessionNotFound = errors.New("checkout session not found")

// CheckoutStore keeps checkout sessions between gateway order creation and confirmation.
type CheckoutStore interface {
	Save(ctx context.Context, session *domain.CheckoutSession, ttl time.Duration) error
	Get(ctx context.Context, gatewayOrderID string) (*domain.CheckoutSession, error)
	Delete(ctx context.Context, gatewayOrderID string) error
}

// IdempotencyGuard ensures a gateway payment is turned into at most one order.
type IdempotencyGuard interface {
	// Acquire reports false when the key is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// CatalogCache caches the public service listing.
type CatalogCache interface {
	GetServices(ctx context.Context) ([]domain.Service, bool, error)
	SetServices(ctx context.Context, services []domain.Service, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// RedisStore implements the Redis-backed stores on one client.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, session *domain.CheckoutSession, ttl time.Duration) error {
	b, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, checkoutPrefix+session.GatewayOrderID, b, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, gatewayOrderID string) (*domain.CheckoutSession, error) {
	data, err := s.client.Get(ctx, checkoutPrefix+gatewayOrderID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session domain.CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisStore) Delete(ctx context.Context, gatewayOrderID string) error {
	return s.client.Del(ctx, checkoutPrefix+gatewayOrderID).Err()
}

func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, idempotencyPrefix+key, "1", ttl).Result()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyPrefix+key).Err()
}

// Next implements Sequencer with INCR.
func (s *RedisStore) Next(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

var seedScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
if cur < tonumber(ARGV[1]) then
	redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`)

// Seed raises the counter at key to floor when it is lower.
func (s *RedisStore) Seed(ctx context.Context, key string, floor int64) error {
	return seedScript.Run(ctx, s.client, []string{key}, floor).Err()
}

func (s *RedisStore) GetServices(ctx context.Context) ([]domain.Service, bool, error) {
	data, err := s.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var services []domain.Service
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, false, err
	}
	return services, true, nil
}

func (s *RedisStore) SetServices(ctx context.Context, services []domain.Service, ttl time.Duration) error {
	b, err := json.Marshal(services)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, catalogKey, b, ttl).Err()
}

func (s *RedisStore) Invalidate(ctx context.Context) error {
	return s.client.Del(ctx, catalogKey).Err()
}
