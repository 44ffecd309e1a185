package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tb:"

// Store caches public read responses. Failures are logged and treated as misses.
type Store interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, v any)
	Invalidate(ctx context.Context, prefixes ...string)
}

// Open returns a Redis-backed store for redisURL, or a no-op store when it is empty.
func Open(ctx context.Context, redisURL string, ttl time.Duration) (Store, func() error, error) {
	if redisURL == "" {
		return Nop{}, func() error { return nil }, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return NewRedis(client, ttl), client.Close, nil
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) GetJSON(ctx context.Context, key string, dst any) bool {
	b, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache get failed key=%s err=%v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		log.Printf("cache decode failed key=%s err=%v", key, err)
		return false
	}
	return true
}

func (r *Redis) SetJSON(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, keyPrefix+key, b, r.ttl).Err(); err != nil {
		log.Printf("cache set failed key=%s err=%v", key, err)
	}
}

// Invalidate deletes every key starting with one of prefixes.
func (r *Redis) Invalidate(ctx context.Context, prefixes ...string) {
	for _, p := range prefixes {
		iter := r.client.Scan(ctx, 0, keyPrefix+p+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			log.Printf("cache scan failed prefix=%s err=%v", p, err)
			continue
		}
		if len(keys) == 0 {
			continue
		}
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			log.Printf("cache invalidate failed prefix=%s err=%v", p, err)
		}
	}
}

type Nop struct{}

func (Nop) GetJSON(context.Context, string, any) bool { return false }
func (Nop) SetJSON(context.Context, string, any)      {}
func (Nop) Invalidate(context.Context, ...string)     {}

// Load returns the cached value for key, or computes it with fn and caches the result.
func Load[T any](ctx context.Context, s Store, key string, fn func() (T, error)) (T, error) {
	var v T
	if s == nil {
		return fn()
	}
	if s.GetJSON(ctx, key, &v) {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	s.SetJSON(ctx, key, v)
	return v, nil
}
