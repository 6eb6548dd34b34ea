package cache

import (
	"context"
	"encoding/json"
	"log"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Key prefixes. Report and dashboard entries are derived from orders and
// inventory and are dropped whenever either changes.
const (
	ReportsPrefix   = "reports:"
	DashboardPrefix = "dashboard:"
	denyPrefix      = "deny:"
)

var client *redis.Client

// local backs every call while Redis is unreachable, so a single instance
// keeps its caches and sign-out denylist.
var local = gocache.New(5*time.Minute, 10*time.Minute)

// Init initializes the Redis connection. On failure the client stays nil
// and the in-process cache is used instead.
func Init(addr, password string, db int) error {
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client, or nil when running degraded.
func GetClient() *redis.Client {
	return client
}

// Close releases the Redis connection.
func Close() {
	if client != nil {
		client.Close()
	}
}

// ============================================
// Generic Cache Functions
// ============================================

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		if v, ok := local.Get(key); ok {
			return v.([]byte), true
		}
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		local.Set(key, data, ttl)
		return
	}
	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[Redis] set %s failed: %v", key, err)
	}
}

// GetJSON decodes a cached JSON value into dst.
func GetJSON(ctx context.Context, key string, dst interface{}) bool {
	data, ok := GetCached(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// SetJSON caches v encoded as JSON.
func SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	SetCached(ctx, key, data, ttl)
}

// ============================================
// Cache Invalidation Functions
// ============================================

// InvalidatePattern removes all keys matching a glob pattern
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		for key := range local.Items() {
			if ok, _ := path.Match(pattern, key); ok {
				local.Delete(key)
			}
		}
		return
	}
	iter := client.Scan(ctx, 0, pattern, 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if client == nil {
		for _, k := range keys {
			local.Delete(k)
		}
		return
	}
	client.Del(ctx, keys...)
}

// InvalidateOrderCaches clears everything derived from orders.
// Called after every committed order mutation.
func InvalidateOrderCaches(ctx context.Context) {
	InvalidatePattern(ctx, ReportsPrefix+"*")
	InvalidatePattern(ctx, DashboardPrefix+"*")
}

// InvalidateInventoryCaches clears low-stock and dashboard summaries.
func InvalidateInventoryCaches(ctx context.Context) {
	InvalidatePattern(ctx, "inventory:*")
	InvalidatePattern(ctx, DashboardPrefix+"*")
}

// InvalidateUserCaches clears the staff roster used by worker stats.
func InvalidateUserCaches(ctx context.Context) {
	InvalidatePattern(ctx, "users:*")
	InvalidatePattern(ctx, ReportsPrefix+"workers*")
}

// ============================================
// Sign-out denylist
// ============================================

// DenyToken records a revoked token id until the token would have expired.
func DenyToken(ctx context.Context, jti string, ttl time.Duration) {
	if jti == "" || ttl <= 0 {
		return
	}
	SetCached(ctx, denyPrefix+jti, []byte("1"), ttl)
}

// IsDenied reports whether the token id was signed out.
func IsDenied(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}
	_, ok := GetCached(ctx, denyPrefix+jti)
	return ok
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// PreWarmKey pre-warms a specific cache key in the background
// Called after cache invalidation to ensure next request is fast
func PreWarmKey(key string, fetcher func(ctx context.Context) ([]byte, error), ttl time.Duration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data, err := fetcher(ctx)
		if err != nil {
			// next request will just fetch from DB
			return
		}
		SetCached(ctx, key, data, ttl)
	}()
}
