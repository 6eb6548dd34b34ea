package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Without Init the package runs on the in-process fallback.

func TestLocalFallback(t *testing.T) {
	ctx := context.Background()
	SetCached(ctx, "reports:perf:1", []byte("a"), time.Minute)
	SetCached(ctx, "reports:debt", []byte("b"), time.Minute)
	SetCached(ctx, "users:all", []byte("c"), time.Minute)

	data, ok := GetCached(ctx, "reports:perf:1")
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), data)

	InvalidateOrderCaches(ctx)
	_, ok = GetCached(ctx, "reports:perf:1")
	assert.False(t, ok)
	_, ok = GetCached(ctx, "reports:debt")
	assert.False(t, ok)
	_, ok = GetCached(ctx, "users:all")
	assert.True(t, ok)

	InvalidateKeys(ctx, "users:all")
	_, ok = GetCached(ctx, "users:all")
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	SetJSON(ctx, "dashboard:admin", map[string]int{"open": 3}, time.Minute)

	var got map[string]int
	assert.True(t, GetJSON(ctx, "dashboard:admin", &got))
	assert.Equal(t, 3, got["open"])

	InvalidateInventoryCaches(ctx)
	assert.False(t, GetJSON(ctx, "dashboard:admin", &got))
}

func TestDenylist(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsDenied(ctx, "jti-1"))
	DenyToken(ctx, "jti-1", time.Minute)
	assert.True(t, IsDenied(ctx, "jti-1"))

	DenyToken(ctx, "jti-2", 0)
	assert.False(t, IsDenied(ctx, "jti-2"))
	assert.False(t, IsDenied(ctx, ""))
}

func TestIsHealthyWithoutRedis(t *testing.T) {
	assert.False(t, IsHealthy())
	assert.Nil(t, GetClient())
}
