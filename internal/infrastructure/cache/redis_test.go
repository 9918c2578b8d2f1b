package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

// Runs only when TEST_REDIS_ADDR points at a disposable Redis
func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	cache := NewRedis(NewRedisClient(RedisConfig{Addr: addr}), "test:"+time.Now().Format("150405.000")+":")
	ctx := context.Background()
	require.NoError(t, cache.Ping(ctx))

	cards := []entity.CreditCard{{ID: "9", Name: "Şirket Kartı"}}
	require.NoError(t, cache.Set(ctx, "ref:credit-cards", cards, time.Minute))

	var got []entity.CreditCard
	hit, err := cache.Get(ctx, "ref:credit-cards", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, cards, got)

	require.NoError(t, cache.Delete(ctx, "ref:credit-cards"))
	hit, err = cache.Get(ctx, "ref:credit-cards", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
