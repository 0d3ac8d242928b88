package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestTokenBlacklist_RevokeExpiredIsNoop(t *testing.T) {
	rdb := unreachableClient()
	defer rdb.Close()

	b := NewTokenBlacklist(rdb)
	assert.NoError(t, b.Revoke(context.Background(), "token", 0))
	assert.NoError(t, b.Revoke(context.Background(), "token", -time.Second))
}

func TestTokenBlacklist_SurfacesConnectionErrors(t *testing.T) {
	rdb := unreachableClient()
	defer rdb.Close()

	b := NewTokenBlacklist(rdb)
	revoked, err := b.IsRevoked(context.Background(), "token")
	assert.Error(t, err)
	assert.False(t, revoked)

	assert.Error(t, b.Revoke(context.Background(), "token", time.Minute))
}
