package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgcenter/backend/internal/config"
	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "msgcenter:token:abc", tokenKey("abc"))
	assert.Equal(t, "msgcenter:user-tokens:u1", userTokensKey("u1"))
}

// 需要真实 Redis：MSGCENTER_TEST_REDIS_ADDR=localhost:6379
func newIntegrationTokenStore(t *testing.T) *TokenStore {
	t.Helper()
	addr := os.Getenv("MSGCENTER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MSGCENTER_TEST_REDIS_ADDR not set")
	}

	client, err := New(context.Background(), config.RedisConfig{Address: addr, DB: 15}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Client().FlushDB(context.Background())
		client.Close()
	})
	return NewTokenStore(client)
}

func TestTokenStore_Integration(t *testing.T) {
	store := newIntegrationTokenStore(t)
	ctx := context.Background()
	const userID = "22222222-2222-4222-8222-222222222222"
	now := time.Now().UTC()

	newToken := func(value string) *domain.Token {
		return &domain.Token{Token: value, UserID: userID, Type: domain.TokenForgotPassword, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	}

	t.Run("保存与读取", func(t *testing.T) {
		require.NoError(t, store.SaveToken(ctx, newToken("t1")))

		token, err := store.GetToken(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, userID, token.UserID)

		ttl, err := store.rdb.TTL(ctx, tokenKey("t1")).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 59*time.Minute)
	})

	t.Run("删除可重复执行", func(t *testing.T) {
		require.NoError(t, store.DeleteToken(ctx, "t1"))
		require.NoError(t, store.DeleteToken(ctx, "t1"))

		_, err := store.GetToken(ctx, "t1")
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})

	t.Run("按用户删除", func(t *testing.T) {
		require.NoError(t, store.SaveToken(ctx, newToken("t2")))
		require.NoError(t, store.SaveToken(ctx, newToken("t3")))

		count, err := store.DeleteTokensByUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = store.DeleteTokensByUser(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
