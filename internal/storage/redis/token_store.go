package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

const (
	keyPrefix  = "msgcenter:"
	userSetTTL = domain.MaxTokenTTLSeconds * time.Second
)

func tokenKey(value string) string {
	return keyPrefix + "token:" + value
}

func userTokensKey(userID string) string {
	return keyPrefix + "user-tokens:" + userID
}

// TokenStore 使用 Redis 键过期实现令牌有效期
//
// 每个令牌一个字符串键（JSON），另以集合记录用户名下的令牌以便批量删除。
type TokenStore struct {
	rdb *goredis.Client
	now func() time.Time
}

// NewTokenStore 创建 Redis 令牌存储
func NewTokenStore(client *Client) *TokenStore {
	return &TokenStore{rdb: client.Client(), now: time.Now}
}

// SaveToken 保存令牌，键的过期时间与令牌有效期一致
func (s *TokenStore) SaveToken(ctx context.Context, token *domain.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	ttl := token.ExpiresAt.Sub(s.now())
	if token.ExpiresAt.IsZero() {
		ttl = 0
	} else if ttl <= 0 {
		return nil
	}

	userKey := userTokensKey(token.UserID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, tokenKey(token.Token), data, ttl)
		pipe.SAdd(ctx, userKey, token.Token)
		if ttl > 0 {
			// 令牌有效期上限为 30 天，集合按上限续期
			pipe.Expire(ctx, userKey, userSetTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// GetToken 获取令牌
func (s *TokenStore) GetToken(ctx context.Context, value string) (*domain.Token, error) {
	data, err := s.rdb.Get(ctx, tokenKey(value)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}

	var token domain.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	if token.IsExpired(s.now()) {
		return nil, storage.ErrTokenNotFound
	}
	return &token, nil
}

// DeleteToken 删除令牌，不存在时不报错
func (s *TokenStore) DeleteToken(ctx context.Context, value string) error {
	token, err := s.GetToken(ctx, value)
	if err != nil && !errors.Is(err, storage.ErrTokenNotFound) {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, tokenKey(value))
		if token != nil {
			pipe.SRem(ctx, userTokensKey(token.UserID), value)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// DeleteTokensByUser 删除用户的全部令牌，返回实际删除的数量
func (s *TokenStore) DeleteTokensByUser(ctx context.Context, userID string) (int, error) {
	userKey := userTokensKey(userID)
	values, err := s.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list user tokens: %w", err)
	}
	if len(values) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(values))
	for _, v := range values {
		keys = append(keys, tokenKey(v))
	}

	var deleted *goredis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete user tokens: %w", err)
	}
	return int(deleted.Val()), nil
}

// Health 检查 Redis 连接
func (s *TokenStore) Health(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

var _ storage.TokenRepository = (*TokenStore)(nil)
