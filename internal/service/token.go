package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

// TokenService 一次性令牌业务服务（找回密码、邮箱验证、邀请）
type TokenService struct {
	repo       storage.TokenRepository
	defaultTTL time.Duration
	now        func() time.Time
	newToken   func() string
}

// NewTokenService 创建令牌服务。
func NewTokenService(repo storage.TokenRepository, defaultTTL time.Duration) *TokenService {
	return &TokenService{
		repo:       repo,
		defaultTTL: defaultTTL,
		now:        time.Now,
		newToken:   uuid.NewString,
	}
}

// GenerateTokenInput 定义生成令牌的输入。
type GenerateTokenInput struct {
	Type domain.TokenType
	TTL  int64 // 秒，0 表示使用默认有效期
}

// Generate 为用户签发一个新令牌
func (s *TokenService) Generate(ctx context.Context, userID string, input GenerateTokenInput) (*domain.Token, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, ErrInvalidTokenType
	}
	if err := domain.ValidateTokenTTL(input.TTL); err != nil {
		return nil, err
	}

	ttl := s.defaultTTL
	if input.TTL > 0 {
		ttl = time.Duration(input.TTL) * time.Second
	}

	now := s.now().UTC()
	token := &domain.Token{
		Token:     s.newToken(),
		UserID:    uid,
		Type:      input.Type,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := s.repo.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return token, nil
}

// Retrieve 查询有效令牌，过期或不存在时返回 ErrTokenNotFound
func (s *TokenService) Retrieve(ctx context.Context, value string) (*domain.Token, error) {
	if value == "" {
		return nil, ErrTokenNotFound
	}

	token, err := s.repo.GetToken(ctx, value)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	if token.IsExpired(s.now()) {
		return nil, ErrTokenNotFound
	}
	return token, nil
}

// Delete 删除令牌，重复删除不报错
func (s *TokenService) Delete(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}
	if err := s.repo.DeleteToken(ctx, value); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// DeleteUserTokens 删除用户的全部令牌，返回删除数量
func (s *TokenService) DeleteUserTokens(ctx context.Context, userID string) (int, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return 0, err
	}
	count, err := s.repo.DeleteTokensByUser(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("delete user tokens: %w", err)
	}
	return count, nil
}

func parseUserID(userID string) (string, error) {
	id, err := domain.ParseIdentityID(userID)
	if err != nil {
		return "", ErrUndefinedUserID
	}
	return id, nil
}
