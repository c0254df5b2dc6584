package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

// ========== Token Repository ==========

// SaveToken 保存令牌
func (s *Store) SaveToken(ctx context.Context, token *domain.Token) error {
	query := s.rebind(`
		INSERT INTO tokens (token, user_id, token_type, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		token.Token,
		token.UserID,
		string(token.Type),
		token.CreatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetToken 获取令牌，过期令牌视为不存在并被清理
func (s *Store) GetToken(ctx context.Context, value string) (*domain.Token, error) {
	query := s.rebind(`
		SELECT token, user_id, token_type, created_at, expires_at
		FROM tokens
		WHERE token = ?
	`)

	var token domain.Token
	var tokenType string
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&token.Token,
		&token.UserID,
		&tokenType,
		&token.CreatedAt,
		&token.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("query token: %w", err)
	}
	token.Type = domain.TokenType(tokenType)

	if token.IsExpired(s.now()) {
		if err := s.DeleteToken(ctx, value); err != nil {
			return nil, err
		}
		return nil, storage.ErrTokenNotFound
	}
	return &token, nil
}

// DeleteToken 删除令牌，不存在时不报错
func (s *Store) DeleteToken(ctx context.Context, value string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM tokens WHERE token = ?`), value); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// DeleteTokensByUser 删除用户的全部令牌，返回删除数量
func (s *Store) DeleteTokensByUser(ctx context.Context, userID string) (int, error) {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM tokens WHERE user_id = ?`), userID)
	if err != nil {
		return 0, fmt.Errorf("delete user tokens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}
