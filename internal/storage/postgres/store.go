package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

// Store 基于 pgx 连接池的 PostgreSQL 存储实现
//
// 表结构与 storage/sql 及 migrations/postgres 一致。
type Store struct {
	client *Client
	now    func() time.Time
}

// NewStore 使用已连接的客户端创建存储
func NewStore(client *Client) *Store {
	return &Store{client: client, now: time.Now}
}

// ========== Identity Repository ==========

// GetIdentity 根据 ID 获取身份
func (s *Store) GetIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	const query = `
		SELECT id, COALESCE(role, ''), organization_id,
			COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
			is_staff, is_superuser, is_employee
		FROM identities
		WHERE id = $1`

	var identity domain.Identity
	var role string
	var flags domain.RoleFlags
	err := s.client.pool.QueryRow(ctx, query, id).Scan(
		&identity.ID,
		&role,
		&identity.OrganizationID,
		&identity.Email,
		&identity.FirstName,
		&identity.LastName,
		&flags.Staff,
		&flags.Superuser,
		&flags.Employee,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("query identity: %w", err)
	}

	identity.Role = flags.Resolve(domain.Role(role))
	return &identity, nil
}

// ========== Message Repository ==========

// ListByTarget 按发送时间返回投递给指定身份的邮件，不加载附件
func (s *Store) ListByTarget(ctx context.Context, targetID string) ([]domain.Message, error) {
	const query = `
		SELECT id, target_id, portal_id, COALESCE(offer_id, ''), COALESCE(subject, ''), sent_at
		FROM messages
		WHERE target_id = $1
		ORDER BY sent_at DESC, id`

	rows, err := s.client.pool.Query(ctx, query, targetID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Message, error) {
		var msg domain.Message
		err := row.Scan(&msg.ID, &msg.TargetID, &msg.PortalID, &msg.OfferID, &msg.Subject, &msg.SentAt)
		return msg, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// GetFull 返回指定门户下的邮件正文及附件
func (s *Store) GetFull(ctx context.Context, portalID int64, messageID string) (*domain.Message, error) {
	const query = `
		SELECT id, target_id, portal_id, COALESCE(offer_id, ''), COALESCE(subject, ''), COALESCE(body, ''), sent_at
		FROM messages
		WHERE id = $1 AND portal_id = $2`

	var msg domain.Message
	err := s.client.pool.QueryRow(ctx, query, messageID, portalID).Scan(
		&msg.ID,
		&msg.TargetID,
		&msg.PortalID,
		&msg.OfferID,
		&msg.Subject,
		&msg.Body,
		&msg.SentAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrMessageNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}

	const attachmentsQuery = `
		SELECT name, download_locator
		FROM message_attachments
		WHERE message_id = $1
		ORDER BY position, id`

	rows, err := s.client.pool.Query(ctx, attachmentsQuery, messageID)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	msg.Attachments, err = pgx.CollectRows(rows, pgx.RowToStructByPos[domain.AttachmentRef])
	if err != nil {
		return nil, fmt.Errorf("scan attachments: %w", err)
	}
	return &msg, nil
}

// GetMetadata 批量查询项目元数据，未知项目 ID 被跳过
func (s *Store) GetMetadata(ctx context.Context, offerIDs []string) ([]domain.MetadataRecord, error) {
	if len(offerIDs) == 0 {
		return []domain.MetadataRecord{}, nil
	}

	const query = `
		SELECT offer_id, COALESCE(offer_name, ''), COALESCE(sponsor_name, '')
		FROM offer_metadata
		WHERE offer_id = ANY($1)`

	rows, err := s.client.pool.Query(ctx, query, offerIDs)
	if err != nil {
		return nil, fmt.Errorf("query offer metadata: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.MetadataRecord])
	if err != nil {
		return nil, fmt.Errorf("scan offer metadata: %w", err)
	}
	if records == nil {
		records = []domain.MetadataRecord{}
	}
	return records, nil
}

// ========== Portal Repository ==========

// GetPortal 根据 ID 获取门户
func (s *Store) GetPortal(ctx context.Context, id int64) (*domain.Portal, error) {
	const query = `SELECT id, name, COALESCE(base_url, '') FROM portals WHERE id = $1`

	var portal domain.Portal
	if err := s.client.pool.QueryRow(ctx, query, id).Scan(&portal.ID, &portal.Name, &portal.BaseURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrPortalNotFound
		}
		return nil, fmt.Errorf("query portal: %w", err)
	}
	return &portal, nil
}

// ========== Token Repository ==========

// SaveToken 保存令牌
func (s *Store) SaveToken(ctx context.Context, token *domain.Token) error {
	const query = `
		INSERT INTO tokens (token, user_id, token_type, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.client.pool.Exec(ctx, query, token.Token, token.UserID, string(token.Type), token.CreatedAt, token.ExpiresAt); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetToken 获取令牌，过期令牌视为不存在并被清理
func (s *Store) GetToken(ctx context.Context, value string) (*domain.Token, error) {
	const query = `
		SELECT token, user_id, token_type, created_at, expires_at
		FROM tokens
		WHERE token = $1`

	var token domain.Token
	var tokenType string
	err := s.client.pool.QueryRow(ctx, query, value).Scan(
		&token.Token,
		&token.UserID,
		&tokenType,
		&token.CreatedAt,
		&token.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
	if _, err := s.client.pool.Exec(ctx, `DELETE FROM tokens WHERE token = $1`, value); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// DeleteTokensByUser 删除用户的全部令牌，返回删除数量
func (s *Store) DeleteTokensByUser(ctx context.Context, userID string) (int, error) {
	tag, err := s.client.pool.Exec(ctx, `DELETE FROM tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ========== 工具方法 ==========

// Health 检查连接池健康状态
func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close 关闭连接池
func (s *Store) Close() error {
	s.client.Close()
	return nil
}

var (
	_ storage.Store           = (*Store)(nil)
	_ storage.TokenRepository = (*Store)(nil)
)
