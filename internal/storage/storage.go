package storage

import (
	"context"
	"errors"

	"msgcenter/backend/internal/domain"
)

var (
	// ErrIdentityNotFound 身份不存在
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrMessageNotFound 邮件在当前门户下不存在
	ErrMessageNotFound = errors.New("message not found")
	// ErrPortalNotFound 门户不存在
	ErrPortalNotFound = errors.New("portal not found")
	// ErrTokenNotFound 令牌不存在或已过期
	ErrTokenNotFound = errors.New("token not found")
)

// IdentityRepository 定义身份查询操作。
type IdentityRepository interface {
	GetIdentity(ctx context.Context, id string) (*domain.Identity, error)
}

// MessageRepository 定义站内信数据读取操作。
type MessageRepository interface {
	// ListByTarget 按存储顺序返回投递给指定身份的全部邮件（不含附件）
	ListByTarget(ctx context.Context, targetID string) ([]domain.Message, error)
	// GetFull 返回指定门户下的邮件及其附件，不存在时返回 ErrMessageNotFound
	GetFull(ctx context.Context, portalID int64, messageID string) (*domain.Message, error)
	// GetMetadata 返回给定项目 ID 集合对应的元数据，不存在的 ID 被跳过
	GetMetadata(ctx context.Context, offerIDs []string) ([]domain.MetadataRecord, error)
}

// PortalRepository 定义门户数据读取操作。
type PortalRepository interface {
	GetPortal(ctx context.Context, id int64) (*domain.Portal, error)
}

// TokenRepository 定义一次性令牌存取操作。
type TokenRepository interface {
	SaveToken(ctx context.Context, token *domain.Token) error
	GetToken(ctx context.Context, token string) (*domain.Token, error)
	DeleteToken(ctx context.Context, token string) error
	DeleteTokensByUser(ctx context.Context, userID string) (int, error)
}

// HealthChecker 存储健康检查
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Store 定义站内信读路径所需的完整存储接口。
type Store interface {
	IdentityRepository
	MessageRepository
	PortalRepository
	HealthChecker

	Close() error
}
