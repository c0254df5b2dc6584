package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// 验证相关的错误定义
var (
	ErrInvalidIdentityID = errors.New("invalid identity id")
	ErrInvalidMessageID  = errors.New("invalid message id")
	ErrInvalidTokenTTL   = errors.New("invalid token ttl")
)

// 验证常量
const (
	MaxMessageIDLength = 64
	MaxTokenTTLSeconds = 30 * 24 * 60 * 60 // 30 天
)

// ParseIdentityID 校验并规范化身份 ID（UUID，统一小写）
func ParseIdentityID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidIdentityID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidIdentityID
	}
	return id.String(), nil
}

// ValidateMessageID 校验邮件 ID
func ValidateMessageID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > MaxMessageIDLength {
		return ErrInvalidMessageID
	}
	if strings.ContainsAny(id, "/\\ ") {
		return ErrInvalidMessageID
	}
	return nil
}

// ValidateTokenTTL 校验令牌有效期（秒），0 表示使用默认值
func ValidateTokenTTL(seconds int64) error {
	if seconds < 0 || seconds > MaxTokenTTLSeconds {
		return ErrInvalidTokenTTL
	}
	return nil
}
