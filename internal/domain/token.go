package domain

import "time"

// TokenType 一次性令牌用途
type TokenType string

const (
	TokenForgotPassword    TokenType = "FORGOT_PASSWORD"
	TokenEmailVerification TokenType = "EMAIL_VERIFICATION"
	TokenInvitation        TokenType = "INVITATION"
)

// Valid 判断令牌类型是否受支持
func (t TokenType) Valid() bool {
	switch t {
	case TokenForgotPassword, TokenEmailVerification, TokenInvitation:
		return true
	}
	return false
}

// Token 签发给用户的一次性令牌
type Token struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Type      TokenType `json:"tokenType"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired 判断令牌在给定时刻是否已过期
func (t *Token) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}
