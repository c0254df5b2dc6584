package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"msgcenter/backend/internal/config"
	"msgcenter/backend/internal/domain"
)

var (
	// ErrInvalidToken 无效的令牌
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken 令牌已过期
	ErrExpiredToken = errors.New("token expired")
)

// Claims JWT 自定义声明，携带调用方身份
type Claims struct {
	UserID         string   `json:"user_id"`
	Role           string   `json:"role"`
	Roles          []string `json:"roles,omitempty"` // 上游签发的多个角色标记
	OrganizationID int64    `json:"organization_id"`
	Email          string   `json:"email,omitempty"`
	FirstName      string   `json:"first_name,omitempty"`
	LastName       string   `json:"last_name,omitempty"`
	PortalID       int64    `json:"portal_id,omitempty"` // 会话所属门户，缺省为所属组织
	jwt.RegisteredClaims
}

// Identity 将声明转换为调用方身份
//
// role 与 roles 一起收敛为权限最高的已知角色，全部未知时按 regular 处理。
func (c *Claims) Identity() domain.Identity {
	roles := make([]domain.Role, 0, len(c.Roles)+1)
	roles = append(roles, domain.Role(c.Role))
	for _, r := range c.Roles {
		roles = append(roles, domain.Role(r))
	}
	return domain.Identity{
		ID:             c.UserID,
		Role:           domain.NormalizeRole(roles...),
		OrganizationID: c.OrganizationID,
		Email:          c.Email,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
	}
}

// Scope 返回请求上下文，门户取自 portal_id 声明
func (c *Claims) Scope() domain.RequestScope {
	scope := domain.NewRequestScope(c.Identity())
	if c.PortalID > 0 {
		scope.PortalID = c.PortalID
	}
	return scope
}

// Manager JWT 管理器
type Manager struct {
	secret       []byte
	issuer       string
	accessExpiry time.Duration
}

// NewManager 创建 JWT 管理器
func NewManager(cfg config.JWTConfig) *Manager {
	return &Manager{
		secret:       []byte(cfg.Secret),
		issuer:       cfg.Issuer,
		accessExpiry: cfg.AccessExpiry,
	}
}

// GenerateAccessToken 为请求上下文中的身份签发访问令牌
func (m *Manager) GenerateAccessToken(scope domain.RequestScope) (string, error) {
	return m.generate(scope, time.Now(), m.accessExpiry)
}

func (m *Manager) generate(scope domain.RequestScope, now time.Time, expiry time.Duration) (string, error) {
	identity := scope.Caller
	claims := Claims{
		UserID:         identity.ID,
		Role:           string(identity.Role),
		OrganizationID: identity.OrganizationID,
		Email:          identity.Email,
		FirstName:      identity.FirstName,
		LastName:       identity.LastName,
		PortalID:       scope.PortalID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ValidateToken 验证令牌并返回声明
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
