package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"msgcenter/backend/internal/auth/jwt"
	"msgcenter/backend/internal/domain"
)

// 上下文键
const (
	ContextKeyScope  = "requestScope"
	ContextKeyUserID = "userID"
)

// JWTAuth JWT认证中间件
type JWTAuth struct {
	jwtManager *jwt.Manager
	log        *zap.Logger
}

// NewJWTAuth 创建JWT认证中间件
func NewJWTAuth(jwtManager *jwt.Manager, log *zap.Logger) *JWTAuth {
	if log == nil {
		log = zap.NewNop()
	}
	return &JWTAuth{
		jwtManager: jwtManager,
		log:        log,
	}
}

// RequireAuth 要求JWT认证，成功后将 RequestScope 写入上下文
func (ja *JWTAuth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ja.extractToken(c)
		if token == "" {
			abortWithStatus(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims, err := ja.jwtManager.ValidateToken(token)
		if err != nil {
			ja.log.Warn("invalid token",
				zap.Error(err),
				zap.String("ip", c.ClientIP()),
			)
			abortWithStatus(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		scope := claims.Scope()
		c.Set(ContextKeyScope, scope)
		c.Set(ContextKeyUserID, scope.Caller.ID)

		c.Next()
	}
}

// extractToken 从请求中提取JWT token
func (ja *JWTAuth) extractToken(c *gin.Context) string {
	// 1. 从 Authorization header 提取
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// 2. 从 cookie 提取
	token, err := c.Cookie("access_token")
	if err == nil && token != "" {
		return token
	}

	return ""
}

// GetRequestScope 读取认证中间件写入的请求上下文
func GetRequestScope(c *gin.Context) (domain.RequestScope, bool) {
	v, ok := c.Get(ContextKeyScope)
	if !ok {
		return domain.RequestScope{}, false
	}
	scope, ok := v.(domain.RequestScope)
	return scope, ok
}

// abortWithStatus 以统一错误结构终止请求
func abortWithStatus(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"status":  status,
		"error":   msg,
	})
}
