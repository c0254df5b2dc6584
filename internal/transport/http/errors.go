package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/service"
)

// 错误消息映射表（业务错误 -> 对外消息），未列出的使用 HTTP 状态文本
var errorMessages = map[error]string{
	service.ErrUndefinedUserID:  MsgUndefinedUserID,
	service.ErrInvalidTokenType: "Invalid tokenType.",
	domain.ErrInvalidTokenTTL:   "Invalid ttl.",
	domain.ErrInvalidMessageID:  "Invalid messageId.",
	domain.ErrInvalidIdentityID: "Invalid userId.",
}

// 错误状态码映射表
var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrMessageNotFound, http.StatusNotFound},
	{service.ErrTokenNotFound, http.StatusNotFound},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrPreviewTargetNotFound, http.StatusForbidden},
	{service.ErrUndefinedUserID, http.StatusBadRequest},
	{service.ErrInvalidTokenType, http.StatusBadRequest},
	{domain.ErrInvalidTokenTTL, http.StatusBadRequest},
	{domain.ErrInvalidMessageID, http.StatusBadRequest},
	{domain.ErrInvalidIdentityID, http.StatusBadRequest},
}

// 通用错误消息
const (
	MsgUndefinedUserID = "Undefined userId."
	MsgInvalidRequest  = "Invalid request body."
)

// StatusFor 返回业务错误对应的 HTTP 状态码
func StatusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// GetErrorMessage 获取错误的对外消息
func GetErrorMessage(err error, status int) string {
	for key, msg := range errorMessages {
		if errors.Is(err, key) {
			return msg
		}
	}
	return http.StatusText(status)
}

// respondError 将业务错误映射为统一错误响应；5xx 记录完整错误
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		_ = c.Error(err)
		InternalError(c)
		return
	}
	Error(c, status, GetErrorMessage(err, status))
}
