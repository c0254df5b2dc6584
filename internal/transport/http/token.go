package httptransport

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/monitoring"
	"msgcenter/backend/internal/service"
)

// HeaderUserID 服务间调用携带的用户 ID 头
const HeaderUserID = "X-USER-ID"

// TokenHandler 一次性令牌接口处理器
type TokenHandler struct {
	svc     *service.TokenService
	metrics *monitoring.Metrics
	log     *zap.Logger
}

// NewTokenHandler 创建令牌处理器
func NewTokenHandler(svc *service.TokenService, metrics *monitoring.Metrics, log *zap.Logger) *TokenHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TokenHandler{svc: svc, metrics: metrics, log: log}
}

// GenerateTokenRequest 生成令牌请求体
type GenerateTokenRequest struct {
	TokenType string `json:"tokenType" binding:"required"`
	TTL       int64  `json:"ttl"` // 秒
}

// Generate godoc
// @Summary 为用户生成一次性令牌
// @Tags Token
// @Accept json
// @Produce json
// @Param X-USER-ID header string true "用户 ID"
// @Param request body GenerateTokenRequest true "令牌类型与有效期"
// @Success 200 {object} Response{data=domain.Token}
// @Router /api/v1/token [post]
func (h *TokenHandler) Generate(c *gin.Context) {
	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		BadRequest(c, MsgUndefinedUserID)
		return
	}

	var req GenerateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	token, err := h.svc.Generate(c.Request.Context(), userID, service.GenerateTokenInput{
		Type: domain.TokenType(req.TokenType),
		TTL:  req.TTL,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordTokenIssued(string(token.Type))
	}
	h.log.Info("token issued",
		zap.String("user_id", token.UserID),
		zap.String("token_type", string(token.Type)),
		zap.Time("expires_at", token.ExpiresAt),
	)
	Success(c, token)
}

// Validate godoc
// @Summary 校验令牌并返回令牌信息
// @Tags Token
// @Produce json
// @Param token path string true "令牌"
// @Success 200 {object} Response{data=domain.Token}
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/token/{token}/validate [get]
func (h *TokenHandler) Validate(c *gin.Context) {
	token, err := h.svc.Retrieve(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	Success(c, token)
}

// Delete godoc
// @Summary 删除令牌
// @Tags Token
// @Param token path string true "令牌"
// @Success 204
// @Router /api/v1/token/{token} [delete]
func (h *TokenHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("token")); err != nil {
		respondError(c, h.log, err)
		return
	}
	NoContent(c)
}

// DeleteUserTokens godoc
// @Summary 删除用户的全部令牌
// @Tags Token
// @Param X-USER-ID header string true "用户 ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/token/user [delete]
func (h *TokenHandler) DeleteUserTokens(c *gin.Context) {
	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		BadRequest(c, MsgUndefinedUserID)
		return
	}

	count, err := h.svc.DeleteUserTokens(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("user tokens deleted", zap.String("user_id", userID), zap.Int("count", count))
	NoContent(c)
}
