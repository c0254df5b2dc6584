package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/middleware"
	"msgcenter/backend/internal/monitoring"
	"msgcenter/backend/internal/service"
)

// MessageCenterHandler 站内信接口处理器
type MessageCenterHandler struct {
	svc     *service.MessageCenterService
	metrics *monitoring.Metrics
	log     *zap.Logger
}

// NewMessageCenterHandler 创建站内信处理器
func NewMessageCenterHandler(svc *service.MessageCenterService, metrics *monitoring.Metrics, log *zap.Logger) *MessageCenterHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageCenterHandler{svc: svc, metrics: metrics, log: log}
}

// GetMessageMetadata godoc
// @Summary 获取收件人的邮件元数据列表
// @Tags MessageCenter
// @Produce json
// @Param userId path string true "收件人身份 ID"
// @Param preview query string false "预览目标身份 ID"
// @Success 200 {object} object{metadata=[]domain.MessageMetadata}
// @Router /message-center/user/{userId} [get]
func (h *MessageCenterHandler) GetMessageMetadata(c *gin.Context) {
	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		Error(c, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	metadata, err := h.svc.ListMetadata(c.Request.Context(), scope, c.Param("userId"), previewFrom(c))
	if err != nil {
		h.recordDenial(err)
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"metadata": metadata})
}

// GetMessageContent godoc
// @Summary 获取邮件正文（查询参数形式）
// @Tags MessageCenter
// @Produce json
// @Param messageId query string true "邮件 ID"
// @Param preview query string false "预览目标身份 ID"
// @Success 200 {object} domain.AssembledContent
// @Router /message-center/get-message-content [get]
func (h *MessageCenterHandler) GetMessageContent(c *gin.Context) {
	h.content(c, c.Query("messageId"))
}

// GetEmailContent godoc
// @Summary 获取邮件正文（路径参数形式）
// @Tags MessageCenter
// @Produce json
// @Param emailId path string true "邮件 ID"
// @Param preview query string false "预览目标身份 ID"
// @Success 200 {object} domain.AssembledContent
// @Router /message-center/email/{emailId}/content [get]
func (h *MessageCenterHandler) GetEmailContent(c *gin.Context) {
	h.content(c, c.Param("emailId"))
}

func (h *MessageCenterHandler) content(c *gin.Context, messageID string) {
	scope, ok := middleware.GetRequestScope(c)
	if !ok {
		Error(c, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	content, err := h.svc.GetContent(c.Request.Context(), scope, messageID, previewFrom(c))
	if err != nil {
		h.recordDenial(err)
		if errors.Is(err, service.ErrBaseURLResolution) && h.metrics != nil {
			h.metrics.RecordContentAssembly("error", 0)
		}
		respondError(c, h.log, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordContentAssembly("ok", len(content.DocumentLinks))
	}
	c.JSON(http.StatusOK, content)
}

func (h *MessageCenterHandler) recordDenial(err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, service.ErrPreviewTargetNotFound):
		h.metrics.RecordAccessDenial("target_not_found")
	case errors.Is(err, service.ErrForbidden):
		h.metrics.RecordAccessDenial("forbidden")
	}
}

// previewFrom 读取 preview 查询参数，为空时表示未请求预览
func previewFrom(c *gin.Context) *domain.PreviewRequest {
	return domain.NewPreviewRequest(c.Query("preview"))
}
