package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

// MessageCenterService 封装站内信读路径：鉴权、查询、组装。
type MessageCenterService struct {
	policy    *AccessPolicy
	messages  storage.MessageRepository
	assembler *MessageAssembler
	log       *zap.Logger
}

// NewMessageCenterService 创建站内信业务服务。
func NewMessageCenterService(
	policy *AccessPolicy,
	messages storage.MessageRepository,
	assembler *MessageAssembler,
	log *zap.Logger,
) *MessageCenterService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageCenterService{
		policy:    policy,
		messages:  messages,
		assembler: assembler,
		log:       log,
	}
}

// ListMetadata 列出投递给目标身份的全部邮件元数据
//
// 先按收件人查询邮件，再按邮件引用到的项目 ID 集合查询元数据，
// 最后逐封关联。结果顺序与存储返回的邮件顺序一致。
func (s *MessageCenterService) ListMetadata(ctx context.Context, scope domain.RequestScope, targetID string, preview *domain.PreviewRequest) ([]domain.MessageMetadata, error) {
	targetID, err := domain.ParseIdentityID(targetID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, scope, preview); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByTarget(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	records := make(map[string]domain.MetadataRecord)
	if offerIDs := distinctOfferIDs(msgs); len(offerIDs) > 0 {
		recs, err := s.messages.GetMetadata(ctx, offerIDs)
		if err != nil {
			return nil, fmt.Errorf("load message metadata: %w", err)
		}
		for _, rec := range recs {
			records[rec.OfferID] = rec
		}
	}

	views := make([]domain.MessageMetadata, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, domain.NewMessageMetadata(msg, records))
	}
	return views, nil
}

// GetContent 返回当前门户下单封邮件的正文与附件链接
func (s *MessageCenterService) GetContent(ctx context.Context, scope domain.RequestScope, messageID string, preview *domain.PreviewRequest) (*domain.AssembledContent, error) {
	if err := domain.ValidateMessageID(messageID); err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, scope, preview); err != nil {
		return nil, err
	}

	msg, err := s.messages.GetFull(ctx, scope.PortalID, messageID)
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("load message %s: %w", messageID, err)
	}

	return s.assembler.Assemble(ctx, *msg, domain.RecipientContext{
		OrganizationID: scope.Caller.OrganizationID,
	})
}

// authorize 执行预览鉴权并记录拒绝原因（仅服务端日志）
func (s *MessageCenterService) authorize(ctx context.Context, scope domain.RequestScope, preview *domain.PreviewRequest) error {
	err := s.policy.Authorize(ctx, scope.Caller, preview)
	switch {
	case err == nil:
		if preview != nil {
			s.log.Info("preview access granted",
				zap.String("caller_id", scope.Caller.ID),
				zap.String("caller_role", string(scope.Caller.Role)),
				zap.String("preview_id", preview.TargetIdentityID),
			)
		}
	case errors.Is(err, ErrPreviewTargetNotFound):
		s.log.Warn("preview target could not be resolved, denying",
			zap.String("caller_id", scope.Caller.ID),
			zap.String("preview_id", preview.TargetIdentityID),
		)
	case errors.Is(err, ErrForbidden):
		s.log.Warn("preview access denied",
			zap.String("caller_id", scope.Caller.ID),
			zap.String("caller_role", string(scope.Caller.Role)),
			zap.Int64("caller_org", scope.Caller.OrganizationID),
			zap.String("preview_id", preview.TargetIdentityID),
		)
	}
	return err
}

// distinctOfferIDs 按首次出现顺序返回邮件引用的非空项目 ID
func distinctOfferIDs(msgs []domain.Message) []string {
	seen := make(map[string]struct{}, len(msgs))
	ids := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if !msg.HasOffer() {
			continue
		}
		if _, ok := seen[msg.OfferID]; ok {
			continue
		}
		seen[msg.OfferID] = struct{}{}
		ids = append(ids, msg.OfferID)
	}
	return ids
}
