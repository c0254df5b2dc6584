package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

// PortalBaseURLResolver 从门户表解析基础 URL，门户未配置时使用默认值
type PortalBaseURLResolver struct {
	portals    storage.PortalRepository
	defaultURL string
}

// NewPortalBaseURLResolver 创建基础 URL 解析器。
func NewPortalBaseURLResolver(portals storage.PortalRepository, defaultURL string) *PortalBaseURLResolver {
	return &PortalBaseURLResolver{
		portals:    portals,
		defaultURL: strings.TrimRight(defaultURL, "/"),
	}
}

// Resolve 返回收件方组织对应的基础 URL（不带结尾斜杠）
func (r *PortalBaseURLResolver) Resolve(ctx context.Context, recipient domain.RecipientContext) (string, error) {
	portal, err := r.portals.GetPortal(ctx, recipient.OrganizationID)
	switch {
	case err == nil:
		if base := strings.TrimRight(strings.TrimSpace(portal.BaseURL), "/"); base != "" {
			return base, nil
		}
	case errors.Is(err, storage.ErrPortalNotFound):
	default:
		return "", fmt.Errorf("load portal %d: %w", recipient.OrganizationID, err)
	}

	if r.defaultURL == "" {
		return "", ErrBaseURLNotConfigured
	}
	return r.defaultURL, nil
}
