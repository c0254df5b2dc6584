package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"msgcenter/backend/internal/domain"
)

// BaseURLResolver 根据收件方上下文解析基础 URL
type BaseURLResolver interface {
	Resolve(ctx context.Context, recipient domain.RecipientContext) (string, error)
}

// MessageAssembler 将邮件、附件与基础 URL 组装为响应内容
type MessageAssembler struct {
	resolver BaseURLResolver
}

// NewMessageAssembler 创建内容组装器。
func NewMessageAssembler(resolver BaseURLResolver) *MessageAssembler {
	return &MessageAssembler{resolver: resolver}
}

// Assemble 组装单封邮件的响应内容
//
// 基础 URL 解析失败时返回 ErrBaseURLResolution，不做重试。
// 相同的附件只生成一个下载链接。
func (a *MessageAssembler) Assemble(ctx context.Context, msg domain.Message, recipient domain.RecipientContext) (*domain.AssembledContent, error) {
	baseURL, err := a.resolver.Resolve(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: organization %d: %w", ErrBaseURLResolution, recipient.OrganizationID, err)
	}

	return &domain.AssembledContent{
		Body:          msg.Body,
		BaseURL:       baseURL,
		DocumentLinks: documentLinks(baseURL, msg.Attachments),
	}, nil
}

// documentLinks 按首次出现顺序为互不相同的附件引用生成下载链接，每次调用都返回新切片
func documentLinks(baseURL string, attachments []domain.AttachmentRef) []domain.DocumentLink {
	links := make([]domain.DocumentLink, 0, len(attachments))
	seen := make(map[domain.AttachmentRef]struct{}, len(attachments))
	for _, att := range attachments {
		if _, dup := seen[att]; dup {
			continue
		}
		seen[att] = struct{}{}
		links = append(links, domain.DocumentLink{
			Name: att.Name,
			URL:  joinLocator(baseURL, att.DownloadLocator),
		})
	}
	return links
}

// joinLocator 将附件定位符拼接到基础 URL 上，已是绝对地址的定位符原样返回
func joinLocator(baseURL, locator string) string {
	if u, err := url.Parse(locator); err == nil && u.IsAbs() {
		return locator
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(locator, "/")
}
