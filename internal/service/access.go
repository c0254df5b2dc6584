package service

import (
	"context"
	"errors"
	"fmt"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

// previewRule 单个角色的预览授权判断
type previewRule func(caller, target domain.Identity) bool

// previewRules 每个角色一条规则，regular 没有规则即永远拒绝
var previewRules = map[domain.Role]previewRule{
	domain.RoleSuperuser: func(_, _ domain.Identity) bool {
		return true
	},
	domain.RoleStaff: func(_, target domain.Identity) bool {
		return target.IsUnaffiliated()
	},
	domain.RoleEmployee: func(caller, target domain.Identity) bool {
		return target.OrganizationID == caller.OrganizationID
	},
}

// CanPreview 判断调用方是否可以查看目标身份的数据
func CanPreview(caller, target domain.Identity) bool {
	rule, ok := previewRules[caller.Role]
	return ok && rule(caller, target)
}

// AccessPolicy 预览访问控制策略
type AccessPolicy struct {
	identities storage.IdentityRepository
}

// NewAccessPolicy 创建访问控制策略。
func NewAccessPolicy(identities storage.IdentityRepository) *AccessPolicy {
	return &AccessPolicy{identities: identities}
}

// Authorize 校验调用方是否可以使用预览覆盖
//
// 未请求预览时直接放行；预览目标无法解析时返回 ErrPreviewTargetNotFound，
// 目标存在但角色规则不满足时返回 ErrForbidden。
// 身份查询本身失败（如数据库不可用）时返回包装后的原始错误。
func (p *AccessPolicy) Authorize(ctx context.Context, caller domain.Identity, preview *domain.PreviewRequest) error {
	if preview == nil {
		return nil
	}

	targetID, err := domain.ParseIdentityID(preview.TargetIdentityID)
	if err != nil {
		return ErrPreviewTargetNotFound
	}

	target, err := p.identities.GetIdentity(ctx, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrIdentityNotFound) {
			return ErrPreviewTargetNotFound
		}
		return fmt.Errorf("resolve preview identity: %w", err)
	}

	if !CanPreview(caller, *target) {
		return ErrForbidden
	}
	return nil
}
