package hybrid

import (
	"context"
	"time"

	"msgcenter/backend/internal/cache"
	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

// PortalStore 混合门户存储：本地 L1 缓存 + 持久化存储
//
// 门户基础 URL 在每次正文组装时读取，变更极少，适合短 TTL 缓存。
// 未找到的门户不缓存。
type PortalStore struct {
	backend storage.PortalRepository
	cache   *cache.LocalCache[int64, domain.Portal]
	ttl     time.Duration
}

// NewPortalStore 创建带缓存的门户存储
func NewPortalStore(backend storage.PortalRepository, c *cache.LocalCache[int64, domain.Portal], ttl time.Duration) *PortalStore {
	return &PortalStore{backend: backend, cache: c, ttl: ttl}
}

// GetPortal 根据 ID 获取门户
func (s *PortalStore) GetPortal(ctx context.Context, id int64) (*domain.Portal, error) {
	// 先尝试从缓存获取
	if portal, ok := s.cache.Get(id); ok {
		return &portal, nil
	}

	portal, err := s.backend.GetPortal(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(id, *portal, s.ttl)
	cp := *portal
	return &cp, nil
}

// Invalidate 使指定门户的缓存失效
func (s *PortalStore) Invalidate(id int64) {
	s.cache.Delete(id)
}

var _ storage.PortalRepository = (*PortalStore)(nil)
