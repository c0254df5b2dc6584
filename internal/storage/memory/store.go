package memory

import (
	"context"
	"sync"
	"time"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

// Store 使用内存保存身份、站内信、门户与令牌数据，主要用于开发验证和测试。
type Store struct {
	mu         sync.RWMutex
	identities map[string]*domain.Identity      // identityID -> identity
	messages   map[string]*domain.Message       // messageID -> message
	byTarget   map[string][]string              // targetID -> messageIDs（保持写入顺序）
	metadata   map[string]domain.MetadataRecord // offerID -> metadata
	portals    map[int64]*domain.Portal         // portalID -> portal
	tokens     map[string]*domain.Token         // token -> token
	byUser     map[string]map[string]struct{}   // userID -> tokens

	now func() time.Time
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		identities: make(map[string]*domain.Identity),
		messages:   make(map[string]*domain.Message),
		byTarget:   make(map[string][]string),
		metadata:   make(map[string]domain.MetadataRecord),
		portals:    make(map[int64]*domain.Portal),
		tokens:     make(map[string]*domain.Token),
		byUser:     make(map[string]map[string]struct{}),
		now:        time.Now,
	}
}

// SetClock 替换时间源（测试用）
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ========== Identity Repository ==========

// SaveIdentity 保存身份信息。
func (s *Store) SaveIdentity(identity *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *identity
	s.identities[identity.ID] = &cp
	return nil
}

// GetIdentity 根据 ID 获取身份。
func (s *Store) GetIdentity(_ context.Context, id string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[id]
	if !ok {
		return nil, storage.ErrIdentityNotFound
	}
	cp := *identity
	return &cp, nil
}

// ========== Message Repository ==========

// SaveMessage 保存邮件，重复 ID 覆盖原内容但保留原顺序。
func (s *Store) SaveMessage(message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.messages[message.ID]; !exists {
		s.byTarget[message.TargetID] = append(s.byTarget[message.TargetID], message.ID)
	}
	s.messages[message.ID] = copyMessage(message, true)
	return nil
}

// ListByTarget 返回投递给指定身份的全部邮件，不含附件。
func (s *Store) ListByTarget(_ context.Context, targetID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byTarget[targetID]
	result := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		msg, ok := s.messages[id]
		if !ok || msg.TargetID != targetID {
			continue
		}
		result = append(result, *copyMessage(msg, false))
	}
	return result, nil
}

// GetFull 返回指定门户下的邮件及附件。
func (s *Store) GetFull(_ context.Context, portalID int64, messageID string) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[messageID]
	if !ok || msg.PortalID != portalID {
		return nil, storage.ErrMessageNotFound
	}
	return copyMessage(msg, true), nil
}

// SaveMetadata 保存项目元数据。
func (s *Store) SaveMetadata(record domain.MetadataRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metadata[record.OfferID] = record
	return nil
}

// GetMetadata 返回给定项目 ID 对应的元数据，未知 ID 被跳过。
func (s *Store) GetMetadata(_ context.Context, offerIDs []string) ([]domain.MetadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.MetadataRecord, 0, len(offerIDs))
	for _, id := range offerIDs {
		if rec, ok := s.metadata[id]; ok {
			result = append(result, rec)
		}
	}
	return result, nil
}

// ========== Portal Repository ==========

// SavePortal 保存门户信息。
func (s *Store) SavePortal(portal *domain.Portal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *portal
	s.portals[portal.ID] = &cp
	return nil
}

// GetPortal 根据 ID 获取门户。
func (s *Store) GetPortal(_ context.Context, id int64) (*domain.Portal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	portal, ok := s.portals[id]
	if !ok {
		return nil, storage.ErrPortalNotFound
	}
	cp := *portal
	return &cp, nil
}

// ========== Token Repository ==========

// SaveToken 保存令牌。
func (s *Store) SaveToken(_ context.Context, token *domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *token
	s.tokens[token.Token] = &cp
	if s.byUser[token.UserID] == nil {
		s.byUser[token.UserID] = make(map[string]struct{})
	}
	s.byUser[token.UserID][token.Token] = struct{}{}
	return nil
}

// GetToken 获取令牌，过期令牌视为不存在并被清理。
func (s *Store) GetToken(_ context.Context, value string) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[value]
	if !ok {
		return nil, storage.ErrTokenNotFound
	}
	if token.IsExpired(s.now()) {
		s.deleteTokenLocked(value)
		return nil, storage.ErrTokenNotFound
	}
	cp := *token
	return &cp, nil
}

// DeleteToken 删除令牌，不存在时不报错。
func (s *Store) DeleteToken(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteTokenLocked(value)
	return nil
}

// DeleteTokensByUser 删除用户的全部令牌，返回删除数量。
func (s *Store) DeleteTokensByUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for value := range s.byUser[userID] {
		delete(s.tokens, value)
		count++
	}
	delete(s.byUser, userID)
	return count, nil
}

func (s *Store) deleteTokenLocked(value string) {
	token, ok := s.tokens[value]
	if !ok {
		return
	}
	delete(s.tokens, value)
	if set := s.byUser[token.UserID]; set != nil {
		delete(set, value)
		if len(set) == 0 {
			delete(s.byUser, token.UserID)
		}
	}
}

// ========== 工具方法 ==========

// Health 内存存储始终可用
func (s *Store) Health(context.Context) error {
	return nil
}

// Close 内存存储无需释放资源
func (s *Store) Close() error {
	return nil
}

func copyMessage(msg *domain.Message, withAttachments bool) *domain.Message {
	cp := *msg
	cp.Attachments = nil
	if withAttachments && len(msg.Attachments) > 0 {
		cp.Attachments = make([]domain.AttachmentRef, len(msg.Attachments))
		copy(cp.Attachments, msg.Attachments)
	}
	return &cp
}

var (
	_ storage.Store           = (*Store)(nil)
	_ storage.TokenRepository = (*Store)(nil)
)
