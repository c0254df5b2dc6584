package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"msgcenter/backend/internal/domain"
)

// MockIdentityRepository 模拟身份存储
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) GetIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

// MockMessageRepository 模拟站内信存储
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) ListByTarget(ctx context.Context, targetID string) ([]domain.Message, error) {
	args := m.Called(ctx, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockMessageRepository) GetFull(ctx context.Context, portalID int64, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, portalID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) GetMetadata(ctx context.Context, offerIDs []string) ([]domain.MetadataRecord, error) {
	args := m.Called(ctx, offerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MetadataRecord), args.Error(1)
}

// stubResolver 固定返回值的基础 URL 解析器
type stubResolver struct {
	url   string
	err   error
	calls int
}

func (r *stubResolver) Resolve(_ context.Context, _ domain.RecipientContext) (string, error) {
	r.calls++
	return r.url, r.err
}
