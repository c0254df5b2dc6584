package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentityID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"Valid uuid", "0b6f6c1e-2f39-4c55-9a39-2f0f0a0e3c11", "0b6f6c1e-2f39-4c55-9a39-2f0f0a0e3c11", false},
		{"Upper case uuid", "0B6F6C1E-2F39-4C55-9A39-2F0F0A0E3C11", "0b6f6c1e-2f39-4c55-9a39-2f0f0a0e3c11", false},
		{"Surrounding spaces", "  0b6f6c1e-2f39-4c55-9a39-2f0f0a0e3c11 ", "0b6f6c1e-2f39-4c55-9a39-2f0f0a0e3c11", false},
		{"Empty", "", "", true},
		{"Not a uuid", "user-42", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseIdentityID(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIdentityID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestValidateMessageID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected bool
	}{
		{"Numeric id", "12345", true},
		{"Uuid id", "9a1f3a8e-6c1c-4e1b-8a55-1f7d7c2b6e01", true},
		{"Empty", "", false},
		{"Path traversal", "../etc", false},
		{"Contains space", "12 34", false},
		{"Too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageID(tt.id)
			assert.Equal(t, tt.expected, err == nil)
		})
	}
}

func TestValidateTokenTTL(t *testing.T) {
	assert.NoError(t, ValidateTokenTTL(0))
	assert.NoError(t, ValidateTokenTTL(100))
	assert.ErrorIs(t, ValidateTokenTTL(-1), ErrInvalidTokenTTL)
	assert.ErrorIs(t, ValidateTokenTTL(MaxTokenTTLSeconds+1), ErrInvalidTokenTTL)
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []Role
		expected Role
	}{
		{"No flags", nil, RoleRegular},
		{"Employee only", []Role{RoleEmployee}, RoleEmployee},
		{"Staff beats employee", []Role{RoleEmployee, RoleStaff}, RoleStaff},
		{"Superuser beats all", []Role{RoleStaff, RoleSuperuser, RoleEmployee}, RoleSuperuser},
		{"Unknown ignored", []Role{Role("admin"), RoleEmployee}, RoleEmployee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeRole(tt.roles...))
		})
	}
}

func TestRoleFlags_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		flags    RoleFlags
		expected Role
	}{
		{"无标记沿用角色列", RoleEmployee, RoleFlags{}, RoleEmployee},
		{"员工与超级用户标记取超级用户", RoleRegular, RoleFlags{Employee: true, Superuser: true}, RoleSuperuser},
		{"标记高于角色列", RoleEmployee, RoleFlags{Staff: true}, RoleStaff},
		{"角色列高于标记", RoleSuperuser, RoleFlags{Employee: true}, RoleSuperuser},
		{"未知角色列按标记处理", Role("admin"), RoleFlags{Employee: true}, RoleEmployee},
		{"全部为空为普通用户", Role(""), RoleFlags{}, RoleRegular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.flags.Resolve(tt.role))
		})
	}
}

func TestNewMessageMetadata(t *testing.T) {
	records := map[string]MetadataRecord{
		"offer-1": {OfferID: "offer-1", OfferName: "Tower A", SponsorName: "Acme"},
	}

	t.Run("关联项目元数据", func(t *testing.T) {
		view := NewMessageMetadata(Message{ID: "m1", Subject: "Q1", OfferID: "offer-1"}, records)
		assert.Equal(t, "Tower A", view.OfferName)
		assert.Equal(t, "Acme", view.SponsorName)
	})

	t.Run("未关联项目时字段为空", func(t *testing.T) {
		view := NewMessageMetadata(Message{ID: "m2", Subject: "Hello"}, records)
		assert.Empty(t, view.OfferID)
		assert.Empty(t, view.OfferName)
	})

	t.Run("找不到元数据记录时仅保留项目ID", func(t *testing.T) {
		view := NewMessageMetadata(Message{ID: "m3", OfferID: "offer-9"}, records)
		assert.Equal(t, "offer-9", view.OfferID)
		assert.Empty(t, view.SponsorName)
	})
}

func TestTokenIsExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, (&Token{}).IsExpired(now), "zero expiry never expires")
	assert.False(t, (&Token{ExpiresAt: now.Add(time.Second)}).IsExpired(now))
	assert.True(t, (&Token{ExpiresAt: now}).IsExpired(now))
	assert.True(t, (&Token{ExpiresAt: now.Add(-time.Minute)}).IsExpired(now))
}
