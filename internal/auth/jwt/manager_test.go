package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgcenter/backend/internal/config"
	"msgcenter/backend/internal/domain"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:       "test-secret-key-with-at-least-32-characters",
		Issuer:       "msgcenter-test",
		AccessExpiry: 15 * time.Minute,
	}
}

var testIdentity = domain.Identity{
	ID:             "11111111-1111-4111-8111-111111111111",
	Role:           domain.RoleEmployee,
	OrganizationID: 5,
	Email:          "emp@example.com",
}

var testScope = domain.NewRequestScope(testIdentity)

func TestManager_GenerateAndValidate(t *testing.T) {
	manager := NewManager(testConfig())

	token, err := manager.GenerateAccessToken(testScope)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, testIdentity.ID, claims.UserID)
	assert.Equal(t, testIdentity, claims.Identity())
	assert.Equal(t, "msgcenter-test", claims.Issuer)
	assert.Equal(t, testScope, claims.Scope())
}

func TestManager_PortalClaim(t *testing.T) {
	manager := NewManager(testConfig())
	scope := testScope
	scope.PortalID = 42

	token, err := manager.GenerateAccessToken(scope)
	require.NoError(t, err)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.Scope().PortalID)
	assert.Equal(t, int64(5), claims.Scope().Caller.OrganizationID)
}

func TestManager_ValidateToken_Invalid(t *testing.T) {
	manager := NewManager(testConfig())

	t.Run("格式错误", func(t *testing.T) {
		_, err := manager.ValidateToken("invalid.token.string")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("签名密钥不同", func(t *testing.T) {
		other := testConfig()
		other.Secret = "another-secret-key-with-at-least-32-chars"
		token, err := NewManager(other).GenerateAccessToken(testScope)
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("签发者不同", func(t *testing.T) {
		other := testConfig()
		other.Issuer = "someone-else"
		token, err := NewManager(other).GenerateAccessToken(testScope)
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("已过期", func(t *testing.T) {
		token, err := manager.generate(testScope, time.Now().Add(-time.Hour), time.Minute)
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("非HMAC算法", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: testIdentity.ID})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = manager.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_Identity_UnknownRole(t *testing.T) {
	claims := &Claims{UserID: "u", Role: "admin", OrganizationID: 3}
	identity := claims.Identity()
	assert.Equal(t, domain.RoleRegular, identity.Role)
	assert.Equal(t, int64(3), identity.OrganizationID)
}

func TestClaims_Identity_RoleFlags(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	claims := Claims{
		UserID:         testIdentity.ID,
		Role:           string(domain.RoleEmployee),
		Roles:          []string{"employee", "superuser", "unknown"},
		OrganizationID: 5,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	parsed, err := NewManager(cfg).ValidateToken(signed)

	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperuser, parsed.Identity().Role)
	assert.Equal(t, domain.RoleSuperuser, parsed.Scope().Caller.Role)
}
