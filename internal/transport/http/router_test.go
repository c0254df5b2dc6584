package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtpkg "msgcenter/backend/internal/auth/jwt"
	"msgcenter/backend/internal/config"
	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/health"
	"msgcenter/backend/internal/monitoring"
	"msgcenter/backend/internal/service"
	"msgcenter/backend/internal/storage/memory"
)

const (
	investorID = "22222222-2222-4222-8222-222222222222"
	employeeID = "11111111-1111-4111-8111-111111111111"
	outsiderID = "33333333-3333-4333-8333-333333333333"
	globalID   = "44444444-4444-4444-8444-444444444444"
	missingID  = "55555555-5555-4555-8555-555555555555"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	store   *memory.Store
	jwt     *jwtpkg.Manager
	metrics *monitoring.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	sent := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.ApplySeed(memory.Seed{
		Identities: []domain.Identity{
			{ID: investorID, Role: domain.RoleRegular, OrganizationID: 5},
			{ID: employeeID, Role: domain.RoleEmployee, OrganizationID: 5},
			{ID: outsiderID, Role: domain.RoleRegular, OrganizationID: 9},
			{ID: globalID, Role: domain.RoleRegular, OrganizationID: 0},
		},
		Portals: []domain.Portal{
			{ID: 5, Name: "Acme", BaseURL: "https://acme.example.com"},
		},
		Messages: []domain.Message{
			{
				ID: "m1", TargetID: investorID, PortalID: 5, OfferID: "offer-a",
				Subject: "Q1 update", Body: "<p>Q1</p>", SentAt: sent,
				Attachments: []domain.AttachmentRef{
					{Name: "report.pdf", DownloadLocator: "documents/1"},
					{Name: "report.pdf", DownloadLocator: "documents/1"},
				},
			},
			{ID: "m2", TargetID: investorID, PortalID: 5, Subject: "Welcome", Body: "hi", SentAt: sent},
			{ID: "m9", TargetID: outsiderID, PortalID: 9, Subject: "Other", Body: "x", SentAt: sent},
		},
		Metadata: []domain.MetadataRecord{
			{OfferID: "offer-a", OfferName: "Fund A", SponsorName: "Sponsor A"},
			{OfferID: "offer-z", OfferName: "Unused", SponsorName: "Unused"},
		},
	}))

	cfg := &config.Config{
		CORS:  config.CORSConfig{AllowedOrigins: []string{"*"}},
		JWT:   config.JWTConfig{Secret: "test-secret-key-with-at-least-32-characters", Issuer: "msgcenter-test", AccessExpiry: time.Minute},
		Token: config.TokenConfig{DefaultTTL: time.Hour},
	}

	jwtManager := jwtpkg.NewManager(cfg.JWT)
	metrics := monitoring.NewMetrics()
	hc := health.NewHealthChecker(nil)
	hc.AddDependency("store", store)

	resolver := service.NewPortalBaseURLResolver(store, "https://invest.example.com")
	center := service.NewMessageCenterService(service.NewAccessPolicy(store), store, service.NewMessageAssembler(resolver), nil)

	router := NewRouter(RouterDependencies{
		Config:               cfg,
		MessageCenterService: center,
		TokenService:         service.NewTokenService(store, cfg.Token.DefaultTTL),
		JWTManager:           jwtManager,
		Metrics:              metrics,
		Health:               hc,
	})

	return &testEnv{router: router, store: store, jwt: jwtManager, metrics: metrics}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) authed(t *testing.T, caller domain.Identity, method, target string) *http.Request {
	t.Helper()
	token, err := e.jwt.GenerateAccessToken(domain.NewRequestScope(caller))
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ========== Message Center ==========

func TestMessageCenter_Metadata(t *testing.T) {
	env := newTestEnv(t)
	investor := domain.Identity{ID: investorID, Role: domain.RoleRegular, OrganizationID: 5}

	t.Run("列出自己的邮件元数据", func(t *testing.T) {
		rec := env.do(t, env.authed(t, investor, http.MethodGet, "/message-center/user/"+investorID))

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Metadata []domain.MessageMetadata `json:"metadata"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Metadata, 2)
		assert.Equal(t, "m1", body.Metadata[0].MessageID)
		assert.Equal(t, "Fund A", body.Metadata[0].OfferName)
		assert.Equal(t, "m2", body.Metadata[1].MessageID)
		assert.Empty(t, body.Metadata[1].OfferName)
		assert.NotContains(t, rec.Body.String(), "Unused")
	})

	t.Run("普通用户预览被拒绝", func(t *testing.T) {
		rec := env.do(t, env.authed(t, investor, http.MethodGet, "/message-center/user/"+outsiderID+"?preview="+outsiderID))

		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, ErrorResponse{Success: false, Status: 403, Error: "Forbidden"}, decodeError(t, rec))
	})

	t.Run("目标ID非法", func(t *testing.T) {
		rec := env.do(t, env.authed(t, investor, http.MethodGet, "/message-center/user/not-a-uuid"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("未认证", func(t *testing.T) {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, "/message-center/user/"+investorID, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMessageCenter_Content(t *testing.T) {
	env := newTestEnv(t)
	employee := domain.Identity{ID: employeeID, Role: domain.RoleEmployee, OrganizationID: 5}

	t.Run("员工预览同门户投资人邮件", func(t *testing.T) {
		rec := env.do(t, env.authed(t, employee, http.MethodGet, "/message-center/get-message-content?messageId=m1&preview="+investorID))

		require.Equal(t, http.StatusOK, rec.Code)
		var content domain.AssembledContent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &content))
		assert.Equal(t, "<p>Q1</p>", content.Body)
		assert.Equal(t, "https://acme.example.com", content.BaseURL)
		assert.Equal(t, []domain.DocumentLink{{Name: "report.pdf", URL: "https://acme.example.com/documents/1"}}, content.DocumentLinks)
		assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ContentAssemblies.WithLabelValues("ok")))
	})

	t.Run("路径参数形式", func(t *testing.T) {
		rec := env.do(t, env.authed(t, employee, http.MethodGet, "/message-center/email/m2/content"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"body":"hi","baseUrl":"https://acme.example.com","documentLinks":[]}`, rec.Body.String())
	})

	t.Run("跨门户预览被拒绝", func(t *testing.T) {
		rec := env.do(t, env.authed(t, employee, http.MethodGet, "/message-center/email/m1/content?preview="+outsiderID))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.AccessDenials.WithLabelValues("forbidden")))
	})

	t.Run("预览目标不存在时拒绝", func(t *testing.T) {
		rec := env.do(t, env.authed(t, employee, http.MethodGet, "/message-center/email/m1/content?preview="+missingID))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.AccessDenials.WithLabelValues("target_not_found")))
	})

	t.Run("其他门户的邮件不存在", func(t *testing.T) {
		rec := env.do(t, env.authed(t, employee, http.MethodGet, "/message-center/email/m9/content"))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, ErrorResponse{Success: false, Status: 404, Error: "Not Found"}, decodeError(t, rec))
	})

	t.Run("缺少邮件ID", func(t *testing.T) {
		rec := env.do(t, env.authed(t, employee, http.MethodGet, "/message-center/get-message-content"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("超级用户可预览任意身份", func(t *testing.T) {
		super := domain.Identity{ID: employeeID, Role: domain.RoleSuperuser, OrganizationID: 9}
		token, err := env.jwt.GenerateAccessToken(domain.RequestScope{Caller: super, PortalID: 5})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/message-center/email/m1/content?preview="+globalID, nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rec := env.do(t, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var content domain.AssembledContent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &content))
		// 基础 URL 取调用方所属组织，组织 9 未配置门户时使用默认值
		assert.Equal(t, "https://invest.example.com", content.BaseURL)
	})
}

// ========== Token API ==========

func TestTokenAPI(t *testing.T) {
	env := newTestEnv(t)

	generate := func(t *testing.T, userID, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/token", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(HeaderUserID, userID)
		return env.do(t, req)
	}

	t.Run("生成并校验令牌", func(t *testing.T) {
		rec := generate(t, investorID, `{"tokenType":"FORGOT_PASSWORD","ttl":600}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var created struct {
			Data domain.Token `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		require.NotEmpty(t, created.Data.Token)
		assert.Equal(t, investorID, created.Data.UserID)
		assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.TokensIssued.WithLabelValues("FORGOT_PASSWORD")))

		rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/token/"+created.Data.Token+"/validate", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

		var validated struct {
			Data domain.Token `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &validated))
		assert.Equal(t, created.Data.Token, validated.Data.Token)
		assert.Equal(t, domain.TokenForgotPassword, validated.Data.Type)
	})

	t.Run("令牌不存在", func(t *testing.T) {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/token/unknown/validate", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		assert.Equal(t, ErrorResponse{Success: false, Status: 404, Error: "Not Found"}, decodeError(t, rec))
	})

	t.Run("删除用户令牌", func(t *testing.T) {
		require.Equal(t, http.StatusOK, generate(t, investorID, `{"tokenType":"INVITATION"}`).Code)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/token/user", nil)
		req.Header.Set(HeaderUserID, investorID)
		rec := env.do(t, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("删除用户令牌缺少用户ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/token/user", nil)
		req.Header.Set(HeaderUserID, "")
		rec := env.do(t, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, ErrorResponse{Success: false, Status: 400, Error: "Undefined userId."}, decodeError(t, rec))
	})

	t.Run("生成令牌缺少用户ID", func(t *testing.T) {
		rec := generate(t, "", `{"tokenType":"FORGOT_PASSWORD"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Undefined userId.", decodeError(t, rec).Error)
	})

	t.Run("非法令牌类型", func(t *testing.T) {
		rec := generate(t, investorID, `{"tokenType":"RESET"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid tokenType.", decodeError(t, rec).Error)
	})

	t.Run("请求体格式错误", func(t *testing.T) {
		rec := generate(t, investorID, `{"tokenType":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("删除令牌", func(t *testing.T) {
		rec := generate(t, investorID, `{"tokenType":"EMAIL_VERIFICATION"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var created struct {
			Data domain.Token `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/token/"+created.Data.Token, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/token/"+created.Data.Token+"/validate", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// ========== Ops ==========

func TestOpsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, httptest.NewRequest(http.MethodGet, "/live", nil)).Code)
	assert.Equal(t, http.StatusOK, env.do(t, httptest.NewRequest(http.MethodGet, "/ready", nil)).Code)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "msgcenter_http_requests_total")

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, StatusFor(service.ErrPreviewTargetNotFound))
	assert.Equal(t, http.StatusNotFound, StatusFor(service.ErrMessageNotFound))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(service.ErrBaseURLResolution))
	assert.Equal(t, "Forbidden", GetErrorMessage(service.ErrForbidden, http.StatusForbidden))
}
