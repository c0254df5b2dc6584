package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	jwtpkg "msgcenter/backend/internal/auth/jwt"
	"msgcenter/backend/internal/config"
	"msgcenter/backend/internal/health"
	"msgcenter/backend/internal/middleware"
	"msgcenter/backend/internal/monitoring"
	"msgcenter/backend/internal/service"
)

// maxTokenBodyBytes 令牌请求体上限
const maxTokenBodyBytes = 4 << 10

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config               *config.Config
	MessageCenterService *service.MessageCenterService
	TokenService         *service.TokenService
	JWTManager           *jwtpkg.Manager
	Metrics              *monitoring.Metrics
	Health               *health.HealthChecker
	RateLimiter          *middleware.RateLimiter
	Logger               *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	router.Use(middleware.Recovery(log, deps.Metrics))
	router.Use(middleware.RequestLogger(log))
	if deps.Metrics != nil {
		router.Use(middleware.HTTPMetrics(deps.Metrics))
	}
	router.Use(middleware.SecurityHeaders())

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderUserID},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	allowAll := len(corsConfig.AllowOrigins) == 0
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
	}
	if allowAll {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(gincors.New(corsConfig))

	// 运维端点
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}
	if deps.Health != nil {
		router.GET("/live", gin.WrapH(deps.Health.LiveHandler()))
		router.GET("/ready", gin.WrapH(deps.Health.ReadyHandler()))
	}

	api := router.Group("")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Handler())
	}

	// ========== Message Center Routes ==========
	jwtAuth := middleware.NewJWTAuth(deps.JWTManager, log)
	messageCenter := NewMessageCenterHandler(deps.MessageCenterService, deps.Metrics, log)

	mc := api.Group("/message-center", jwtAuth.RequireAuth())
	{
		mc.GET("/user/:userId", messageCenter.GetMessageMetadata)
		mc.GET("/get-message-content", messageCenter.GetMessageContent)
		mc.GET("/email/:emailId/content", messageCenter.GetEmailContent)
	}

	// ========== Token Routes ==========
	tokens := NewTokenHandler(deps.TokenService, deps.Metrics, log)

	tk := api.Group("/api/v1/token")
	{
		tk.POST("",
			middleware.RequestSizeLimit(maxTokenBodyBytes),
			middleware.ValidateContentType("application/json"),
			tokens.Generate,
		)
		tk.GET("/:token/validate", tokens.Validate)
		tk.DELETE("/user", tokens.DeleteUserTokens)
		tk.DELETE("/:token", tokens.Delete)
	}

	router.NoRoute(func(c *gin.Context) {
		NotFound(c)
	})
	router.NoMethod(func(c *gin.Context) {
		Error(c, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return router
}
