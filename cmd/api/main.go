package main

// @title Message Center API
// @version 1.0.0
// @description 投资人站内信与一次性令牌 API
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 使用格式：Bearer {token}

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	jwtpkg "msgcenter/backend/internal/auth/jwt"
	"msgcenter/backend/internal/cache"
	"msgcenter/backend/internal/config"
	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/health"
	"msgcenter/backend/internal/logger"
	"msgcenter/backend/internal/middleware"
	"msgcenter/backend/internal/monitoring"
	"msgcenter/backend/internal/service"
	"msgcenter/backend/internal/storage"
	"msgcenter/backend/internal/storage/hybrid"
	"msgcenter/backend/internal/storage/memory"
	"msgcenter/backend/internal/storage/postgres"
	"msgcenter/backend/internal/storage/redis"
	sqlstore "msgcenter/backend/internal/storage/sql"
	httptransport "msgcenter/backend/internal/transport/http"
)

const version = "1.0.0"

// rateLimitCleanupInterval 清理闲置限流器的周期
const rateLimitCleanupInterval = 5 * time.Minute

// backingStore 主存储：站内信读路径加令牌存取
type backingStore interface {
	storage.Store
	storage.TokenRepository
}

// main 是站内信 HTTP 服务的程序入口。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		Service:     "msgcenter-api",
		LogFile:     cfg.Log.File,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()
	log.Info("starting message center API server",
		zap.String("version", version),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	healthChecker := health.NewHealthChecker(log)
	healthChecker.AddDependency("store", store)

	// 令牌存储：启用 Redis 时使用 Redis，否则与主存储共用
	var tokenRepo storage.TokenRepository = store
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		tokenStore := redis.NewTokenStore(redisClient)
		tokenRepo = tokenStore
		healthChecker.AddDependency("redis", tokenStore)
	}

	// 门户查询：配置了缓存时经由本地 L1 缓存
	var portals storage.PortalRepository = store
	var portalCache *cache.LocalCache[int64, domain.Portal]
	if cfg.Cache.PortalTTL > 0 {
		portalCache = cache.NewLocalCache[int64, domain.Portal](cfg.Cache.MaxEntries, cfg.Cache.PortalTTL)
		portals = hybrid.NewPortalStore(store, portalCache, cfg.Cache.PortalTTL)
		log.Info("portal cache enabled", zap.Duration("ttl", cfg.Cache.PortalTTL))
	}

	// 初始化服务层
	resolver := service.NewPortalBaseURLResolver(portals, cfg.Portal.DefaultBaseURL)
	messageCenterService := service.NewMessageCenterService(
		service.NewAccessPolicy(store),
		store,
		service.NewMessageAssembler(resolver),
		log.Named("message-center"),
	)
	tokenService := service.NewTokenService(tokenRepo, cfg.Token.DefaultTTL)

	jwtManager := jwtpkg.NewManager(cfg.JWT)
	log.Info("JWT configuration",
		zap.String("issuer", cfg.JWT.Issuer),
		zap.Duration("access_expiry", cfg.JWT.AccessExpiry),
	)

	metrics := monitoring.NewMetrics()
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, metrics, log)

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:               cfg,
		MessageCenterService: messageCenterService,
		TokenService:         tokenService,
		JWTManager:           jwtManager,
		Metrics:              metrics,
		Health:               healthChecker,
		RateLimiter:          rateLimiter,
		Logger:               log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("API server listening", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 定时清理闲置限流器 goroutine
	group.Go(func() error {
		ticker := time.NewTicker(rateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if removed := rateLimiter.Cleanup(); removed > 0 {
					log.Debug("idle rate limiters removed", zap.Int("count", removed))
				}
			}
		}
	})

	// 定时清理过期门户缓存 goroutine
	if portalCache != nil {
		group.Go(func() error {
			portalCache.Run(groupCtx, time.Minute)
			return nil
		})
	}

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
			return err
		}
		log.Info("server stopped cleanly")
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", zap.Error(err))
	}
}

// openStore 按 database.type 选择存储实现
//
//   - "": 内存存储，可选从 seed 文件加载初始数据
//   - "pgx": pgxpool 直连 PostgreSQL
//   - "postgres"/"mysql": database/sql 连接，可选 gorm 自动迁移
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (backingStore, error) {
	switch cfg.Database.Type {
	case "":
		store := memory.NewStore()
		if cfg.Database.SeedFile != "" {
			if err := store.LoadSeedFile(cfg.Database.SeedFile); err != nil {
				return nil, err
			}
			log.Info("memory storage seeded", zap.String("file", cfg.Database.SeedFile))
		}
		log.Warn("using memory storage, data will be lost on restart")
		return store, nil
	case "pgx":
		client, err := postgres.New(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		log.Info("using PostgreSQL storage (pgx)")
		return postgres.NewStore(client), nil
	default:
		store, err := sqlstore.NewStore(cfg.Database)
		if err != nil {
			return nil, err
		}
		log.Info("using SQL storage",
			zap.String("driver", cfg.Database.Type),
			zap.Bool("auto_migrate", cfg.Database.AutoMigrate),
		)
		return store, nil
	}
}
