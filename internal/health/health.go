package health

import (
	"context"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
)

// Pinger 可被探测的依赖（存储、Redis 等）
type Pinger interface {
	Health(ctx context.Context) error
}

// PingerFunc 适配普通函数
type PingerFunc func(ctx context.Context) error

// Health 实现 Pinger
func (f PingerFunc) Health(ctx context.Context) error {
	return f(ctx)
}

// HealthChecker 健康检查器
//
// /live 只反映进程自身状态；/ready 额外探测各依赖。
type HealthChecker struct {
	health  healthcheck.Handler
	timeout time.Duration
	logger  *zap.Logger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := &HealthChecker{
		health:  healthcheck.NewHandler(),
		timeout: 3 * time.Second,
		logger:  logger,
	}
	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))
	return hc
}

// AddDependency 注册就绪检查
func (hc *HealthChecker) AddDependency(name string, dep Pinger) {
	hc.health.AddReadinessCheck(name, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), hc.timeout)
		defer cancel()

		if err := dep.Health(ctx); err != nil {
			hc.logger.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
			return err
		}
		return nil
	})
}

// LiveHandler 存活检查处理器
func (hc *HealthChecker) LiveHandler() http.Handler {
	return http.HandlerFunc(hc.health.LiveEndpoint)
}

// ReadyHandler 就绪检查处理器
func (hc *HealthChecker) ReadyHandler() http.Handler {
	return http.HandlerFunc(hc.health.ReadyEndpoint)
}
