package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标，注册在独立的 Registry 上
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 站内信指标
	AccessDenials     *prometheus.CounterVec
	ContentAssemblies *prometheus.CounterVec
	DocumentLinks     prometheus.Histogram

	// 令牌指标
	TokensIssued *prometheus.CounterVec

	// 错误指标
	PanicsTotal     prometheus.Counter
	RateLimitBlocks prometheus.Counter
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msgcenter_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "msgcenter_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		AccessDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msgcenter_preview_denials_total",
				Help: "Preview requests denied, by reason",
			},
			[]string{"reason"},
		),

		ContentAssemblies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msgcenter_content_assemblies_total",
				Help: "Message content assemblies, by result",
			},
			[]string{"result"},
		),

		DocumentLinks: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "msgcenter_document_links",
				Help:    "Number of document links per assembled message",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
		),

		TokensIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msgcenter_tokens_issued_total",
				Help: "Tokens issued, by type",
			},
			[]string{"token_type"},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "msgcenter_panics_total",
				Help: "Total number of recovered panics",
			},
		),

		RateLimitBlocks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "msgcenter_rate_limit_blocks_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAccessDenial 记录预览拒绝（forbidden / target_not_found）
func (m *Metrics) RecordAccessDenial(reason string) {
	m.AccessDenials.WithLabelValues(reason).Inc()
}

// RecordContentAssembly 记录一次内容组装结果
func (m *Metrics) RecordContentAssembly(result string, links int) {
	m.ContentAssemblies.WithLabelValues(result).Inc()
	if result == "ok" {
		m.DocumentLinks.Observe(float64(links))
	}
}

// RecordTokenIssued 记录令牌签发
func (m *Metrics) RecordTokenIssued(tokenType string) {
	m.TokensIssued.WithLabelValues(tokenType).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// RecordRateLimitBlock 记录限流拒绝
func (m *Metrics) RecordRateLimitBlock() {
	m.RateLimitBlocks.Inc()
}

// Registry 返回指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
