// Package metrics 图书馆服务的Prometheus指标
//
// 指标分三类：
//   - HTTP：请求数、耗时、处理中的请求数
//   - 业务：借阅/归还/评论的结果与耗时、推荐缓存命中情况
//   - 基础设施：事件发布、熔断器状态、限流拒绝
//
// InitMetrics只注册一次。所有便捷函数都允许在InitMetrics之前调用（直接忽略），
// 这样领域代码和单元测试不必关心指标是否已初始化。
//
// 命名规范：Counter以_total结尾，Histogram以单位结尾，标签只用有限取值（不要用user_id）。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTPRequestsTotal HTTP请求总数，标签：method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时，标签：method、path
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// LoanOperationsTotal 借阅操作结果，标签：op（borrow/return）、result（success或错误类别）
	LoanOperationsTotal *prometheus.CounterVec

	// LoanOperationDuration 借阅操作耗时（含事务），标签：op
	LoanOperationDuration *prometheus.HistogramVec

	// ReviewOperationsTotal 评论写操作结果，标签：op（create/update/delete）、result
	ReviewOperationsTotal *prometheus.CounterVec

	// RecommendationCacheTotal 推荐缓存结果，标签：query（trending/top_rated/popular）、result（hit/miss/error）
	RecommendationCacheTotal *prometheus.CounterVec

	// EventsPublishedTotal 领域事件发布，标签：routing_key、result（success/failure/rejected）
	EventsPublishedTotal *prometheus.CounterVec

	// CircuitBreakerState 熔断器状态 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数，标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// RateLimitRejectedTotal 被限流拒绝的请求，标签：path
	RateLimitRejectedTotal *prometheus.CounterVec
)

// InitMetrics 注册所有指标到默认Registry，重复调用无副作用
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	LoanOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_loan_operations_total",
			Help: "借阅/归还操作总数",
		},
		[]string{"op", "result"},
	)

	LoanOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "library_loan_operation_duration_seconds",
			Help: "借阅/归还操作耗时（秒）",
			// 单个事务，通常在几十毫秒内
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"op"},
	)

	ReviewOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_review_operations_total",
			Help: "评论写操作总数",
		},
		[]string{"op", "result"},
	)

	RecommendationCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_recommendation_cache_total",
			Help: "推荐结果缓存命中情况",
		},
		[]string{"query", "result"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_events_published_total",
			Help: "领域事件发布总数",
		},
		[]string{"routing_key", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	RateLimitRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejected_total",
			Help: "被限流拒绝的请求数",
		},
		[]string{"path"},
	)
}

// IncCounterVec 递增CounterVec（未初始化时忽略）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Dec()
}

// SetGaugeVec 设置GaugeVec值
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogramVec 记录HistogramVec观测值
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}

// RecordLoanOp 记录一次借阅操作的结果和耗时
func RecordLoanOp(op, result string, seconds float64) {
	IncCounterVec(LoanOperationsTotal, map[string]string{"op": op, "result": result})
	ObserveHistogramVec(LoanOperationDuration, map[string]string{"op": op}, seconds)
}

// RecordReviewOp 记录一次评论写操作的结果
func RecordReviewOp(op, result string) {
	IncCounterVec(ReviewOperationsTotal, map[string]string{"op": op, "result": result})
}

// RecordCache 记录推荐缓存结果
func RecordCache(query, result string) {
	IncCounterVec(RecommendationCacheTotal, map[string]string{"query": query, "result": result})
}

// RecordEvent 记录领域事件发布结果
func RecordEvent(routingKey, result string) {
	IncCounterVec(EventsPublishedTotal, map[string]string{"routing_key": routingKey, "result": result})
}
