// Package metrics 书店的Prometheus指标
//
// 指标分三组：
//   - HTTP：请求数、耗时、处理中的请求数（由middleware.Metrics记录）
//   - 业务：订单/发票/库存冲突/促销（由应用层用例记录）
//   - 基础设施：熔断器状态、消息发布结果
//
// 命名规范：Counter以_total结尾，Histogram以单位结尾（_seconds）。
// 标签只使用有限取值（method、status、reason），不要用user_id、order_id做标签。
//
// 用法：
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	start := time.Now()
//	... 创建订单 ...
//	metrics.ObserveOrderCreated(time.Since(start))
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// once 防止重复注册（promauto重复注册会panic）
	once sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数，标签：method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时，标签：method、path
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 订单指标

	// OrdersCreatedTotal 订单创建成功总数
	OrdersCreatedTotal prometheus.Counter

	// OrdersFailedTotal 订单创建失败总数，标签：reason（validation/not_found/conflict/internal）
	OrdersFailedTotal *prometheus.CounterVec

	// OrdersCancelledTotal 订单取消总数，标签：restocked（true/false）
	OrdersCancelledTotal *prometheus.CounterVec

	// OrderCreationDuration 订单创建耗时
	OrderCreationDuration prometheus.Histogram

	// OrdersInProgress 正在创建的订单数
	OrdersInProgress prometheus.Gauge

	// 发票与库存指标

	// InvoicesCreatedTotal 门店发票创建总数
	InvoicesCreatedTotal prometheus.Counter

	// StockConflictsTotal 库存不足被拒绝的次数，标签：source（order/invoice/adjust）
	StockConflictsTotal *prometheus.CounterVec

	// 促销指标

	// PromotionChecksTotal 促销码校验次数，标签：result（ok/not_found/not_active/expired/exhausted/below_min）
	PromotionChecksTotal *prometheus.CounterVec

	// PromotionsConsumedTotal 促销码被订单/发票实际使用的次数
	PromotionsConsumedTotal prometheus.Counter

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN），标签：name
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数，标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// 消息队列指标

	// MessagesPublishedTotal 领域事件发布总数，标签：routing_key、result（success/failure）
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 注册所有指标到默认Registry（可重复调用）
func InitMetrics() {
	once.Do(register)
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

	OrdersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "订单创建总数",
		},
	)

	OrdersFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_failed_total",
			Help: "订单创建失败总数",
		},
		[]string{"reason"},
	)

	OrdersCancelledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_cancelled_total",
			Help: "订单取消总数",
		},
		[]string{"restocked"},
	)

	// 订单创建包含行锁等待，桶从10ms开始
	OrderCreationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_creation_duration_seconds",
			Help:    "订单创建耗时（秒）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	OrdersInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orders_in_progress",
			Help: "正在创建的订单数",
		},
	)

	InvoicesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invoices_created_total",
			Help: "门店发票创建总数",
		},
	)

	StockConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_conflicts_total",
			Help: "库存不足导致的拒绝次数",
		},
		[]string{"source"},
	)

	PromotionChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promotion_checks_total",
			Help: "促销码校验次数",
		},
		[]string{"result"},
	)

	PromotionsConsumedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promotions_consumed_total",
			Help: "促销码实际使用次数",
		},
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

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "领域事件发布总数",
		},
		[]string{"routing_key", "result"},
	)
}

// =========================================
// 业务记录函数（内部会确保已初始化，测试中可直接调用）
// =========================================

// ObserveHTTPRequest 记录一次HTTP请求
func ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	InitMetrics()
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// TrackOrderInProgress 递增处理中的订单数，返回的函数用于递减
func TrackOrderInProgress() func() {
	InitMetrics()
	OrdersInProgress.Inc()
	return OrdersInProgress.Dec
}

// ObserveOrderCreated 记录订单创建成功及耗时
func ObserveOrderCreated(elapsed time.Duration) {
	InitMetrics()
	OrdersCreatedTotal.Inc()
	OrderCreationDuration.Observe(elapsed.Seconds())
}

// IncOrderFailed 记录订单创建失败
func IncOrderFailed(reason string) {
	InitMetrics()
	OrdersFailedTotal.WithLabelValues(reason).Inc()
}

// IncOrderCancelled 记录订单取消
func IncOrderCancelled(restocked bool) {
	InitMetrics()
	label := "false"
	if restocked {
		label = "true"
	}
	OrdersCancelledTotal.WithLabelValues(label).Inc()
}

// IncInvoiceCreated 记录发票创建
func IncInvoiceCreated() {
	InitMetrics()
	InvoicesCreatedTotal.Inc()
}

// IncStockConflict 记录一次库存冲突
func IncStockConflict(source string) {
	InitMetrics()
	StockConflictsTotal.WithLabelValues(source).Inc()
}

// IncPromotionCheck 记录一次促销码校验结果
func IncPromotionCheck(result string) {
	InitMetrics()
	PromotionChecksTotal.WithLabelValues(result).Inc()
}

// IncPromotionConsumed 记录一次促销码使用
func IncPromotionConsumed() {
	InitMetrics()
	PromotionsConsumedTotal.Inc()
}

// SetCircuitBreakerState 记录熔断器当前状态
func SetCircuitBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// IncCircuitBreakerRequest 记录熔断器请求结果
func IncCircuitBreakerRequest(name, result string) {
	InitMetrics()
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// IncMessagePublished 记录事件发布结果
func IncMessagePublished(routingKey string, ok bool) {
	InitMetrics()
	result := "success"
	if !ok {
		result = "failure"
	}
	MessagesPublishedTotal.WithLabelValues(routingKey, result).Inc()
}
