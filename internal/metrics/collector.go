// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 联邦查询指标
	queriesTotal      *prometheus.CounterVec
	queryDuration     *prometheus.HistogramVec
	documentsReturned prometheus.Histogram
	duplicatesRemoved prometheus.Counter

	// 节点调度指标
	nodeDispatchTotal    *prometheus.CounterVec
	nodeDispatchDuration *prometheus.HistogramVec

	// 健康监控指标
	probesTotal    *prometheus.CounterVec
	nodesAvailable prometheus.Gauge

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 联邦查询指标
	c.queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "federated_queries_total",
			Help:      "Total number of federated queries",
		},
		[]string{"strategy", "status"}, // status: ok, unavailable, error
	)

	c.queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "federated_query_duration_seconds",
			Help:      "End-to-end federated query duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"strategy"},
	)

	c.documentsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "federated_documents_returned",
			Help:      "Number of documents in the final response",
			Buckets:   []float64{0, 1, 5, 10, 20, 50},
		},
	)

	c.duplicatesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "federated_duplicates_removed_total",
			Help:      "Total number of cross-node duplicates removed during aggregation",
		},
	)

	// 节点调度指标
	c.nodeDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_dispatch_total",
			Help:      "Total number of node search dispatches",
		},
		[]string{"node_id", "outcome"},
	)

	c.nodeDispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_dispatch_duration_seconds",
			Help:      "Per-node search call duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"node_id"},
	)

	// 健康监控指标
	c.probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_probes_total",
			Help:      "Total number of health probes",
		},
		[]string{"node_id", "status"}, // status: success, failure
	)

	c.nodesAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes_available",
			Help:      "Number of registered nodes currently marked available",
		},
	)

	// 缓存指标
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 🔎 联邦查询指标记录
// =============================================================================

// RecordFederatedQuery 记录一次端到端联邦查询
func (c *Collector) RecordFederatedQuery(strategy, status string, duration time.Duration, documents, duplicates int) {
	c.queriesTotal.WithLabelValues(strategy, status).Inc()
	c.queryDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	c.documentsReturned.Observe(float64(documents))
	c.duplicatesRemoved.Add(float64(duplicates))
}

// RecordNodeDispatch 记录一次节点调度
func (c *Collector) RecordNodeDispatch(nodeID, outcome string, duration time.Duration) {
	c.nodeDispatchTotal.WithLabelValues(nodeID, outcome).Inc()
	c.nodeDispatchDuration.WithLabelValues(nodeID).Observe(duration.Seconds())
}

// =============================================================================
// 🏥 健康监控指标记录
// =============================================================================

// RecordProbe 记录一次健康探测
func (c *Collector) RecordProbe(nodeID string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	c.probesTotal.WithLabelValues(nodeID, status).Inc()
}

// SetNodesAvailable 更新可用节点数
func (c *Collector) SetNodesAvailable(n int) {
	c.nodesAvailable.Set(float64(n))
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
