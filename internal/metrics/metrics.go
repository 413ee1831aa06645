package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP 入站与 Notion 出站的基础指标，注册到默认 registry，
// 由 /metrics 端点暴露

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habbits_http_requests_total",
			Help: "Total HTTP requests processed, by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habbits_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	notionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habbits_notion_requests_total",
			Help: "Outbound Notion API calls, by method and status.",
		},
		[]string{"method", "status"},
	)

	notionRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "habbits_notion_request_duration_seconds",
			Help:    "Outbound Notion API call latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// ObserveHTTPRequest 记录一次入站请求
func ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveNotionRequest 记录一次出站 Notion 调用。
// 传输层失败时 status 记为 0。
func ObserveNotionRequest(method string, status int, elapsed time.Duration) {
	notionRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	notionRequestDuration.Observe(elapsed.Seconds())
}
