// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はHTTPパイプラインのPrometheusメトリクスを収集する。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
	inFlight        prometheus.Gauge
	rateLimited     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "volunteer_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "volunteer_http_request_duration_seconds",
			Help:    "リクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "volunteer_http_in_flight_requests",
			Help: "処理中のリクエスト数",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "volunteer_rate_limited_total",
			Help: "レート制限で拒否したリクエストの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestDuration,
		c.inFlight,
		c.rateLimited,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
// 429はレート制限拒否としても計上する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	if statusCode == http.StatusTooManyRequests {
		c.rateLimited.Inc()
	}
}

// RecordRequestDuration はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestDuration(d time.Duration) {
	c.requestDuration.Observe(d.Seconds())
}

// IncInFlight は処理中リクエスト数を増やす。
func (c *Collector) IncInFlight() {
	c.inFlight.Inc()
}

// DecInFlight は処理中リクエスト数を減らす。
func (c *Collector) DecInFlight() {
	c.inFlight.Dec()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
