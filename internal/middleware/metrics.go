package middleware

import (
	"net/http"
	"time"
)

// HTTPCollector はリクエストメトリクスの記録先インターフェース。
// internal/metrics.Collectorが実装する。
type HTTPCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(d time.Duration)
	IncInFlight()
	DecInFlight()
}

// NewMetricsMiddleware はレスポンスのステータス・レイテンシ・処理中件数を
// 記録するミドルウェアを返す。
func NewMetricsMiddleware(collector HTTPCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			collector.IncInFlight()
			defer collector.DecInFlight()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			collector.RecordHTTPStatus(sw.status)
			collector.RecordRequestDuration(time.Since(start))
		})
	}
}

// statusWriter はWriteHeaderで渡されたステータスコードを記録する。
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Unwrap はhttp.ResponseControllerがハイジャック等の拡張機能へ
// 到達できるように内側のResponseWriterを返す。
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
