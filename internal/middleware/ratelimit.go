package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
// ウィンドウ長と上限はデプロイ環境ごとに異なるため、必ず設定から渡す。
type RateLimiterConfig struct {
	Max    int           // ウィンドウ内の最大リクエスト数
	Window time.Duration // 固定ウィンドウ長
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:    200,
		Window: 15 * time.Minute,
	}
}

// RateLimiter はクライアントアドレスごとの固定ウィンドウレート制限を提供する。
// カウンタの保持はCounterStoreに委譲し、メモリ実装と分散実装を差し替えられる。
type RateLimiter struct {
	config RateLimiterConfig
	store  CounterStore
}

// NewRateLimiter は新しいRateLimiterを生成する。
func NewRateLimiter(config RateLimiterConfig, store CounterStore) *RateLimiter {
	return &RateLimiter{
		config: config,
		store:  store,
	}
}

// Middleware はレート制限ミドルウェアを返す。
// 上限超過のリクエストは429のポリシーエラーとして正規化され、
// ルーティングには到達しない。NewRealIPMiddlewareの後に配置すること。
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// プリフライトはカウントしない
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := ClientAddr(r)

			count, err := rl.store.Incr(r.Context(), key, rl.config.Window)
			if err != nil {
				// ストア障害時はフェイルオープン（ログのみ）
				slog.Error("rate limit store failure",
					slog.String("error", err.Error()),
					slog.String("client", key),
				)
				next.ServeHTTP(w, r)
				return
			}

			if count > rl.config.Max {
				retryAfter := int(math.Ceil(rl.config.Window.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				slog.Warn("rate limit exceeded",
					slog.String("client", key),
					slog.Int("count", count),
					slog.Int("max", rl.config.Max),
				)

				WriteError(w, r, model.NewPolicyError(http.StatusTooManyRequests, model.MsgTooManyRequests))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
