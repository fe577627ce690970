package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// NewTimeoutMiddleware はリクエスト単位のタイムアウトを適用するミドルウェアを返す。
// 期限を超えたリクエストには504のポリシーエラーを統一エンベロープで返す。
// タイムアウト発火後のハンドラーによる書き込みは破棄される。
// WebSocket等のプロトコルアップグレード要求は長命接続のため対象外とする。
func NewTimeoutMiddleware(timeout time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isUpgradeRequest(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w}
			done := make(chan struct{})
			panicChan := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicChan <- p
					}
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case p := <-panicChan:
				// ハンドラーのpanicをリクエストgoroutineへ引き継ぎ、
				// 外側のリカバリーミドルウェアに500へ正規化させる
				panic(p)
			case <-done:
			case <-ctx.Done():
				if tw.markTimedOut() {
					WriteError(w, r, model.NewPolicyError(http.StatusGatewayTimeout, model.MsgTimeout))
				}
			}
		})
	}
}

// isUpgradeRequest はプロトコルアップグレード要求かを判定する。
func isUpgradeRequest(r *http.Request) bool {
	return r.Header.Get("Upgrade") != ""
}

// timeoutWriter はタイムアウト発火とハンドラーの書き込みを排他する。
// 先に書き込みが始まっていればタイムアウトレスポンスは出さず、
// 先にタイムアウトが発火していれば以後の書き込みを破棄する。
type timeoutWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	wrote    bool
	timedOut bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return
	}
	tw.wrote = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return len(b), nil
	}
	tw.wrote = true
	return tw.ResponseWriter.Write(b)
}

// Unwrap はhttp.ResponseControllerがハイジャック等の拡張機能へ
// 到達できるように内側のResponseWriterを返す。
func (tw *timeoutWriter) Unwrap() http.ResponseWriter {
	return tw.ResponseWriter
}

// markTimedOut はタイムアウト発火を記録する。
// まだ何も書き込まれていない場合のみtrueを返す。
func (tw *timeoutWriter) markTimedOut() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.wrote {
		return false
	}
	tw.timedOut = true
	return true
}
