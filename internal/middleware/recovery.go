package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// NewRecoveryMiddleware はリクエスト処理中のpanicを捕捉し、
// 統一エンベロープの500レスポンスに正規化するミドルウェアを返す。
// バックグラウンドgoroutineのpanicはここでは扱わない（app.Goが担当）。
func NewRecoveryMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("client", ClientAddr(r)),
						slog.String("stack", string(debug.Stack())),
					)
					WriteError(w, r, model.NewUnexpectedError(fmt.Errorf("panic: %v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
