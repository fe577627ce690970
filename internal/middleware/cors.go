package middleware

import (
	"net/http"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// NewCORSMiddleware は許可リストに基づくCORSミドルウェアを返す。
//
// Originヘッダーが存在しないリクエスト（同一オリジン・非ブラウザクライアント）は
// 常に許可する。許可リストに含まれるオリジンにはcredential付きクロスオリジン
// アクセスのためのヘッダーを付与し、Content-Dispositionを公開ヘッダーとして
// 指定する。許可されないオリジンはポリシーエラーとしてエラーノーマライザへ
// 送られ、素通りすることはない。
//
// credentials送信と共存するため、ワイルドカード(*)は使用しない。
// OPTIONSプリフライトリクエストには204で応答する。
func NewCORSMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Originなしは常に許可（CORSヘッダー不要）
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := allowed[origin]; !ok {
				WriteError(w, r, model.NewPolicyError(http.StatusForbidden, model.MsgOriginDenied))
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Add("Vary", "Origin")

			// OPTIONSプリフライトリクエストには204で応答
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
