package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// clientAddrKey はリクエストコンテキストに解決済みクライアントアドレスを保持するキー。
type clientAddrKey struct{}

// NewRealIPMiddleware はクライアントアドレスを1回だけ解決してコンテキストに格納する
// ミドルウェアを返す。リバースプロキシ配下（trustProxy=true）の場合は
// X-Forwarded-Forの先頭ホップを信頼し、それ以外は直接接続のアドレスを使用する。
func NewRealIPMiddleware(trustProxy bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := resolveClientAddr(r, trustProxy)
			ctx := context.WithValue(r.Context(), clientAddrKey{}, addr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientAddr はコンテキストから解決済みクライアントアドレスを返す。
// NewRealIPMiddlewareを経由していない場合は直接接続のアドレスにフォールバックする。
func ClientAddr(r *http.Request) string {
	if v, ok := r.Context().Value(clientAddrKey{}).(string); ok && v != "" {
		return v
	}
	return remoteHost(r)
}

// resolveClientAddr は信頼設定に従ってクライアントアドレスを導出する。
func resolveClientAddr(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// 先頭ホップが元クライアント
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if first != "" {
				return first
			}
		}
	}
	return remoteHost(r)
}

// remoteHost はRemoteAddrからポートを除いたホスト部を返す。
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
