package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Emarwalker/project-back-deploy100/internal/middleware"
	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// cookieName は認証トークンを保持するCookieの名前。
const cookieName = "token"

// claimsKey はリクエストコンテキストに検証済みクレームを保持するキー。
type claimsKey struct{}

// ContextWithClaims は検証済みクレームを格納したコンテキストを返す。
func ContextWithClaims(ctx context.Context, claims *TokenClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext はコンテキストから検証済みクレームを取り出す。
func ClaimsFromContext(ctx context.Context) (*TokenClaims, error) {
	if c, ok := ctx.Value(claimsKey{}).(*TokenClaims); ok {
		return c, nil
	}
	return nil, model.NewAuthTokenError(fmt.Errorf("no claims in context"))
}

// NewAuthMiddleware は認証必須ルート用のミドルウェアを返す。
// AuthorizationヘッダーのBearerトークン、なければCookieからトークンを読み取り、
// 検証失敗は401のトークンエラーとして正規化する。
func NewAuthMiddleware(issuer *TokenIssuer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				middleware.WriteError(w, r, model.NewAuthTokenError(fmt.Errorf("missing token")))
				return
			}

			claims, err := issuer.Verify(tokenStr)
			if err != nil {
				middleware.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

// NewAdminMiddleware は管理者専用ルート用のミドルウェアを返す。
// NewAuthMiddlewareの後に配置すること。
func NewAdminMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ClaimsFromContext(r.Context())
			if err != nil {
				middleware.WriteError(w, r, err)
				return
			}

			if claims.Role != model.RoleAdmin {
				middleware.WriteError(w, r, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken はリクエストから認証トークン文字列を取り出す。
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return after
		}
	}

	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}

	return ""
}
