package middleware

import (
	"net/http"
	"strings"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// NewBodyLimitMiddleware はリクエストボディのサイズ上限を適用するミドルウェアを返す。
//
// Content-Lengthが申告されている場合は読み取り前に413として拒否する。
// 申告がない（chunked等）場合はhttp.MaxBytesReaderでラップし、上限超過は
// 読み取り時点（後続のサニタイズミドルウェアまたはデコード時）で検出される。
// いずれの経路でもハンドラー本体の実行前に拒否される。
// メソッドを問わず適用する（ボディを持つGETも上限の対象）。
// multipart/form-dataはファイルアップロード側で個別の上限を適用するため対象外。
func NewBodyLimitMiddleware(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > maxBytes {
				WriteError(w, r, model.NewPolicyError(http.StatusRequestEntityTooLarge, model.MsgBodyTooLarge))
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}
