package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
	"github.com/Emarwalker/project-back-deploy100/internal/security"
)

// SanitizeConfig はサニタイズミドルウェアの設定。
type SanitizeConfig struct {
	// DuplicateKeyAllowlist は同一キーの複数指定を許可するクエリパラメータ名。
	DuplicateKeyAllowlist []string
}

// NewSanitizeMiddleware は入力サニタイズミドルウェアを返す。
//
// クエリ文字列に重複キーが含まれるリクエストは、許可リストにない限り
// パラメータ汚染として400のポリシーエラーで拒否する。クエリ値と
// JSON・フォームボディのすべての文字列値はサニタイズされ、後続の
// ハンドラーには無害化済みの値のみが渡る。
//
// ボディの読み取りはNewBodyLimitMiddlewareが設定した上限の範囲で行われ、
// 超過はこの時点で413として検出される（ハンドラー実行前）。
func NewSanitizeMiddleware(sanitizer security.RequestSanitizer, config SanitizeConfig) func(next http.Handler) http.Handler {
	allowDup := make(map[string]struct{}, len(config.DuplicateKeyAllowlist))
	for _, k := range config.DuplicateKeyAllowlist {
		allowDup[k] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. パラメータ汚染ガード
			query := r.URL.Query()
			for key, values := range query {
				if len(values) > 1 {
					if _, ok := allowDup[key]; !ok {
						WriteError(w, r, model.NewPolicyError(http.StatusBadRequest, model.MsgParamPollution))
						return
					}
				}
			}

			// 2. クエリ値のサニタイズ
			changed := false
			for key, values := range query {
				for i, v := range values {
					if s := sanitizer.SanitizeString(v); s != v {
						values[i] = s
						changed = true
					}
				}
				query[key] = values
			}
			if changed {
				r.URL.RawQuery = query.Encode()
			}

			// 3. ボディのサニタイズ
			if err := sanitizeBody(sanitizer, r); err != nil {
				WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// sanitizeBody はContent-Typeに応じてリクエストボディを無害化して差し替える。
// JSONとフォームエンコードのみ対象。その他（multipart等）は変更しない。
func sanitizeBody(sanitizer security.RequestSanitizer, r *http.Request) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil
	}

	switch mediaType {
	case "application/json":
		return sanitizeJSONBody(sanitizer, r)
	case "application/x-www-form-urlencoded":
		return sanitizeFormBody(sanitizer, r)
	default:
		return nil
	}
}

// sanitizeJSONBody はJSONボディの全文字列リーフをサニタイズして書き戻す。
func sanitizeJSONBody(sanitizer security.RequestSanitizer, r *http.Request) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		// MaxBytesReaderの上限超過はここで表面化する
		return err
	}
	r.Body.Close()

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// 不正なJSONはハンドラー側の検証に委ねるため元のまま戻す
		restoreBody(r, raw)
		return nil
	}

	cleaned, err := json.Marshal(sanitizer.SanitizeValue(decoded))
	if err != nil {
		return err
	}

	restoreBody(r, cleaned)
	return nil
}

// sanitizeFormBody はフォームエンコードボディの全値をサニタイズして書き戻す。
func sanitizeFormBody(sanitizer security.RequestSanitizer, r *http.Request) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	r.Body.Close()

	form, err := url.ParseQuery(string(raw))
	if err != nil {
		restoreBody(r, raw)
		return nil
	}

	for key, values := range form {
		for i, v := range values {
			values[i] = sanitizer.SanitizeString(v)
		}
		form[key] = values
	}

	restoreBody(r, []byte(form.Encode()))
	return nil
}

// restoreBody はサニタイズ後のボディをリクエストに差し戻す。
func restoreBody(r *http.Request, body []byte) {
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.Header.Set("Content-Length", strconv.Itoa(len(body)))
}
