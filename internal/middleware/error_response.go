package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// successは常にfalse。errorsは検証エラー・重複エラーの場合のみ含まれる。
type ErrorResponseBody struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// WriteError はすべてのエラーを統一エンベロープのJSONレスポンスに正規化して書き込む。
// ミドルウェア・ハンドラーを問わず、エラーレスポンスは必ずこの関数を経由する。
//
// 種別ごとのマッピング:
//   - Validation → 400 + errors
//   - Duplicate  → 400 + errors
//   - AuthToken  → 401（errorsなし）
//   - Policy/NotFound → AppErrorが保持するステータス
//   - それ以外 → 500 + 汎用メッセージ
//
// レスポンスは必ず1回だけ書き込み、エラーを再送出しない。
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := normalize(err)

	logError(r, appErr)

	body := ErrorResponseBody{
		Success: false,
		Message: appErr.Message,
	}
	if appErr.Kind == model.KindValidation || appErr.Kind == model.KindDuplicate {
		body.Errors = appErr.Fields
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus())
	json.NewEncoder(w).Encode(body)
}

// normalize は任意のエラーをAppErrorに変換する。
// AppError以外のエラーはKindUnexpectedとしてラップし、詳細はログのみに残す。
func normalize(err error) *model.AppError {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// ボディ上限超過はhttp.MaxBytesReaderが返すため、ここで受付ポリシー違反に写す
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return model.NewPolicyError(http.StatusRequestEntityTooLarge, model.MsgBodyTooLarge)
	}

	return model.NewUnexpectedError(err)
}

// logError はレスポンス送出前にエラーの詳細を記録する。
// 分類不能なエラーの場合のみスタックトレースを含める。
func logError(r *http.Request, appErr *model.AppError) {
	attrs := []any{
		slog.String("message", appErr.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("client", ClientAddr(r)),
		slog.Int("status", appErr.HTTPStatus()),
	}

	if appErr.Kind == model.KindUnexpected {
		attrs = append(attrs, slog.String("stack", string(debug.Stack())))
		slog.Error("request failed", attrs...)
		return
	}

	slog.Warn("request rejected", attrs...)
}

// NewNotFoundHandler は未登録ルートへの終端フォールバックハンドラーを返す。
// 全ルートマウントの後に登録され、常に統一エンベロープの404を返す。
func NewNotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, model.NewNotFoundError())
	}
}

// NewMethodNotAllowedHandler はメソッド不一致時のハンドラーを返す。
// 統一エンベロープの405を返す。
func NewMethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, model.NewPolicyError(http.StatusMethodNotAllowed, model.MsgNotFound))
	}
}
