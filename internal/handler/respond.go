// Package handler はHTTP APIのルーティングとリクエストハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Emarwalker/project-back-deploy100/internal/middleware"
	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// successResponse は成功レスポンスの統一フォーマット。
type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// writeSuccess は成功レスポンスをJSONで書き込む。
func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(successResponse{
		Success: true,
		Data:    data,
	})
}

// writeMessage はデータなしの成功レスポンスをJSONで書き込む。
func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(successResponse{
		Success: true,
		Message: message,
	})
}

// writeError はエラーをエラーノーマライザへ委譲する。
// ハンドラーが独自のエラーフォーマットを組み立てることはない。
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

// decodeJSON はリクエストボディをJSONとしてデコードする。
// 構文不正・型不一致は検証エラー、ボディ上限超過はそのまま伝播させて
// ノーマライザに413へ写させる。
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return model.NewValidationError("request body is not valid JSON")
	}
	return nil
}
