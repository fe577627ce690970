// Package model はドメインモデルとアプリケーションエラーを定義する。
package model

import (
	"fmt"
	"net/http"
)

// ErrorKind はアプリケーションエラーの種別を表す閉じた列挙。
// エラーノーマライザはこの種別のみでHTTPステータスを決定し、
// エラーメッセージ文字列のパターンマッチは行わない。
type ErrorKind int

const (
	// KindUnexpected は分類されないエラー。原則500として扱う。
	KindUnexpected ErrorKind = iota
	// KindValidation はリクエストペイロードの検証失敗。
	KindValidation
	// KindDuplicate は一意制約違反（重複データ）。
	KindDuplicate
	// KindAuthToken は認証トークンの欠落・不正・期限切れ。
	KindAuthToken
	// KindPolicy はリクエスト受付ポリシー違反（CORS拒否、レート超過、ボディ超過など）。
	KindPolicy
	// KindNotFound はリソースまたはルートの未検出。
	KindNotFound
)

// AppError は統一エラーフォーマットを表す。
// Fieldsは検証エラー・重複エラーの場合のみフィールド単位のメッセージを保持する。
type AppError struct {
	Kind    ErrorKind
	Status  int      // 明示的なHTTPステータス。0の場合はKindから導出される。
	Message string   // ユーザー向けメッセージ
	Fields  []string // フィールド単位の詳細（Validation/Duplicateのみ）
	Err     error    // 元エラー（ログ用）
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap は元エラーを返す。errors.Is/Asによる検査を可能にする。
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus はエラーに対応するHTTPステータスコードを返す。
// Statusが明示されている場合はそれを優先する。
func (e *AppError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation, KindDuplicate:
		return http.StatusBadRequest
	case KindAuthToken:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ユーザー向け定型メッセージ
const (
	MsgInvalidData     = "ข้อมูลไม่ถูกต้อง"
	MsgDuplicateData   = "ข้อมูลซ้ำในระบบ"
	MsgInvalidToken    = "โทเค็นไม่ถูกต้องหรือหมดอายุ"
	MsgNotFound        = "ไม่พบข้อมูลที่ร้องขอ"
	MsgInternalError   = "เกิดข้อผิดพลาดภายในระบบ"
	MsgTooManyRequests = "มีการส่งคำขอมากเกินไป กรุณาลองใหม่อีกครั้งภายหลัง"
	MsgBodyTooLarge    = "ขนาดข้อมูลที่ส่งมาใหญ่เกินกว่าที่กำหนด"
	MsgOriginDenied    = "ไม่อนุญาตให้เข้าถึงจากแหล่งที่มานี้"
	MsgParamPollution  = "ไม่อนุญาตให้ส่งพารามิเตอร์ซ้ำ"
	MsgTimeout         = "การประมวลผลใช้เวลานานเกินกำหนด"
	MsgForbidden       = "ไม่มีสิทธิ์เข้าถึงข้อมูลนี้"
)

// NewValidationError は検証失敗エラーを生成する。
// fieldsにはフィールド単位のメッセージを渡す。
func NewValidationError(fields ...string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: MsgInvalidData,
		Fields:  fields,
	}
}

// NewDuplicateError は一意制約違反エラーを生成する。
func NewDuplicateError(fields ...string) *AppError {
	return &AppError{
		Kind:    KindDuplicate,
		Message: MsgDuplicateData,
		Fields:  fields,
	}
}

// NewAuthTokenError は認証トークンエラーを生成する。
// causeには検証失敗の元エラーを渡す（ログ専用、レスポンスには含めない）。
func NewAuthTokenError(cause error) *AppError {
	return &AppError{
		Kind:    KindAuthToken,
		Message: MsgInvalidToken,
		Err:     cause,
	}
}

// NewPolicyError は受付ポリシー違反エラーを生成する。
// statusには違反の種類に応じたHTTPステータス（403, 413, 429, 504など）を明示する。
func NewPolicyError(status int, message string) *AppError {
	return &AppError{
		Kind:    KindPolicy,
		Status:  status,
		Message: message,
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *AppError {
	return NewPolicyError(http.StatusForbidden, MsgForbidden)
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError() *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: MsgNotFound,
	}
}

// NewUnexpectedError は分類不能なエラーをラップする。
func NewUnexpectedError(cause error) *AppError {
	return &AppError{
		Kind:    KindUnexpected,
		Message: MsgInternalError,
		Err:     cause,
	}
}
