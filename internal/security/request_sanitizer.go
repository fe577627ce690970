// Package security はリクエスト入力のサニタイズ機能を提供する。
//
// RequestSanitizer は受信したクエリ・ボディの文字列値からマークアップや
// スクリプト断片を除去し、注入攻撃からアプリケーションを保護する。
// bluemondayのStrictPolicy（全タグ除去）を使用する。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// RequestSanitizer は入力値のサニタイズ機能のインターフェースを定義する。
type RequestSanitizer interface {
	// SanitizeString は文字列からHTMLタグ・スクリプト断片を除去して返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeString(v string) string

	// SanitizeValue はJSONデコード結果（map[string]any / []any / string）を
	// 再帰的に走査し、すべての文字列リーフをサニタイズした値を返す。
	// 文字列以外のリーフ（数値・真偽値・null）はそのまま返す。
	SanitizeValue(v any) any
}

// requestSanitizer はRequestSanitizerの実装。
// bluemondayのポリシーはスレッドセーフであり、1インスタンスを全リクエストで共有する。
type requestSanitizer struct {
	policy *bluemonday.Policy
}

// NewRequestSanitizer はRequestSanitizerの新しいインスタンスを生成する。
// StrictPolicyを使用するためタグ・属性は一切許可されない。
func NewRequestSanitizer() RequestSanitizer {
	return &requestSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeString は文字列からHTMLタグ・スクリプト断片を除去して返す。
func (s *requestSanitizer) SanitizeString(v string) string {
	return s.policy.Sanitize(v)
}

// SanitizeValue はデコード済みのJSON値を再帰的にサニタイズする。
func (s *requestSanitizer) SanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return s.SanitizeString(val)
	case map[string]any:
		for k, item := range val {
			val[k] = s.SanitizeValue(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = s.SanitizeValue(item)
		}
		return val
	default:
		return v
	}
}
