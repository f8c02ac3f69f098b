// Package security はユーザー入力のサニタイズ機能を提供する。
//
// TextSanitizer は企業名・タグ名・クイズタイトルなどのユーザー入力文字列から
// HTMLタグを除去し、XSS攻撃からAPIクライアントを保護する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト入力のサニタイズ機能のインターフェースを定義する。
// 企業・タグ・クイズ・設問のタイトルおよび説明文の保存前に使用される。
type TextSanitizer interface {
	// Sanitize は入力からすべてのHTMLタグを除去し、前後の空白を落とした文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
// StrictPolicyはすべてのHTML要素と属性を除去し、テキストのみを残す。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
