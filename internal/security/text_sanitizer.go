package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は外部ソース由来テキストのサニタイズ機能のインターフェースを定義する。
// PACER APIの事件タイトルと裁判所RSSフィードのエントリタイトルは外部入力であり、
// 保存前にHTMLタグを全て除去してプレーンテキスト化する。
type TextSanitizerService interface {
	// SanitizeText は入力から全てのHTMLタグを除去し、
	// HTMLエンティティをデコードした上で前後の空白を取り除いて返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持し、スレッドセーフに動作する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力から全てのHTMLタグを除去してプレーンテキストを返す。
// StrictPolicyはタグ除去後にエンティティエスケープされたテキストを返すため、
// "USA v. Smith & Jones" のような表示用文字列に戻すにはデコードが必要。
func (s *textSanitizer) SanitizeText(raw string) string {
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
