package security

import (
	"testing"
	"time"
)

// TestValidateURL_Allowed は安全なURLが検証を通過することを確認する
func TestValidateURL_Allowed(t *testing.T) {
	guard := NewSSRFGuard()

	allowed := []string{
		"https://ecf.casd.uscourts.gov/cgi-bin/rss_outside.pl",
		"http://ecf.nysd.uscourts.gov/cgi-bin/rss_outside.pl",
		"https://example.com/feed.xml",
		"https://8.8.8.8/feed.xml",
	}
	for _, rawURL := range allowed {
		if err := guard.ValidateURL(rawURL); err != nil {
			t.Errorf("ValidateURL(%s): 許可されるべきだがエラー: %v", rawURL, err)
		}
	}
}

// TestValidateURL_Blocked は危険なURLが拒否されることを確認する
func TestValidateURL_Blocked(t *testing.T) {
	guard := NewSSRFGuard()

	tests := []struct {
		name   string
		rawURL string
	}{
		{"空URL", ""},
		{"不正なスキーム", "ftp://example.com/feed.xml"},
		{"fileスキーム", "file:///etc/passwd"},
		{"javascriptスキーム", "javascript:alert(1)"},
		{"ホストなし", "https:///feed.xml"},
		{"localhost", "http://localhost/feed.xml"},
		{"localhost大文字", "http://LOCALHOST/feed.xml"},
		{"ループバックIP", "http://127.0.0.1/feed.xml"},
		{"プライベートIP 10系", "http://10.0.0.5/feed.xml"},
		{"プライベートIP 172系", "http://172.16.0.1/feed.xml"},
		{"プライベートIP 192系", "http://192.168.1.1/feed.xml"},
		{"クラウドメタデータIP", "http://169.254.169.254/latest/meta-data/"},
		{"カレントネットワーク", "http://0.0.0.0/feed.xml"},
		{"IPv6ループバック", "http://[::1]/feed.xml"},
		{"IPv6リンクローカル", "http://[fe80::1]/feed.xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := guard.ValidateURL(tt.rawURL); err == nil {
				t.Errorf("ValidateURL(%s): 拒否されるべき", tt.rawURL)
			}
		})
	}
}

// TestNewSafeClient はクライアントが生成されタイムアウトが設定されることを確認する
func TestNewSafeClient(t *testing.T) {
	guard := NewSSRFGuard()

	client := guard.NewSafeClient(10 * time.Second)
	if client == nil {
		t.Fatal("クライアントがnil")
	}
	if client.Timeout != 10*time.Second {
		t.Errorf("タイムアウト: got %v, want 10s", client.Timeout)
	}
}

// TestSSRFGuard_ImplementsInterface はインターフェース実装を確認する
func TestSSRFGuard_ImplementsInterface(t *testing.T) {
	var _ SSRFGuardService = NewSSRFGuard()
}
