package stunprobe

import (
	"testing"
	"time"
)

// TestNormalizeURI 测试stun:前缀的补全
func TestNormalizeURI(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"stun.l.google.com:19302", "stun:stun.l.google.com:19302"},
		{"stun:stun.l.google.com:19302", "stun:stun.l.google.com:19302"},
		{"example.com:3478", "stun:example.com:3478"},
	}

	for _, tc := range cases {
		if got := NormalizeURI(tc.input); got != tc.expected {
			t.Errorf("NormalizeURI('%s'): expected '%s', got '%s'", tc.input, tc.expected, got)
		}
	}
}

// TestNewProberValidation 测试探测器创建时的参数验证
func TestNewProberValidation(t *testing.T) {
	// 空服务器地址
	if _, err := NewProber("", 3*time.Second); err == nil {
		t.Error("Expected error for empty server")
	}

	// 纯空白地址
	if _, err := NewProber("   ", 3*time.Second); err == nil {
		t.Error("Expected error for blank server")
	}

	// 非法超时
	if _, err := NewProber("stun.l.google.com:19302", 0); err == nil {
		t.Error("Expected error for zero timeout")
	}

	// 合法地址
	prober, err := NewProber("stun.l.google.com:19302", 3*time.Second)
	if err != nil {
		t.Fatalf("Expected valid prober, got: %v", err)
	}
	if err := prober.Close(); err != nil {
		t.Errorf("Expected Close to succeed, got: %v", err)
	}
}

// TestNewProberAcceptsPrefixedURI 测试带stun:前缀的地址
func TestNewProberAcceptsPrefixedURI(t *testing.T) {
	if _, err := NewProber("stun:stun.l.google.com:19302", time.Second); err != nil {
		t.Errorf("Expected prefixed URI to be accepted, got: %v", err)
	}
}
