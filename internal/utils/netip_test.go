package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		trust   bool
		want    string
	}{
		{name: "remote addr", remote: "10.0.0.1:5555", want: "10.0.0.1"},
		{name: "ipv6 remote", remote: "[::1]:5555", want: "::1"},
		{name: "headers ignored without trust", remote: "10.0.0.1:1", headers: map[string]string{"X-Forwarded-For": "1.2.3.4"}, want: "10.0.0.1"},
		{name: "cloudflare first", remote: "10.0.0.1:1", trust: true, headers: map[string]string{"CF-Connecting-IP": "5.5.5.5", "X-Forwarded-For": "1.2.3.4"}, want: "5.5.5.5"},
		{name: "left-most forwarded", remote: "10.0.0.1:1", trust: true, headers: map[string]string{"X-Forwarded-For": " 1.2.3.4 , 9.9.9.9"}, want: "1.2.3.4"},
		{name: "real ip", remote: "10.0.0.1:1", trust: true, headers: map[string]string{"X-Real-IP": "7.7.7.7"}, want: "7.7.7.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trust); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.10 ", "not-an-ip", "", "fd00::/8"})
	if m.IsEmpty() {
		t.Fatal("matcher should not be empty")
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.20.30.40", true},
		{"::ffff:10.1.1.1", true},
		{"192.168.1.10", true},
		{"192.168.1.11", false},
		{"fd12::1", true},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("nil list should give an empty matcher")
	}
}
