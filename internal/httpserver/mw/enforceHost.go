package mw

import (
	"net"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/boxdpick/internal/logger"
)

// EnforceHost rejects requests whose Host header is not in allowedHosts.
// It guards the local API against DNS rebinding. "*.example.com" matches
// any subdomain and a pattern without a port matches every port. An empty
// list disables the check.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, pattern := range allowedHosts {
				if matchHost(r.Host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Warn("rejected request for unexpected host",
				logger.String("host", r.Host),
				logger.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if !hasPort(pattern) {
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = strings.Trim(h, "[]")
		}
		if host == strings.Trim(pattern, "[]") {
			return true
		}
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(host, suffix)
	}
	return false
}

func hasPort(pattern string) bool {
	_, _, err := net.SplitHostPort(pattern)
	return err == nil
}
