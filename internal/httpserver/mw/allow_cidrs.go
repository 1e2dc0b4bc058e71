package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/boxdpick/internal/logger"
	"github.com/MrSnakeDoc/boxdpick/internal/utils"
)

// AllowOnlyCIDRS restricts a route to the given IPs and CIDRs. An empty list
// disables the check. With trustProxy the first X-Forwarded-For entry is used
// as the client address, so only enable it behind a proxy you control.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debug("probe allow-list enabled",
		logger.Strings("rules", allowed),
		logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("client not in allow-list",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
