package middleware

import (
	"net"
	"net/http"
	"strings"
)

// clientIP resolves the originating client address for rate limit keys
// and audit logs. Proxy headers win over the socket address; the
// RemoteAddr port is stripped so one client maps to one limiter bucket.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
