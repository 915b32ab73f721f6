package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"saral/pkg/requestcontext"
)

// Channels reported by ChannelFromUserAgent.
const (
	ChannelMobile  = "mobile"
	ChannelDesktop = "desktop"
	ChannelBot     = "bot"
	ChannelUnknown = "unknown"
)

// ClientMetadata extracts client IP address, User-Agent and a coarse channel
// from the request and adds them to the context for use by handlers and
// services. This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, ChannelFromUserAgent(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ChannelFromUserAgent classifies a raw User-Agent string. Field workers
// submit from mobile devices; kiosks and back-office tools look like desktops.
func ChannelFromUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ChannelUnknown
	}
	ua := useragent.New(raw)
	switch {
	case ua.Bot():
		return ChannelBot
	case ua.Mobile():
		return ChannelMobile
	default:
		return ChannelDesktop
	}
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port", or "[::1]:port" for IPv6
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
