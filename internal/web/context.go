package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/fooddb/internal/core"
)

// WithRequestMetadata records the client IP and User-Agent for the run's
// audit row.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithRequester(ctx, core.Requester{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
}

// clientIP returns the client address without port. RemoteAddr has already
// been rewritten by TrustedRealIP for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
