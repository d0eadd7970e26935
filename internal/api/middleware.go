package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	contextKeyViewer   contextKey = "viewer"
	contextKeyClientIP contextKey = "client_ip"
)

// viewerMiddleware reads the verified uid set by the identity layer and attaches the
// viewer to the request context. A missing header is an anonymous viewer.
func viewerMiddleware(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := strings.TrimSpace(r.Header.Get(header))

			ctx := context.WithValue(r.Context(), contextKeyViewer, domain.User(uid))
			ctx = context.WithValue(ctx, contextKeyClientIP, getClientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// viewerFrom returns the viewer of the request. Returns an anonymous viewer
// when the middleware did not run.
func viewerFrom(ctx context.Context) domain.Viewer {
	if v, ok := ctx.Value(contextKeyViewer).(domain.Viewer); ok {
		return v
	}
	return domain.Anonymous()
}

// clientIPFrom returns the client address recorded by viewerMiddleware.
func clientIPFrom(ctx context.Context) string {
	if ip, ok := ctx.Value(contextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// requestLogger logs one line per request at Info, or Warn for server errors.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			log.LogAttrs(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
