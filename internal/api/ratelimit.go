package api

import (
	"context"
	"log/slog"

	domainerrors "github.com/oobayly/club-trophies-webapp-sub000/internal/errors"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/ratelimit"
)

// NewSearchLimiter creates the per-viewer limiter for search creation.
func NewSearchLimiter(rps float64, burst int) *ratelimit.KeyedRateLimiter {
	return ratelimit.New(rps, burst)
}

// limitKey identifies the caller for throttling: the uid when signed in,
// otherwise the client address.
func limitKey(ctx context.Context) string {
	if v := viewerFrom(ctx); v.UID != "" {
		return "uid:" + v.UID
	}
	return "ip:" + clientIPFrom(ctx)
}

// allowSearch returns RATE_LIMITED when the caller has used up its burst.
func (s *Server) allowSearch(ctx context.Context) error {
	if s.searchLimiter == nil {
		return nil
	}
	key := limitKey(ctx)
	if !s.searchLimiter.Allow(key) {
		s.logger.Warn("search rate limit exceeded", slog.String(logger.KeyViewer, key))
		return domainerrors.RateLimited("too many searches, try again later")
	}
	return nil
}
