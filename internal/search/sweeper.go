package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	applog "github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/metrics"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

// SweepStore is the store surface the sweeper needs.
type SweepStore interface {
	Query(ctx context.Context, collection string, filters ...store.Filter) ([]*store.Snapshot, error)
	Commit(ctx context.Context, writes ...store.Write) error
}

// Sweeper deletes searches, and their result pages, once they have expired.
// A search that was never built is swept once it is older than the TTL.
type Sweeper struct {
	store   SweepStore
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSweeper creates a sweeper. ttl applies to searches that were never built.
func NewSweeper(s SweepStore, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Sweeper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sweeper{store: s, ttl: ttl, logger: applog.OrDiscard(logger), metrics: m}
}

// Sweep deletes every search expired at now and returns how many were removed.
// Deletes are committed in batches; a search's pages always go before or with
// the search itself, so an interrupted sweep never leaves orphaned pages behind
// a deleted search.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	snaps, err := s.store.Query(ctx, domain.CollectionSearches)
	if err != nil {
		return 0, fmt.Errorf("query searches: %w", err)
	}

	var batch []store.Write
	swept, pending := 0, 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.Commit(ctx, batch...); err != nil {
			return fmt.Errorf("delete expired searches: %w", err)
		}
		swept += pending
		batch, pending = nil, 0
		return nil
	}

	for _, snap := range snaps {
		var search domain.Search
		if err := snap.DataTo(&search); err != nil {
			s.logger.Warn("skipping undecodable search", "path", snap.Path, "error", err)
			continue
		}
		if !s.expired(&search, now) {
			continue
		}

		pages, err := s.store.Query(ctx, domain.SearchResultsPath(snap.ID()))
		if err != nil {
			return swept, fmt.Errorf("query pages of %s: %w", snap.ID(), err)
		}

		for _, page := range pages {
			if len(batch) == store.MaxBatchWrites {
				if err := flush(); err != nil {
					return swept, err
				}
			}
			batch = append(batch, store.Delete(page.Path))
		}
		if len(batch) == store.MaxBatchWrites {
			if err := flush(); err != nil {
				return swept, err
			}
		}
		batch = append(batch, store.Delete(snap.Path))
		pending++
	}
	if err := flush(); err != nil {
		return swept, err
	}

	s.metrics.AddSwept(swept)
	return swept, nil
}

func (s *Sweeper) expired(search *domain.Search, now time.Time) bool {
	if search.IsBuilt() || search.ExpireAfter != nil {
		return search.IsExpired(now)
	}
	return !search.CreatedAt.IsZero() && now.After(search.CreatedAt.Add(s.ttl))
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	sweep := func() {
		count, err := s.Sweep(ctx, time.Now())
		switch {
		case err != nil:
			s.logger.Warn("Search sweep failed", "error", err)
		case count > 0:
			s.logger.Info("Search sweep completed", "deleted", count)
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sweep()
		case <-ctx.Done():
			return
		}
	}
}
