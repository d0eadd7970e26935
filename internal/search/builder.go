// Package search materializes federated winner searches as expiring,
// paginated result documents, and sweeps them away once they expire.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/gather"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/metrics"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

const (
	// DefaultPageSize keeps a result page well under the document size ceiling.
	DefaultPageSize = 100

	// DefaultTTL is how long a built search and its pages are kept.
	DefaultTTL = 24 * time.Hour
)

// Store is the read surface the builder needs.
type Store interface {
	Get(ctx context.Context, path string, dest any) error
	Query(ctx context.Context, collection string, filters ...store.Filter) ([]*store.Snapshot, error)
	QueryGroup(ctx context.Context, group string, filters ...store.Filter) ([]*store.Snapshot, error)
}

// Resolver returns the clubs and trophies a viewer may see among candidates.
type Resolver interface {
	Resolve(ctx context.Context, viewer domain.Viewer, candidates map[string][]string) ([]domain.SearchClubInfo, error)
}

// Options configures a Builder.
type Options struct {
	PageSize int              // results per page; defaults to DefaultPageSize
	TTL      time.Duration    // defaults to DefaultTTL
	Now      func() time.Time // defaults to time.Now
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Builder plans the writes that materialize one search.
type Builder struct {
	store    Store
	resolver Resolver
	pageSize int
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewBuilder creates a builder.
func NewBuilder(s Store, r Resolver, opts Options) *Builder {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Builder{
		store:    s,
		resolver: r,
		pageSize: opts.PageSize,
		ttl:      opts.TTL,
		now:      opts.Now,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Filters maps the filters present on a search onto winner fields.
// No filters means every winner of every club.
func Filters(s *domain.Search) []store.Filter {
	var filters []store.Filter
	if s.Sail != "" {
		filters = append(filters, store.Eq("sail", s.Sail))
	}
	if s.BoatName != "" {
		filters = append(filters, store.Eq("boatName", s.BoatName))
	}
	if s.ClubID != "" {
		filters = append(filters, store.Eq("parent.clubId", s.ClubID))
	}
	if s.TrophyID != "" {
		filters = append(filters, store.Eq("parent.trophyId", s.TrophyID))
	}
	return filters
}

// match is a winner returned by the cross-club query, located by its path.
type match struct {
	parent domain.WinnerParent
	winner domain.Winner
}

// OnSearchCreated returns the writes that materialize search: one Set per
// result page, a Delete for every page a previous build left beyond the new
// page count, and finally the summary update. Every read happens before any
// write is planned, so a failed read leaves no partial state. The summary is
// last, so a plan committed over several batches only shows as built once
// every page is in place. A search that no longer exists plans nothing.
func (b *Builder) OnSearchCreated(ctx context.Context, search *domain.Search) ([]store.Write, error) {
	if search == nil || search.ID == "" {
		return nil, nil
	}

	var current domain.Search
	if err := b.store.Get(ctx, domain.SearchPath(search.ID), &current); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.logger.LogAttrs(ctx, slog.LevelDebug, "search gone before it was built",
				slog.String(logger.KeySearchID, search.ID))
			return nil, nil
		}
		return nil, fmt.Errorf("read search: %w", err)
	}

	matches, err := b.matches(ctx, search)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string][]string)
	for _, m := range matches {
		candidates[m.parent.ClubID] = append(candidates[m.parent.ClubID], m.parent.TrophyID)
	}
	for clubID, trophies := range candidates {
		candidates[clubID] = gather.Unique(trophies, func(id string) string { return id })
	}

	clubs, err := b.resolver.Resolve(ctx, search.Viewer(), candidates)
	if err != nil {
		return nil, fmt.Errorf("resolve clubs: %w", err)
	}

	results := project(matches, clubs)
	pages := gather.Chunk(results, b.pageSize)

	previous, err := b.store.Query(ctx, domain.SearchResultsPath(search.ID))
	if err != nil {
		return nil, fmt.Errorf("query previous pages: %w", err)
	}

	now := b.now().UTC()
	expireAfter := now.Add(b.ttl)

	writes := make([]store.Write, 0, len(pages)+len(previous)+1)
	for i, page := range pages {
		writes = append(writes, store.Set(domain.SearchResultPath(search.ID, i), domain.SearchResultList{
			Page:        i,
			ExpireAfter: expireAfter,
			Results:     page,
		}))
	}
	for _, snap := range previous {
		if n, err := strconv.Atoi(snap.ID()); err == nil && n >= 0 && n < len(pages) {
			continue
		}
		writes = append(writes, store.Delete(snap.Path))
	}
	writes = append(writes, store.Update(domain.SearchPath(search.ID), map[string]any{
		"clubs":       clubs,
		"count":       len(results),
		"expireAfter": expireAfter,
		"builtAt":     now,
	}))

	return writes, nil
}

// Committed records a committed search build.
func (b *Builder) Committed(ctx context.Context, change store.Change, writes []store.Write) {
	count, pages := 0, 0
	for _, w := range writes {
		if w.Op != store.OpSet {
			continue
		}
		if list, ok := w.Data.(domain.SearchResultList); ok {
			pages++
			count += len(list.Results)
		}
	}
	b.metrics.ObserveSearch(count, pages)

	b.logger.LogAttrs(ctx, slog.LevelInfo, "search built",
		slog.String(logger.KeySearchID, store.DocumentID(change.Path)),
		slog.Int("count", count),
		slog.Int("pages", pages),
	)
}

// matches runs the cross-club winner query, in the store's natural order.
func (b *Builder) matches(ctx context.Context, search *domain.Search) ([]match, error) {
	snaps, err := b.store.QueryGroup(ctx, domain.CollectionWinners, Filters(search)...)
	if err != nil {
		return nil, fmt.Errorf("query winners: %w", err)
	}

	matches := make([]match, 0, len(snaps))
	for _, snap := range snaps {
		parent, _, ok := domain.ParseWinnerPath(snap.Path)
		if !ok {
			continue
		}
		var w domain.Winner
		if err := snap.DataTo(&w); err != nil {
			return nil, err
		}
		matches = append(matches, match{parent: parent, winner: w})
	}
	return matches, nil
}

// project keeps the winners the resolved clubs allow and projects them onto the
// result fields, preserving their order. A winner is kept when its club was
// resolved, its trophy is among the club's visible trophies, and the viewer is
// an admin of the club or the record is not suppressed.
func project(matches []match, clubs []domain.SearchClubInfo) []domain.SearchResult {
	byID := make(map[string]*domain.SearchClubInfo, len(clubs))
	for i := range clubs {
		byID[clubs[i].ClubID] = &clubs[i]
	}

	results := make([]domain.SearchResult, 0, len(matches))
	for _, m := range matches {
		club, ok := byID[m.parent.ClubID]
		if !ok || !club.HasTrophy(m.parent.TrophyID) {
			continue
		}
		if m.winner.Suppress && !club.IsAdmin {
			continue
		}
		results = append(results, domain.SearchResult{
			Parent:   m.parent,
			Year:     m.winner.Year,
			Sail:     m.winner.Sail,
			Helm:     m.winner.Helm,
			Crew:     m.winner.Crew,
			Owner:    m.winner.Owner,
			Name:     m.winner.Name,
			BoatName: m.winner.BoatName,
			Club:     club.Name,
		})
	}
	return results
}
