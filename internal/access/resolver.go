// Package access resolves which clubs and trophies a viewer may see.
package access

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/gather"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

// DefaultBatchSize is the identifier-set lookup limit of the store.
const DefaultBatchSize = store.MaxInValues

// maxParallelClubs bounds the concurrent per-club trophy lookups.
const maxParallelClubs = 8

// Store is the read surface the resolver needs.
type Store interface {
	GetIn(ctx context.Context, collection string, ids []string) ([]*store.Snapshot, error)
}

// Options configures a Resolver.
type Options struct {
	BatchSize int // ids per lookup; defaults to DefaultBatchSize
	Logger    *slog.Logger
}

// Resolver turns candidate club and trophy ids into the visible subset for a viewer.
// It only reads.
type Resolver struct {
	store     Store
	batchSize int
	logger    *slog.Logger
}

// NewResolver creates a resolver reading from s.
func NewResolver(s Store, opts Options) *Resolver {
	batchSize := opts.BatchSize
	if batchSize <= 0 || batchSize > store.MaxInValues {
		batchSize = DefaultBatchSize
	}
	return &Resolver{
		store:     s,
		batchSize: batchSize,
		logger:    logger.OrDiscard(opts.Logger),
	}
}

// Resolve returns the clubs among candidates the viewer may see, each with the
// candidate trophies visible to the viewer. candidates maps club id to trophy ids.
//
// A club is visible if it is public or the viewer is one of its admins. A trophy
// is visible if the viewer is an admin of its club or the trophy is public.
// Ids that no longer resolve are skipped. Clubs and trophies are sorted by
// case-folded name, ties broken by id.
func (r *Resolver) Resolve(ctx context.Context, viewer domain.Viewer, candidates map[string][]string) ([]domain.SearchClubInfo, error) {
	if len(candidates) == 0 {
		return []domain.SearchClubInfo{}, nil
	}

	clubIDs := slices.Sorted(maps.Keys(candidates))
	clubs, err := r.Clubs(ctx, clubIDs)
	if err != nil {
		return nil, err
	}

	var visible []*domain.Club
	for _, club := range clubs {
		if club.VisibleTo(viewer) {
			visible = append(visible, club)
		}
	}

	infos := make([]domain.SearchClubInfo, len(visible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelClubs)
	for i, club := range visible {
		g.Go(func() error {
			admin := club.AdminFor(viewer)
			trophies, err := r.trophies(gctx, club.ID, candidates[club.ID], admin)
			if err != nil {
				return err
			}
			infos[i] = domain.SearchClubInfo{
				ClubID:   club.ID,
				Name:     club.Name,
				IsAdmin:  admin,
				Trophies: trophies,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	folder := cases.Fold()
	slices.SortFunc(infos, func(a, b domain.SearchClubInfo) int {
		return cmp.Or(
			cmp.Compare(folder.String(a.Name), folder.String(b.Name)),
			cmp.Compare(a.ClubID, b.ClubID),
		)
	})

	r.logger.LogAttrs(ctx, slog.LevelDebug, "clubs resolved",
		slog.String("uid", viewer.UID),
		slog.Int("candidates", len(clubIDs)),
		slog.Int("found", len(clubs)),
		slog.Int("visible", len(infos)),
	)

	return infos, nil
}

// Clubs loads the clubs with the given ids in lookup-sized groups.
// Missing clubs are skipped.
func (r *Resolver) Clubs(ctx context.Context, ids []string) ([]*domain.Club, error) {
	clubs, err := gather.Fetch(ctx, ids, r.batchSize,
		func(ctx context.Context, group []string) ([]*domain.Club, error) {
			return fetchAll[domain.Club](ctx, r.store, domain.CollectionClubs, group)
		},
		func(c *domain.Club) string { return c.ID },
	)
	if err != nil {
		return nil, fmt.Errorf("lookup clubs: %w", err)
	}
	return clubs, nil
}

func (r *Resolver) trophies(ctx context.Context, clubID string, ids []string, admin bool) ([]domain.SearchTrophyInfo, error) {
	trophies, err := gather.Fetch(ctx, ids, r.batchSize,
		func(ctx context.Context, group []string) ([]*domain.Trophy, error) {
			return fetchAll[domain.Trophy](ctx, r.store, domain.TrophiesPath(clubID), group)
		},
		func(t *domain.Trophy) string { return t.ID },
	)
	if err != nil {
		return nil, fmt.Errorf("lookup trophies of club %s: %w", clubID, err)
	}

	infos := make([]domain.SearchTrophyInfo, 0, len(trophies))
	for _, t := range trophies {
		if !t.VisibleTo(admin) {
			continue
		}
		infos = append(infos, domain.SearchTrophyInfo{TrophyID: t.ID, Name: t.Name})
	}

	folder := cases.Fold()
	slices.SortFunc(infos, func(a, b domain.SearchTrophyInfo) int {
		return cmp.Or(
			cmp.Compare(folder.String(a.Name), folder.String(b.Name)),
			cmp.Compare(a.TrophyID, b.TrophyID),
		)
	})
	return infos, nil
}

// entity is a document type whose id is taken from its path.
type entity[T any] interface {
	*T
	SetID(id string)
}

// fetchAll runs one identifier-set lookup and decodes the documents.
func fetchAll[T any, P entity[T]](ctx context.Context, s Store, collection string, ids []string) ([]P, error) {
	snaps, err := s.GetIn(ctx, collection, ids)
	if err != nil {
		return nil, err
	}
	out := make([]P, 0, len(snaps))
	for _, snap := range snaps {
		v := P(new(T))
		if err := snap.DataTo(v); err != nil {
			return nil, err
		}
		v.SetID(snap.ID())
		out = append(out, v)
	}
	return out, nil
}
