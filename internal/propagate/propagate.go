// Package propagate keeps the denormalized boat names of trophies and winners
// in step with the canonical boat.
package propagate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	applog "github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/metrics"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

// MaxUpdatesPerBatch leaves room for the boat name precondition in one batch.
const MaxUpdatesPerBatch = store.MaxBatchWrites - 1

// Store is the read surface the propagator needs.
type Store interface {
	Get(ctx context.Context, path string, dest any) error
	Query(ctx context.Context, collection string, filters ...store.Filter) ([]*store.Snapshot, error)
	QueryGroupRange(ctx context.Context, group, start, end string, filters ...store.Filter) ([]*store.Snapshot, error)
}

// Propagator plans the writes that re-synchronize cached boat names after a rename.
type Propagator struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a propagator. logger and m may be nil.
func New(s Store, logger *slog.Logger, m *metrics.Metrics) *Propagator {
	return &Propagator{store: s, logger: applog.OrDiscard(logger), metrics: m}
}

// OnBoatUpdated returns the writes that correct every trophy and winner of the
// boat's club still caching a stale boat name. A rename that did not change the
// name, or a tree that is already consistent, yields no writes.
//
// The plan is made against the boat as currently stored, not against after, and
// starts with a precondition on the boat's name: if the boat is renamed again
// before the batch commits, the batch fails and a retry plans with the newer name.
//
// At most MaxUpdatesPerBatch updates are planned. Planning again after the batch
// commits picks up whatever is left.
func (p *Propagator) OnBoatUpdated(ctx context.Context, before, after *domain.Boat) ([]store.Write, error) {
	if after == nil || after.ID == "" || after.ClubID == "" {
		return nil, nil
	}
	if before != nil && before.Name == after.Name {
		p.logger.LogAttrs(ctx, slog.LevelDebug, "boat name unchanged, nothing to propagate",
			slog.String("club_id", after.ClubID),
			slog.String("boat_id", after.ID),
		)
		return nil, nil
	}

	clubID, boatID := after.ClubID, after.ID
	boatPath := domain.BoatPath(clubID, boatID)

	var current domain.Boat
	if err := p.store.Get(ctx, boatPath, &current); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read boat: %w", err)
	}
	name := current.Name

	updates, err := p.staleTrophies(ctx, clubID, boatID, name)
	if err != nil {
		return nil, err
	}
	winners, err := p.staleWinners(ctx, clubID, boatID, name)
	if err != nil {
		return nil, err
	}
	updates = append(updates, winners...)

	if len(updates) == 0 {
		p.logger.LogAttrs(ctx, slog.LevelDebug, "boat references already consistent",
			slog.String("club_id", clubID),
			slog.String("boat_id", boatID),
		)
		return nil, nil
	}
	if len(updates) > MaxUpdatesPerBatch {
		updates = updates[:MaxUpdatesPerBatch]
	}

	writes := make([]store.Write, 0, len(updates)+1)
	writes = append(writes, store.Check(boatPath, "name", name))
	writes = append(writes, updates...)
	return writes, nil
}

// Committed records a committed propagation batch.
func (p *Propagator) Committed(ctx context.Context, change store.Change, writes []store.Write) {
	updated := 0
	for _, w := range writes {
		if w.Op == store.OpUpdate {
			updated++
		}
	}
	p.metrics.AddPropagated(updated)

	clubID, boatID, _ := domain.ParseBoatPath(change.Path)
	p.logger.LogAttrs(ctx, slog.LevelInfo, "boat name propagated",
		slog.String("club_id", clubID),
		slog.String("boat_id", boatID),
		slog.Int("documents_updated", updated),
	)
}

func (p *Propagator) staleTrophies(ctx context.Context, clubID, boatID, name string) ([]store.Write, error) {
	snaps, err := p.store.Query(ctx, domain.TrophiesPath(clubID), store.Eq("boatId", boatID))
	if err != nil {
		return nil, fmt.Errorf("query trophies: %w", err)
	}

	var writes []store.Write
	for _, snap := range snaps {
		var trophy domain.Trophy
		if err := snap.DataTo(&trophy); err != nil {
			return nil, err
		}
		if !trophy.References(boatID) || !trophy.IsStale(name) {
			continue
		}
		writes = append(writes, store.Update(snap.Path, map[string]any{"boatName": name}))
	}
	return writes, nil
}

// staleWinners scans the club's key range of the winners group. The query only
// narrows by boat id; ownership and staleness are checked per document.
func (p *Propagator) staleWinners(ctx context.Context, clubID, boatID, name string) ([]store.Write, error) {
	prefix := domain.ClubPrefix(clubID)
	snaps, err := p.store.QueryGroupRange(ctx, domain.CollectionWinners, prefix, store.PrefixEnd(prefix),
		store.Eq("boatId", boatID))
	if err != nil {
		return nil, fmt.Errorf("query winners: %w", err)
	}

	var writes []store.Write
	for _, snap := range snaps {
		if !strings.HasPrefix(snap.Path, prefix) {
			continue
		}
		var winner domain.Winner
		if err := snap.DataTo(&winner); err != nil {
			return nil, err
		}
		if !winner.References(boatID) || !winner.IsStale(name) {
			continue
		}
		writes = append(writes, store.Update(snap.Path, map[string]any{"boatName": name}))
	}
	return writes, nil
}
