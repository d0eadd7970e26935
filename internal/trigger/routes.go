package trigger

import (
	"context"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/propagate"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/search"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

// Route names, used as metric labels.
const (
	RoutePropagate = "propagate"
	RouteSearch    = "search"
)

// OutboxChanges lists the changes the store records until a route has handled
// them: the ones BoatUpdatedRoute and SearchCreatedRoute react to.
func OutboxChanges() map[string][]store.ChangeKind {
	return map[string][]store.ChangeKind{
		domain.CollectionBoats:    {store.ChangeUpdated},
		domain.CollectionSearches: {store.ChangeCreated},
	}
}

// BoatUpdatedRoute sends boat updates to the propagator. A large club is
// corrected over several batches.
func BoatUpdatedRoute(p *propagate.Propagator) Route {
	return Route{
		Name:  RoutePropagate,
		Group: domain.CollectionBoats,
		Kind:  store.ChangeUpdated,
		Handle: func(ctx context.Context, change store.Change) ([]store.Write, error) {
			before, err := decodeBoat(change.Path, change.Before)
			if err != nil {
				return nil, err
			}
			after, err := decodeBoat(change.Path, change.After)
			if err != nil {
				return nil, err
			}
			if after == nil {
				return nil, nil
			}
			return p.OnBoatUpdated(ctx, before, after)
		},
		Committed: p.Committed,
		Repeat:    true,
	}
}

// SearchCreatedRoute sends new searches to the fan-out builder. Searches with
// more pages than fit in one batch are committed over several.
func SearchCreatedRoute(b *search.Builder) Route {
	return Route{
		Name:  RouteSearch,
		Group: domain.CollectionSearches,
		Kind:  store.ChangeCreated,
		Handle: func(ctx context.Context, change store.Change) ([]store.Write, error) {
			searchID, ok := domain.ParseSearchPath(change.Path)
			if !ok || change.After == nil {
				return nil, nil
			}
			var s domain.Search
			if err := change.After.DataTo(&s); err != nil {
				return nil, store.ErrInvalidInput.WithCause(err)
			}
			s.ID = searchID
			return b.OnSearchCreated(ctx, &s)
		},
		Committed: b.Committed,
		Split:     true,
	}
}

// decodeBoat decodes a boat snapshot, taking its ids from the document path.
// Only documents directly under a club's boats collection are boats.
func decodeBoat(path string, snap *store.Snapshot) (*domain.Boat, error) {
	if snap == nil {
		return nil, nil
	}
	clubID, boatID, ok := domain.ParseBoatPath(path)
	if !ok {
		return nil, nil
	}
	var boat domain.Boat
	if err := snap.DataTo(&boat); err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}
	boat.ID = boatID
	boat.ClubID = clubID
	return &boat, nil
}
