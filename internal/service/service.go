// Package service implements the club records use cases on top of the store:
// the admin writes the reactive handlers respond to, and the search requests
// the fan-out builder materializes.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	domainerrors "github.com/oobayly/club-trophies-webapp-sub000/internal/errors"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/validation"
)

// Store is the store surface the services use.
type Store interface {
	Get(ctx context.Context, path string, dest any) error
	Query(ctx context.Context, collection string, filters ...store.Filter) ([]*store.Snapshot, error)
	Commit(ctx context.Context, writes ...store.Write) error
}

// base carries what every service needs.
type base struct {
	store     Store
	validator *validation.Validator
	logger    *slog.Logger
}

func newBase(s Store, v *validation.Validator, log *slog.Logger) base {
	if v == nil {
		v = validation.New()
	}
	return base{store: s, validator: v, logger: logger.OrDiscard(log)}
}

// translate maps store errors onto domain errors so the API can pick a status.
// Errors that already carry a domain code, and unknown errors, pass through.
func translate(err error) error {
	var domainErr *domainerrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.ErrNotFound.WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.ErrAlreadyExists.WithCause(err)
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, store.ErrTooManyKeys):
		return domainerrors.ErrValidation.WithCause(err)
	case errors.Is(err, store.ErrPreconditionFailed), errors.Is(err, store.ErrConflict):
		return domainerrors.Conflictf("record changed concurrently, retry").WithCause(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainerrors.ErrUnavailable.WithCause(err)
	default:
		return err
	}
}

// loadClub reads a club the viewer can see. Invisible clubs are reported as
// missing so their existence does not leak.
func (b *base) loadClub(ctx context.Context, viewer domain.Viewer, clubID string) (*domain.Club, error) {
	if !validation.IsSegment(clubID) {
		return nil, domainerrors.NotFoundf("club %q not found", clubID)
	}

	var club domain.Club
	if err := b.store.Get(ctx, domain.ClubPath(clubID), &club); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("club %q not found", clubID)
		}
		return nil, translate(err)
	}
	club.ID = clubID

	if !club.VisibleTo(viewer) {
		return nil, domainerrors.NotFoundf("club %q not found", clubID)
	}
	return &club, nil
}

// requireAdmin loads a club and checks the viewer administers it.
func (b *base) requireAdmin(ctx context.Context, viewer domain.Viewer, clubID string) (*domain.Club, error) {
	if viewer.IsAnonymous() {
		return nil, domainerrors.Unauthorized("sign in to change club records")
	}

	club, err := b.loadClub(ctx, viewer, clubID)
	if err != nil {
		return nil, err
	}
	if !club.AdminFor(viewer) {
		return nil, domainerrors.Forbiddenf("not an admin of club %q", clubID)
	}
	return club, nil
}

// loadBoat reads a boat of the given club.
func (b *base) loadBoat(ctx context.Context, clubID, boatID string) (*domain.Boat, error) {
	if !validation.IsSegment(boatID) {
		return nil, domainerrors.NotFoundf("boat %q not found", boatID)
	}

	var boat domain.Boat
	if err := b.store.Get(ctx, domain.BoatPath(clubID, boatID), &boat); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("boat %q not found", boatID)
		}
		return nil, translate(err)
	}
	boat.ID = boatID
	boat.ClubID = clubID
	return &boat, nil
}

// boatReference resolves the denormalized boat reference for a write. It also
// returns a precondition pinning the boat name, so a rename racing the write
// fails the batch instead of caching a stale name.
func (b *base) boatReference(ctx context.Context, clubID, boatID string) (domain.BoatReference, []store.Write, error) {
	if boatID == "" {
		return domain.BoatReference{}, nil, nil
	}
	boat, err := b.loadBoat(ctx, clubID, boatID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domain.BoatReference{}, nil, domainerrors.Validationf("boat %q does not belong to club %q", boatID, clubID)
		}
		return domain.BoatReference{}, nil, err
	}
	pin := store.Check(domain.BoatPath(clubID, boatID), "name", boat.Name)
	return boat.Reference(), []store.Write{pin}, nil
}
