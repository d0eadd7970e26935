package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	domainerrors "github.com/oobayly/club-trophies-webapp-sub000/internal/errors"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/id"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

// CreateBoatRequest contains the fields of a new boat.
type CreateBoatRequest struct {
	Name string `json:"name" validate:"required,notblank,max=200"`
}

// UpdateBoatRequest renames or archives a boat. Nil fields are left alone.
type UpdateBoatRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Archived *bool   `json:"archived,omitempty"`
}

// ListBoats returns the boats of a club the viewer can see, in id order.
func (s *ClubService) ListBoats(ctx context.Context, viewer domain.Viewer, clubID string) ([]*domain.Boat, error) {
	if _, err := s.loadClub(ctx, viewer, clubID); err != nil {
		return nil, err
	}

	snaps, err := s.store.Query(ctx, domain.BoatsPath(clubID))
	if err != nil {
		return nil, translate(err)
	}

	boats := make([]*domain.Boat, 0, len(snaps))
	for _, snap := range snaps {
		var boat domain.Boat
		if err := snap.DataTo(&boat); err != nil {
			return nil, err
		}
		boat.ID = snap.ID()
		boat.ClubID = clubID
		boats = append(boats, &boat)
	}
	return boats, nil
}

// CreateBoat adds a boat to a club.
func (s *ClubService) CreateBoat(ctx context.Context, viewer domain.Viewer, clubID string, req CreateBoatRequest) (*domain.Boat, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.requireAdmin(ctx, viewer, clubID); err != nil {
		return nil, err
	}

	boatID, err := id.Generate(id.Boat)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate boat id")
	}

	boat := &domain.Boat{
		Syncable: domain.Syncable{ID: boatID},
		ClubID:   clubID,
		Name:     req.Name,
	}
	boat.InitTimestamps()

	if err := s.store.Commit(ctx, store.Create(domain.BoatPath(clubID, boatID), boat)); err != nil {
		return nil, translate(err)
	}
	return boat, nil
}

// UpdateBoat renames or archives a boat. A rename is picked up by the
// propagation handler, which corrects the cached name on trophies and winners.
func (s *ClubService) UpdateBoat(ctx context.Context, viewer domain.Viewer, clubID, boatID string, req UpdateBoatRequest) (*domain.Boat, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.requireAdmin(ctx, viewer, clubID); err != nil {
		return nil, err
	}
	boat, err := s.loadBoat(ctx, clubID, boatID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil && *req.Name != boat.Name {
		boat.Name = *req.Name
		fields["name"] = boat.Name
	}
	if req.Archived != nil && *req.Archived != boat.Archived {
		boat.Archived = *req.Archived
		fields["archived"] = boat.Archived
	}
	if len(fields) == 0 {
		return boat, nil
	}

	boat.UpdatedAt = time.Now()
	fields["updatedAt"] = boat.UpdatedAt

	if err := s.store.Commit(ctx, store.Update(domain.BoatPath(clubID, boatID), fields)); err != nil {
		return nil, translate(err)
	}

	if _, renamed := fields["name"]; renamed {
		s.logger.Info("boat renamed",
			slog.String(logger.KeyClubID, clubID),
			slog.String(logger.KeyBoatID, boatID))
	}
	return boat, nil
}
