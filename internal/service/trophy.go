package service

import (
	"context"
	"errors"
	"time"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	domainerrors "github.com/oobayly/club-trophies-webapp-sub000/internal/errors"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/id"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/validation"
)

// CreateTrophyRequest contains the fields of a new trophy.
type CreateTrophyRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	Public      bool   `json:"public"`
	BoatID      string `json:"boatId,omitempty" validate:"omitempty,segment"`
}

// UpdateTrophyRequest contains the trophy fields to change. Nil fields are left
// alone; an empty BoatID removes the boat reference.
type UpdateTrophyRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Public      *bool   `json:"public,omitempty"`
	BoatID      *string `json:"boatId,omitempty"`
}

// CreateTrophy adds a trophy to a club. A boat reference caches the boat's
// current name.
func (s *ClubService) CreateTrophy(ctx context.Context, viewer domain.Viewer, clubID string, req CreateTrophyRequest) (*domain.Trophy, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.requireAdmin(ctx, viewer, clubID); err != nil {
		return nil, err
	}

	ref, pins, err := s.boatReference(ctx, clubID, req.BoatID)
	if err != nil {
		return nil, err
	}

	trophyID, err := id.Generate(id.Trophy)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate trophy id")
	}

	trophy := &domain.Trophy{
		Syncable:      domain.Syncable{ID: trophyID},
		BoatReference: ref,
		ClubID:        clubID,
		Name:          req.Name,
		Description:   req.Description,
		Public:        req.Public,
	}
	trophy.InitTimestamps()

	writes := append(pins, store.Create(domain.TrophyPath(clubID, trophyID), trophy))
	if err := s.store.Commit(ctx, writes...); err != nil {
		return nil, translate(err)
	}
	return trophy, nil
}

// UpdateTrophy changes trophy fields.
func (s *ClubService) UpdateTrophy(ctx context.Context, viewer domain.Viewer, clubID, trophyID string, req UpdateTrophyRequest) (*domain.Trophy, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.requireAdmin(ctx, viewer, clubID); err != nil {
		return nil, err
	}
	trophy, err := s.loadTrophy(ctx, clubID, trophyID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	var pins []store.Write
	if req.Name != nil {
		trophy.Name = *req.Name
		fields["name"] = trophy.Name
	}
	if req.Description != nil {
		trophy.Description = *req.Description
		fields["description"] = trophy.Description
	}
	if req.Public != nil {
		trophy.Public = *req.Public
		fields["public"] = trophy.Public
	}
	if req.BoatID != nil {
		if trophy.BoatReference, pins, err = s.boatReference(ctx, clubID, *req.BoatID); err != nil {
			return nil, err
		}
		fields["boatId"] = nullable(trophy.BoatID)
		fields["boatName"] = nullable(trophy.BoatName)
	}
	if len(fields) == 0 {
		return trophy, nil
	}

	trophy.UpdatedAt = time.Now()
	fields["updatedAt"] = trophy.UpdatedAt

	writes := append(pins, store.Update(domain.TrophyPath(clubID, trophyID), fields))
	if err := s.store.Commit(ctx, writes...); err != nil {
		return nil, translate(err)
	}
	return trophy, nil
}

func (s *ClubService) loadTrophy(ctx context.Context, clubID, trophyID string) (*domain.Trophy, error) {
	if !validation.IsSegment(trophyID) {
		return nil, domainerrors.NotFoundf("trophy %q not found", trophyID)
	}

	var trophy domain.Trophy
	if err := s.store.Get(ctx, domain.TrophyPath(clubID, trophyID), &trophy); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("trophy %q not found", trophyID)
		}
		return nil, translate(err)
	}
	trophy.ID = trophyID
	trophy.ClubID = clubID
	return &trophy, nil
}

// nullable stores empty strings as null, matching the omitempty document form.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
