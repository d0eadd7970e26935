package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	domainerrors "github.com/oobayly/club-trophies-webapp-sub000/internal/errors"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/id"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/validation"
)

// ClubService manages clubs and the boats, trophies and winners below them.
// Every mutation requires the viewer to administer the club.
type ClubService struct {
	base
}

// NewClubService creates a new club service. v and log may be nil.
func NewClubService(s Store, v *validation.Validator, log *slog.Logger) *ClubService {
	return &ClubService{base: newBase(s, v, log)}
}

// CreateClubRequest contains the fields of a new club.
type CreateClubRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	Public      bool   `json:"public"`
}

// UpdateClubRequest contains the club fields to change. Nil fields are left alone.
type UpdateClubRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Public      *bool    `json:"public,omitempty"`
	Admins      []string `json:"admins,omitempty" validate:"omitempty,min=1,dive,required"`
}

// CreateClub creates a club with the viewer as its only admin.
func (s *ClubService) CreateClub(ctx context.Context, viewer domain.Viewer, req CreateClubRequest) (*domain.Club, error) {
	if viewer.UID == "" {
		return nil, domainerrors.Unauthorized("sign in to create a club")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	clubID, err := id.Generate(id.Club)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate club id")
	}

	club := &domain.Club{
		Syncable:    domain.Syncable{ID: clubID},
		Name:        req.Name,
		Description: req.Description,
		Public:      req.Public,
		Admins:      []string{viewer.UID},
	}
	club.InitTimestamps()

	if err := s.store.Commit(ctx, store.Create(domain.ClubPath(clubID), club)); err != nil {
		return nil, translate(err)
	}

	s.logger.Info("club created",
		slog.String(logger.KeyClubID, clubID),
		slog.String(logger.KeyViewer, viewer.UID),
		slog.Bool("public", club.Public))
	return club, nil
}

// GetClub returns a club the viewer can see.
func (s *ClubService) GetClub(ctx context.Context, viewer domain.Viewer, clubID string) (*domain.Club, error) {
	return s.loadClub(ctx, viewer, clubID)
}

// UpdateClub changes club fields. Admins may replace the admin list but not empty it.
func (s *ClubService) UpdateClub(ctx context.Context, viewer domain.Viewer, clubID string, req UpdateClubRequest) (*domain.Club, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Admins != nil && len(req.Admins) == 0 {
		return nil, domainerrors.Validation("a club needs at least one admin")
	}
	club, err := s.requireAdmin(ctx, viewer, clubID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		club.Name = *req.Name
		fields["name"] = club.Name
	}
	if req.Description != nil {
		club.Description = *req.Description
		fields["description"] = club.Description
	}
	if req.Public != nil {
		club.Public = *req.Public
		fields["public"] = club.Public
	}
	if req.Admins != nil {
		admins := slices.Clone(req.Admins)
		slices.Sort(admins)
		club.Admins = slices.Compact(admins)
		fields["admins"] = club.Admins
	}
	if len(fields) == 0 {
		return club, nil
	}

	club.UpdatedAt = time.Now()
	fields["updatedAt"] = club.UpdatedAt

	if err := s.store.Commit(ctx, store.Update(domain.ClubPath(clubID), fields)); err != nil {
		return nil, translate(err)
	}
	return club, nil
}
