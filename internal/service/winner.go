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

// WinnerFields are the descriptive fields of a winner record.
type WinnerFields struct {
	Year  int    `json:"year,omitempty" validate:"omitempty,gte=1700,lte=2200"`
	Sail  string `json:"sail,omitempty" validate:"max=20"`
	Helm  string `json:"helm,omitempty" validate:"max=200"`
	Crew  string `json:"crew,omitempty" validate:"max=500"`
	Owner string `json:"owner,omitempty" validate:"max=200"`
	Name  string `json:"name,omitempty" validate:"max=200"`
	Notes string `json:"notes,omitempty" validate:"max=2000"`
}

// CreateWinnerRequest contains the fields of a new winner.
type CreateWinnerRequest struct {
	WinnerFields
	BoatID   string `json:"boatId,omitempty" validate:"omitempty,segment"`
	Suppress bool   `json:"suppress,omitempty"`
}

// UpdateWinnerRequest contains the winner fields to change. Nil fields are left
// alone; an empty BoatID removes the boat reference.
type UpdateWinnerRequest struct {
	Year     *int    `json:"year,omitempty" validate:"omitempty,gte=1700,lte=2200"`
	Sail     *string `json:"sail,omitempty" validate:"omitempty,max=20"`
	Helm     *string `json:"helm,omitempty" validate:"omitempty,max=200"`
	Crew     *string `json:"crew,omitempty" validate:"omitempty,max=500"`
	Owner    *string `json:"owner,omitempty" validate:"omitempty,max=200"`
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	BoatID   *string `json:"boatId,omitempty"`
	Suppress *bool   `json:"suppress,omitempty"`
}

// CreateWinner records a result of a trophy.
func (s *ClubService) CreateWinner(ctx context.Context, viewer domain.Viewer, clubID, trophyID string, req CreateWinnerRequest) (*domain.Winner, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.requireAdmin(ctx, viewer, clubID); err != nil {
		return nil, err
	}
	if _, err := s.loadTrophy(ctx, clubID, trophyID); err != nil {
		return nil, err
	}

	ref, pins, err := s.boatReference(ctx, clubID, req.BoatID)
	if err != nil {
		return nil, err
	}

	winnerID, err := id.Generate(id.Winner)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate winner id")
	}

	winner := &domain.Winner{
		Syncable:      domain.Syncable{ID: winnerID},
		BoatReference: ref,
		Parent:        domain.WinnerParent{ClubID: clubID, TrophyID: trophyID},
		Year:          req.Year,
		Sail:          req.Sail,
		Helm:          req.Helm,
		Crew:          req.Crew,
		Owner:         req.Owner,
		Name:          req.Name,
		Notes:         req.Notes,
		Suppress:      req.Suppress,
	}
	winner.InitTimestamps()

	writes := append(pins, store.Create(domain.WinnerPath(clubID, trophyID, winnerID), winner))
	if err := s.store.Commit(ctx, writes...); err != nil {
		return nil, translate(err)
	}
	return winner, nil
}

// UpdateWinner changes winner fields, including suppression from search results.
func (s *ClubService) UpdateWinner(ctx context.Context, viewer domain.Viewer, clubID, trophyID, winnerID string, req UpdateWinnerRequest) (*domain.Winner, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.requireAdmin(ctx, viewer, clubID); err != nil {
		return nil, err
	}
	winner, err := s.loadWinner(ctx, clubID, trophyID, winnerID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	setString := func(field string, dst *string, src *string) {
		if src != nil {
			*dst = *src
			fields[field] = nullable(*src)
		}
	}
	setString("sail", &winner.Sail, req.Sail)
	setString("helm", &winner.Helm, req.Helm)
	setString("crew", &winner.Crew, req.Crew)
	setString("owner", &winner.Owner, req.Owner)
	setString("name", &winner.Name, req.Name)
	setString("notes", &winner.Notes, req.Notes)
	if req.Year != nil {
		winner.Year = *req.Year
		fields["year"] = winner.Year
	}
	if req.Suppress != nil {
		winner.Suppress = *req.Suppress
		fields["suppress"] = winner.Suppress
	}

	var pins []store.Write
	if req.BoatID != nil {
		if winner.BoatReference, pins, err = s.boatReference(ctx, clubID, *req.BoatID); err != nil {
			return nil, err
		}
		fields["boatId"] = nullable(winner.BoatID)
		fields["boatName"] = nullable(winner.BoatName)
	}
	if len(fields) == 0 {
		return winner, nil
	}

	winner.UpdatedAt = time.Now()
	fields["updatedAt"] = winner.UpdatedAt

	writes := append(pins, store.Update(domain.WinnerPath(clubID, trophyID, winnerID), fields))
	if err := s.store.Commit(ctx, writes...); err != nil {
		return nil, translate(err)
	}
	return winner, nil
}

func (s *ClubService) loadWinner(ctx context.Context, clubID, trophyID, winnerID string) (*domain.Winner, error) {
	if !validation.IsSegment(trophyID) || !validation.IsSegment(winnerID) {
		return nil, domainerrors.NotFoundf("winner %q not found", winnerID)
	}

	var winner domain.Winner
	if err := s.store.Get(ctx, domain.WinnerPath(clubID, trophyID, winnerID), &winner); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("winner %q not found", winnerID)
		}
		return nil, translate(err)
	}
	winner.ID = winnerID
	winner.Parent = domain.WinnerParent{ClubID: clubID, TrophyID: trophyID}
	return &winner, nil
}
