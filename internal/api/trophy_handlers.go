package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/service"
)

func (s *Server) registerTrophyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createTrophy",
		Method:        http.MethodPost,
		Path:          "/api/v1/clubs/{clubId}/trophies",
		Summary:       "Create trophy",
		Description:   "Creates a trophy, optionally linked to one of the club's boats",
		Tags:          []string{"Trophies"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTrophy)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTrophy",
		Method:      http.MethodPatch,
		Path:        "/api/v1/clubs/{clubId}/trophies/{trophyId}",
		Summary:     "Update trophy",
		Description: "Updates trophy fields. An empty boatId removes the boat link",
		Tags:        []string{"Trophies"},
	}, s.handleUpdateTrophy)
}

func (s *Server) registerWinnerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createWinner",
		Method:        http.MethodPost,
		Path:          "/api/v1/clubs/{clubId}/trophies/{trophyId}/winners",
		Summary:       "Create winner",
		Description:   "Records a historical winner of a trophy",
		Tags:          []string{"Winners"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateWinner)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateWinner",
		Method:      http.MethodPatch,
		Path:        "/api/v1/clubs/{clubId}/trophies/{trophyId}/winners/{winnerId}",
		Summary:     "Update winner",
		Description: "Updates a winner record. Suppressed winners are hidden from non-admin searches",
		Tags:        []string{"Winners"},
	}, s.handleUpdateWinner)
}

// === DTOs ===

// TrophyResponse contains trophy data in API responses.
type TrophyResponse struct {
	ID          string    `json:"id" doc:"Trophy ID"`
	ClubID      string    `json:"clubId" doc:"Owning club ID"`
	Name        string    `json:"name" doc:"Trophy name"`
	Description string    `json:"description,omitempty" doc:"Trophy description"`
	Public      bool      `json:"public" doc:"Whether non-admins can see the trophy"`
	BoatID      string    `json:"boatId,omitempty" doc:"Linked boat ID"`
	BoatName    string    `json:"boatName,omitempty" doc:"Name of the linked boat"`
	CreatedAt   time.Time `json:"createdAt" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updatedAt" doc:"Last update time"`
}

// TrophyOutput wraps the trophy response for Huma.
type TrophyOutput struct {
	Body TrophyResponse
}

// CreateTrophyRequest is the request body for creating a trophy.
type CreateTrophyRequest struct {
	Name        string `json:"name" minLength:"1" maxLength:"200" doc:"Trophy name"`
	Description string `json:"description,omitempty" maxLength:"2000" doc:"Trophy description"`
	Public      bool   `json:"public,omitempty" doc:"Whether non-admins can see the trophy"`
	BoatID      string `json:"boatId,omitempty" doc:"Boat the trophy is linked to"`
}

// CreateTrophyInput wraps the create trophy request for Huma.
type CreateTrophyInput struct {
	ClubID string `path:"clubId" doc:"Club ID"`
	Body   CreateTrophyRequest
}

// UpdateTrophyRequest is the request body for updating a trophy.
type UpdateTrophyRequest struct {
	Name        *string `json:"name,omitempty" minLength:"1" maxLength:"200" doc:"Trophy name"`
	Description *string `json:"description,omitempty" maxLength:"2000" doc:"Trophy description"`
	Public      *bool   `json:"public,omitempty" doc:"Whether non-admins can see the trophy"`
	BoatID      *string `json:"boatId,omitempty" doc:"Boat the trophy is linked to, empty to unlink"`
}

// UpdateTrophyInput wraps the update trophy request for Huma.
type UpdateTrophyInput struct {
	ClubID   string `path:"clubId" doc:"Club ID"`
	TrophyID string `path:"trophyId" doc:"Trophy ID"`
	Body     UpdateTrophyRequest
}

// WinnerResponse contains winner data in API responses.
type WinnerResponse struct {
	ID        string    `json:"id" doc:"Winner ID"`
	ClubID    string    `json:"clubId" doc:"Owning club ID"`
	TrophyID  string    `json:"trophyId" doc:"Trophy ID"`
	Year      int       `json:"year,omitempty" doc:"Year won"`
	Sail      string    `json:"sail,omitempty" doc:"Sail number"`
	Helm      string    `json:"helm,omitempty" doc:"Helm"`
	Crew      string    `json:"crew,omitempty" doc:"Crew"`
	Owner     string    `json:"owner,omitempty" doc:"Owner"`
	Name      string    `json:"name,omitempty" doc:"Free-text boat name"`
	Notes     string    `json:"notes,omitempty" doc:"Notes"`
	BoatID    string    `json:"boatId,omitempty" doc:"Linked boat ID"`
	BoatName  string    `json:"boatName,omitempty" doc:"Name of the linked boat"`
	Suppress  bool      `json:"suppress,omitempty" doc:"Hidden from non-admin searches"`
	CreatedAt time.Time `json:"createdAt" doc:"Creation time"`
	UpdatedAt time.Time `json:"updatedAt" doc:"Last update time"`
}

// WinnerOutput wraps the winner response for Huma.
type WinnerOutput struct {
	Body WinnerResponse
}

// CreateWinnerRequest is the request body for creating a winner.
type CreateWinnerRequest struct {
	Year     int    `json:"year,omitempty" minimum:"1700" maximum:"2200" doc:"Year won"`
	Sail     string `json:"sail,omitempty" maxLength:"20" doc:"Sail number"`
	Helm     string `json:"helm,omitempty" maxLength:"200" doc:"Helm"`
	Crew     string `json:"crew,omitempty" maxLength:"500" doc:"Crew"`
	Owner    string `json:"owner,omitempty" maxLength:"200" doc:"Owner"`
	Name     string `json:"name,omitempty" maxLength:"200" doc:"Free-text boat name"`
	Notes    string `json:"notes,omitempty" maxLength:"2000" doc:"Notes"`
	BoatID   string `json:"boatId,omitempty" doc:"Boat the winner is linked to"`
	Suppress bool   `json:"suppress,omitempty" doc:"Hide from non-admin searches"`
}

// CreateWinnerInput wraps the create winner request for Huma.
type CreateWinnerInput struct {
	ClubID   string `path:"clubId" doc:"Club ID"`
	TrophyID string `path:"trophyId" doc:"Trophy ID"`
	Body     CreateWinnerRequest
}

// UpdateWinnerRequest is the request body for updating a winner.
type UpdateWinnerRequest struct {
	Year     *int    `json:"year,omitempty" minimum:"1700" maximum:"2200" doc:"Year won"`
	Sail     *string `json:"sail,omitempty" maxLength:"20" doc:"Sail number"`
	Helm     *string `json:"helm,omitempty" maxLength:"200" doc:"Helm"`
	Crew     *string `json:"crew,omitempty" maxLength:"500" doc:"Crew"`
	Owner    *string `json:"owner,omitempty" maxLength:"200" doc:"Owner"`
	Name     *string `json:"name,omitempty" maxLength:"200" doc:"Free-text boat name"`
	Notes    *string `json:"notes,omitempty" maxLength:"2000" doc:"Notes"`
	BoatID   *string `json:"boatId,omitempty" doc:"Boat the winner is linked to, empty to unlink"`
	Suppress *bool   `json:"suppress,omitempty" doc:"Hide from non-admin searches"`
}

// UpdateWinnerInput wraps the update winner request for Huma.
type UpdateWinnerInput struct {
	ClubID   string `path:"clubId" doc:"Club ID"`
	TrophyID string `path:"trophyId" doc:"Trophy ID"`
	WinnerID string `path:"winnerId" doc:"Winner ID"`
	Body     UpdateWinnerRequest
}

// === Handlers ===

func (s *Server) handleCreateTrophy(ctx context.Context, input *CreateTrophyInput) (*TrophyOutput, error) {
	trophy, err := s.services.Clubs.CreateTrophy(ctx, viewerFrom(ctx), input.ClubID, service.CreateTrophyRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Public:      input.Body.Public,
		BoatID:      input.Body.BoatID,
	})
	if err != nil {
		return nil, err
	}

	return &TrophyOutput{Body: trophyResponse(trophy)}, nil
}

func (s *Server) handleUpdateTrophy(ctx context.Context, input *UpdateTrophyInput) (*TrophyOutput, error) {
	trophy, err := s.services.Clubs.UpdateTrophy(ctx, viewerFrom(ctx), input.ClubID, input.TrophyID, service.UpdateTrophyRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Public:      input.Body.Public,
		BoatID:      input.Body.BoatID,
	})
	if err != nil {
		return nil, err
	}

	return &TrophyOutput{Body: trophyResponse(trophy)}, nil
}

func (s *Server) handleCreateWinner(ctx context.Context, input *CreateWinnerInput) (*WinnerOutput, error) {
	b := input.Body
	winner, err := s.services.Clubs.CreateWinner(ctx, viewerFrom(ctx), input.ClubID, input.TrophyID, service.CreateWinnerRequest{
		WinnerFields: service.WinnerFields{
			Year:  b.Year,
			Sail:  b.Sail,
			Helm:  b.Helm,
			Crew:  b.Crew,
			Owner: b.Owner,
			Name:  b.Name,
			Notes: b.Notes,
		},
		BoatID:   b.BoatID,
		Suppress: b.Suppress,
	})
	if err != nil {
		return nil, err
	}

	return &WinnerOutput{Body: winnerResponse(winner)}, nil
}

func (s *Server) handleUpdateWinner(ctx context.Context, input *UpdateWinnerInput) (*WinnerOutput, error) {
	b := input.Body
	winner, err := s.services.Clubs.UpdateWinner(ctx, viewerFrom(ctx), input.ClubID, input.TrophyID, input.WinnerID, service.UpdateWinnerRequest{
		Year:     b.Year,
		Sail:     b.Sail,
		Helm:     b.Helm,
		Crew:     b.Crew,
		Owner:    b.Owner,
		Name:     b.Name,
		Notes:    b.Notes,
		BoatID:   b.BoatID,
		Suppress: b.Suppress,
	})
	if err != nil {
		return nil, err
	}

	return &WinnerOutput{Body: winnerResponse(winner)}, nil
}

func trophyResponse(t *domain.Trophy) TrophyResponse {
	return TrophyResponse{
		ID:          t.ID,
		ClubID:      t.ClubID,
		Name:        t.Name,
		Description: t.Description,
		Public:      t.Public,
		BoatID:      t.BoatID,
		BoatName:    t.BoatName,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func winnerResponse(w *domain.Winner) WinnerResponse {
	return WinnerResponse{
		ID:        w.ID,
		ClubID:    w.Parent.ClubID,
		TrophyID:  w.Parent.TrophyID,
		Year:      w.Year,
		Sail:      w.Sail,
		Helm:      w.Helm,
		Crew:      w.Crew,
		Owner:     w.Owner,
		Name:      w.Name,
		Notes:     w.Notes,
		BoatID:    w.BoatID,
		BoatName:  w.BoatName,
		Suppress:  w.Suppress,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
