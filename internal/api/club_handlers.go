package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/service"
)

func (s *Server) registerClubRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createClub",
		Method:        http.MethodPost,
		Path:          "/api/v1/clubs",
		Summary:       "Create club",
		Description:   "Creates a club with the caller as its only admin",
		Tags:          []string{"Clubs"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateClub)

	huma.Register(s.api, huma.Operation{
		OperationID: "getClub",
		Method:      http.MethodGet,
		Path:        "/api/v1/clubs/{clubId}",
		Summary:     "Get club",
		Description: "Returns a club. Private clubs are only visible to their admins",
		Tags:        []string{"Clubs"},
	}, s.handleGetClub)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateClub",
		Method:      http.MethodPatch,
		Path:        "/api/v1/clubs/{clubId}",
		Summary:     "Update club",
		Description: "Updates club fields or replaces the admin list",
		Tags:        []string{"Clubs"},
	}, s.handleUpdateClub)
}

func (s *Server) registerBoatRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBoats",
		Method:      http.MethodGet,
		Path:        "/api/v1/clubs/{clubId}/boats",
		Summary:     "List boats",
		Description: "Returns the club's boats ordered by name",
		Tags:        []string{"Boats"},
	}, s.handleListBoats)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBoat",
		Method:        http.MethodPost,
		Path:          "/api/v1/clubs/{clubId}/boats",
		Summary:       "Create boat",
		Description:   "Adds a boat to the club's reference data",
		Tags:          []string{"Boats"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBoat)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBoat",
		Method:      http.MethodPatch,
		Path:        "/api/v1/clubs/{clubId}/boats/{boatId}",
		Summary:     "Update boat",
		Description: "Renames or archives a boat. A rename is copied to every trophy and winner of the club that references the boat",
		Tags:        []string{"Boats"},
	}, s.handleUpdateBoat)
}

// === DTOs ===

// ClubResponse contains club data in API responses.
type ClubResponse struct {
	ID          string    `json:"id" doc:"Club ID"`
	Name        string    `json:"name" doc:"Club name"`
	Description string    `json:"description,omitempty" doc:"Club description"`
	Public      bool      `json:"public" doc:"Whether anyone can see the club"`
	IsAdmin     bool      `json:"isAdmin" doc:"Whether the caller administers the club"`
	Admins      []string  `json:"admins,omitempty" doc:"Admin uids, only shown to admins"`
	CreatedAt   time.Time `json:"createdAt" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updatedAt" doc:"Last update time"`
}

// ClubOutput wraps the club response for Huma.
type ClubOutput struct {
	Body ClubResponse
}

// CreateClubRequest is the request body for creating a club.
type CreateClubRequest struct {
	Name        string `json:"name" minLength:"1" maxLength:"200" doc:"Club name"`
	Description string `json:"description,omitempty" maxLength:"2000" doc:"Club description"`
	Public      bool   `json:"public,omitempty" doc:"Whether anyone can see the club"`
}

// CreateClubInput wraps the create club request for Huma.
type CreateClubInput struct {
	Body CreateClubRequest
}

// GetClubInput contains parameters for getting a club.
type GetClubInput struct {
	ClubID string `path:"clubId" doc:"Club ID"`
}

// UpdateClubRequest is the request body for updating a club.
type UpdateClubRequest struct {
	Name        *string  `json:"name,omitempty" minLength:"1" maxLength:"200" doc:"Club name"`
	Description *string  `json:"description,omitempty" maxLength:"2000" doc:"Club description"`
	Public      *bool    `json:"public,omitempty" doc:"Whether anyone can see the club"`
	Admins      []string `json:"admins,omitempty" doc:"Replacement admin uids"`
}

// UpdateClubInput wraps the update club request for Huma.
type UpdateClubInput struct {
	ClubID string `path:"clubId" doc:"Club ID"`
	Body   UpdateClubRequest
}

// BoatResponse contains boat data in API responses.
type BoatResponse struct {
	ID        string    `json:"id" doc:"Boat ID"`
	ClubID    string    `json:"clubId" doc:"Owning club ID"`
	Name      string    `json:"name" doc:"Boat name"`
	Archived  bool      `json:"archived" doc:"Whether the boat is retired"`
	CreatedAt time.Time `json:"createdAt" doc:"Creation time"`
	UpdatedAt time.Time `json:"updatedAt" doc:"Last update time"`
}

// BoatOutput wraps the boat response for Huma.
type BoatOutput struct {
	Body BoatResponse
}

// ListBoatsResponse contains a list of boats.
type ListBoatsResponse struct {
	Boats []BoatResponse `json:"boats" doc:"Boats of the club"`
}

// ListBoatsOutput wraps the list boats response for Huma.
type ListBoatsOutput struct {
	Body ListBoatsResponse
}

// ListBoatsInput contains parameters for listing boats.
type ListBoatsInput struct {
	ClubID string `path:"clubId" doc:"Club ID"`
}

// CreateBoatRequest is the request body for creating a boat.
type CreateBoatRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"200" doc:"Boat name"`
}

// CreateBoatInput wraps the create boat request for Huma.
type CreateBoatInput struct {
	ClubID string `path:"clubId" doc:"Club ID"`
	Body   CreateBoatRequest
}

// UpdateBoatRequest is the request body for updating a boat.
type UpdateBoatRequest struct {
	Name     *string `json:"name,omitempty" minLength:"1" maxLength:"200" doc:"New boat name"`
	Archived *bool   `json:"archived,omitempty" doc:"Whether the boat is retired"`
}

// UpdateBoatInput wraps the update boat request for Huma.
type UpdateBoatInput struct {
	ClubID string `path:"clubId" doc:"Club ID"`
	BoatID string `path:"boatId" doc:"Boat ID"`
	Body   UpdateBoatRequest
}

// === Handlers ===

func (s *Server) handleCreateClub(ctx context.Context, input *CreateClubInput) (*ClubOutput, error) {
	viewer := viewerFrom(ctx)

	club, err := s.services.Clubs.CreateClub(ctx, viewer, service.CreateClubRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Public:      input.Body.Public,
	})
	if err != nil {
		return nil, err
	}

	return &ClubOutput{Body: clubResponse(club, viewer)}, nil
}

func (s *Server) handleGetClub(ctx context.Context, input *GetClubInput) (*ClubOutput, error) {
	viewer := viewerFrom(ctx)

	club, err := s.services.Clubs.GetClub(ctx, viewer, input.ClubID)
	if err != nil {
		return nil, err
	}

	return &ClubOutput{Body: clubResponse(club, viewer)}, nil
}

func (s *Server) handleUpdateClub(ctx context.Context, input *UpdateClubInput) (*ClubOutput, error) {
	viewer := viewerFrom(ctx)

	club, err := s.services.Clubs.UpdateClub(ctx, viewer, input.ClubID, service.UpdateClubRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Public:      input.Body.Public,
		Admins:      input.Body.Admins,
	})
	if err != nil {
		return nil, err
	}

	return &ClubOutput{Body: clubResponse(club, viewer)}, nil
}

func (s *Server) handleListBoats(ctx context.Context, input *ListBoatsInput) (*ListBoatsOutput, error) {
	boats, err := s.services.Clubs.ListBoats(ctx, viewerFrom(ctx), input.ClubID)
	if err != nil {
		return nil, err
	}

	resp := make([]BoatResponse, len(boats))
	for i, b := range boats {
		resp[i] = boatResponse(b)
	}

	return &ListBoatsOutput{Body: ListBoatsResponse{Boats: resp}}, nil
}

func (s *Server) handleCreateBoat(ctx context.Context, input *CreateBoatInput) (*BoatOutput, error) {
	boat, err := s.services.Clubs.CreateBoat(ctx, viewerFrom(ctx), input.ClubID, service.CreateBoatRequest{
		Name: input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &BoatOutput{Body: boatResponse(boat)}, nil
}

func (s *Server) handleUpdateBoat(ctx context.Context, input *UpdateBoatInput) (*BoatOutput, error) {
	boat, err := s.services.Clubs.UpdateBoat(ctx, viewerFrom(ctx), input.ClubID, input.BoatID, service.UpdateBoatRequest{
		Name:     input.Body.Name,
		Archived: input.Body.Archived,
	})
	if err != nil {
		return nil, err
	}

	return &BoatOutput{Body: boatResponse(boat)}, nil
}

func clubResponse(c *domain.Club, viewer domain.Viewer) ClubResponse {
	resp := ClubResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Public:      c.Public,
		IsAdmin:     c.AdminFor(viewer),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if resp.IsAdmin {
		resp.Admins = c.Admins
	}
	return resp
}

func boatResponse(b *domain.Boat) BoatResponse {
	return BoatResponse{
		ID:        b.ID,
		ClubID:    b.ClubID,
		Name:      b.Name,
		Archived:  b.Archived,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
