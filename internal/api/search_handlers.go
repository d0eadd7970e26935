package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createSearch",
		Method:        http.MethodPost,
		Path:          "/api/v1/searches",
		Summary:       "Create search",
		Description:   "Records a winner search. Results are built in the background; poll the search until it is ready",
		Tags:          []string{"Search"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleCreateSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSearch",
		Method:      http.MethodGet,
		Path:        "/api/v1/searches/{id}",
		Summary:     "Get search",
		Description: "Returns a search with its visible clubs and trophies once built",
		Tags:        []string{"Search"},
	}, s.handleGetSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSearchResults",
		Method:      http.MethodGet,
		Path:        "/api/v1/searches/{id}/results/{page}",
		Summary:     "Get search results",
		Description: "Returns one page of a built search, numbered from 0",
		Tags:        []string{"Search"},
	}, s.handleGetSearchResults)
}

// === DTOs ===

// CreateSearchRequest is the request body for a search. Omitted filters match everything.
type CreateSearchRequest struct {
	ClubID   string `json:"clubId,omitempty" doc:"Only winners of this club"`
	TrophyID string `json:"trophyId,omitempty" doc:"Only winners of this trophy"`
	Sail     string `json:"sail,omitempty" maxLength:"20" doc:"Exact sail number"`
	BoatName string `json:"boatName,omitempty" maxLength:"200" doc:"Exact boat name"`
}

// CreateSearchInput wraps the create search request for Huma.
type CreateSearchInput struct {
	Body CreateSearchRequest
}

// GetSearchInput contains parameters for getting a search.
type GetSearchInput struct {
	ID string `path:"id" doc:"Search ID"`
}

// SearchResponse contains search data in API responses.
type SearchResponse struct {
	ID          string                  `json:"id" doc:"Search ID"`
	CreatedAt   time.Time               `json:"createdAt" doc:"Creation time"`
	ClubID      string                  `json:"clubId,omitempty" doc:"Club filter"`
	TrophyID    string                  `json:"trophyId,omitempty" doc:"Trophy filter"`
	Sail        string                  `json:"sail,omitempty" doc:"Sail filter"`
	BoatName    string                  `json:"boatName,omitempty" doc:"Boat name filter"`
	Ready       bool                    `json:"ready" doc:"Whether the results have been built"`
	Count       int                     `json:"count" doc:"Number of matching winners"`
	Pages       int                     `json:"pages" doc:"Number of result pages"`
	ExpireAfter *time.Time              `json:"expireAfter,omitempty" doc:"When the results are removed"`
	Clubs       []domain.SearchClubInfo `json:"clubs,omitempty" doc:"Visible clubs and trophies of the results"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         SearchResponse
}

// GetSearchResultsInput contains parameters for getting a result page.
type GetSearchResultsInput struct {
	ID   string `path:"id" doc:"Search ID"`
	Page int    `path:"page" minimum:"0" doc:"Page number, from 0"`
}

// SearchResultsResponse contains one page of results.
type SearchResultsResponse struct {
	Page        int                   `json:"page" doc:"Page number"`
	Pages       int                   `json:"pages" doc:"Number of result pages"`
	ExpireAfter time.Time             `json:"expireAfter" doc:"When the results are removed"`
	Results     []domain.SearchResult `json:"results" doc:"Winners on this page"`
}

// SearchResultsOutput wraps the results response for Huma.
type SearchResultsOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         SearchResultsResponse
}

// === Handlers ===

func (s *Server) handleCreateSearch(ctx context.Context, input *CreateSearchInput) (*SearchOutput, error) {
	if err := s.allowSearch(ctx); err != nil {
		return nil, err
	}

	search, err := s.services.Searches.Create(ctx, viewerFrom(ctx), service.CreateSearchRequest{
		ClubID:   input.Body.ClubID,
		TrophyID: input.Body.TrophyID,
		Sail:     input.Body.Sail,
		BoatName: input.Body.BoatName,
	})
	if err != nil {
		return nil, err
	}

	return &SearchOutput{CacheControl: CacheNoStore, Body: s.searchResponse(search)}, nil
}

func (s *Server) handleGetSearch(ctx context.Context, input *GetSearchInput) (*SearchOutput, error) {
	search, err := s.services.Searches.Get(ctx, viewerFrom(ctx), input.ID)
	if err != nil {
		return nil, err
	}

	return &SearchOutput{CacheControl: CacheNoStore, Body: s.searchResponse(search)}, nil
}

func (s *Server) handleGetSearchResults(ctx context.Context, input *GetSearchResultsInput) (*SearchResultsOutput, error) {
	page, err := s.services.Searches.Results(ctx, viewerFrom(ctx), input.ID, input.Page)
	if err != nil {
		return nil, err
	}

	return &SearchResultsOutput{
		CacheControl: CacheSearchResults,
		Body: SearchResultsResponse{
			Page:        input.Page,
			Pages:       s.services.Searches.Pages(page.Search),
			ExpireAfter: page.List.ExpireAfter,
			Results:     page.List.Results,
		},
	}, nil
}

func (s *Server) searchResponse(search *domain.Search) SearchResponse {
	resp := SearchResponse{
		ID:          search.ID,
		CreatedAt:   search.CreatedAt,
		ClubID:      search.ClubID,
		TrophyID:    search.TrophyID,
		Sail:        search.Sail,
		BoatName:    search.BoatName,
		Ready:       search.IsBuilt(),
		ExpireAfter: search.ExpireAfter,
		Clubs:       search.Clubs,
	}
	if search.Count != nil {
		resp.Count = *search.Count
		resp.Pages = s.services.Searches.Pages(search)
	}
	return resp
}
