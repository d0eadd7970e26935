package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	domainerrors "github.com/oobayly/club-trophies-webapp-sub000/internal/errors"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/validation"
)

// SearchService records search requests and serves their built result pages.
// Building happens out of band, in the handler reacting to the new search.
type SearchService struct {
	base
	pageSize int
	now      func() time.Time
}

// NewSearchService creates a new search service. pageSize must match the
// builder's so page numbers line up.
func NewSearchService(s Store, v *validation.Validator, pageSize int, log *slog.Logger) *SearchService {
	return &SearchService{base: newBase(s, v, log), pageSize: pageSize, now: time.Now}
}

// CreateSearchRequest contains the search filters. Empty filters match everything.
type CreateSearchRequest struct {
	ClubID   string `json:"clubId,omitempty" validate:"omitempty,segment"`
	TrophyID string `json:"trophyId,omitempty" validate:"omitempty,segment"`
	Sail     string `json:"sail,omitempty" validate:"max=20"`
	BoatName string `json:"boatName,omitempty" validate:"max=200"`
}

// SearchPage is one page of a built search.
type SearchPage struct {
	Search *domain.Search
	List   *domain.SearchResultList
}

// Create records a search request running as viewer and returns it unbuilt.
func (s *SearchService) Create(ctx context.Context, viewer domain.Viewer, req CreateSearchRequest) (*domain.Search, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	search := &domain.Search{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		UID:       viewer.UID,
		ClubID:    req.ClubID,
		TrophyID:  req.TrophyID,
		Sail:      req.Sail,
		BoatName:  req.BoatName,
	}

	if err := s.store.Commit(ctx, store.Create(domain.SearchPath(search.ID), search)); err != nil {
		return nil, translate(err)
	}

	s.logger.Debug("search requested",
		slog.String(logger.KeySearchID, search.ID),
		slog.Bool("anonymous", viewer.UID == ""))
	return search, nil
}

// Get returns a search the viewer created. Searches of other viewers and
// expired searches are reported as missing.
func (s *SearchService) Get(ctx context.Context, viewer domain.Viewer, searchID string) (*domain.Search, error) {
	if _, err := uuid.Parse(searchID); err != nil {
		return nil, domainerrors.NotFoundf("search %q not found", searchID)
	}

	var search domain.Search
	if err := s.store.Get(ctx, domain.SearchPath(searchID), &search); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("search %q not found", searchID)
		}
		return nil, translate(err)
	}
	search.ID = searchID

	if !viewer.Unrestricted && search.UID != viewer.UID {
		return nil, domainerrors.NotFoundf("search %q not found", searchID)
	}
	if search.IsExpired(s.now()) {
		return nil, domainerrors.NotFoundf("search %q has expired", searchID)
	}
	return &search, nil
}

// Results returns one result page of a built search. Pages are numbered from 0.
func (s *SearchService) Results(ctx context.Context, viewer domain.Viewer, searchID string, page int) (*SearchPage, error) {
	search, err := s.Get(ctx, viewer, searchID)
	if err != nil {
		return nil, err
	}
	if !search.IsBuilt() {
		return nil, domainerrors.Unavailable("search results are not ready yet")
	}
	if *search.Count == 0 && page == 0 {
		empty := &domain.SearchResultList{Results: []domain.SearchResult{}}
		if search.ExpireAfter != nil {
			empty.ExpireAfter = *search.ExpireAfter
		}
		return &SearchPage{Search: search, List: empty}, nil
	}
	if page < 0 || page >= search.Pages(s.pageSize) {
		return nil, domainerrors.NotFoundf("page %d of search %q not found", page, searchID)
	}

	var list domain.SearchResultList
	if err := s.store.Get(ctx, domain.SearchResultPath(searchID, page), &list); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("page %d of search %q not found", page, searchID)
		}
		return nil, translate(err)
	}
	return &SearchPage{Search: search, List: &list}, nil
}

// Pages returns the number of result pages of a built search.
func (s *SearchService) Pages(search *domain.Search) int {
	return search.Pages(s.pageSize)
}
