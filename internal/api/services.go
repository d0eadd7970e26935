package api

import (
	"github.com/oobayly/club-trophies-webapp-sub000/internal/service"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Clubs    *service.ClubService
	Searches *service.SearchService
}
