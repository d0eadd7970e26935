package domain

import "time"

// Search is an ephemeral request/response aggregate.
//
// The requester writes the filter fields. The fan-out builder fills in Clubs,
// Count and ExpireAfter once the result pages have been materialized.
type Search struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	// Filters. Empty means "no constraint on that field".
	UID      string `json:"uid,omitempty"`
	ClubID   string `json:"clubId,omitempty"`
	TrophyID string `json:"trophyId,omitempty"`
	Sail     string `json:"sail,omitempty"`
	BoatName string `json:"boatName,omitempty"`

	// Summary, present once the search has been built.
	Clubs       []SearchClubInfo `json:"clubs,omitempty"`
	Count       *int             `json:"count,omitempty"`
	ExpireAfter *time.Time       `json:"expireAfter,omitempty"`
	BuiltAt     *time.Time       `json:"builtAt,omitempty"`
}

// Viewer returns the viewer the search runs as.
func (s *Search) Viewer() Viewer {
	return User(s.UID)
}

// IsBuilt reports whether the result pages have been written.
func (s *Search) IsBuilt() bool {
	return s.Count != nil
}

// Pages returns the number of result pages for a built search.
func (s *Search) Pages(pageSize int) int {
	if s.Count == nil || pageSize <= 0 {
		return 0
	}
	return (*s.Count + pageSize - 1) / pageSize
}

// IsExpired reports whether the search is eligible for cleanup at now.
func (s *Search) IsExpired(now time.Time) bool {
	return s.ExpireAfter != nil && now.After(*s.ExpireAfter)
}

// SearchClubInfo is a visibility-scoped projection of a club.
type SearchClubInfo struct {
	ClubID   string             `json:"clubId"`
	Name     string             `json:"name"`
	IsAdmin  bool               `json:"isAdmin,omitempty"`
	Trophies []SearchTrophyInfo `json:"trophies"`
}

// HasTrophy reports whether trophyID is among the club's visible trophies.
func (c *SearchClubInfo) HasTrophy(trophyID string) bool {
	for _, t := range c.Trophies {
		if t.TrophyID == trophyID {
			return true
		}
	}
	return false
}

// SearchTrophyInfo is a visibility-scoped projection of a trophy.
type SearchTrophyInfo struct {
	TrophyID string `json:"trophyId"`
	Name     string `json:"name"`
}

// SearchResult is the projection of one winner written into a result page.
// Empty fields are omitted rather than written as null placeholders.
type SearchResult struct {
	Parent   WinnerParent `json:"parent"`
	Year     int          `json:"year,omitempty"`
	Sail     string       `json:"sail,omitempty"`
	Helm     string       `json:"helm,omitempty"`
	Crew     string       `json:"crew,omitempty"`
	Owner    string       `json:"owner,omitempty"`
	Name     string       `json:"name,omitempty"`
	BoatName string       `json:"boatName,omitempty"`
	Club     string       `json:"club,omitempty"`
}

// SearchResultList is one page (shard) of a search's results.
type SearchResultList struct {
	Page        int            `json:"page"`
	ExpireAfter time.Time      `json:"expireAfter"`
	Results     []SearchResult `json:"results"`
}
