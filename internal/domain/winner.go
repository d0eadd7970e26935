package domain

// WinnerParent locates a winner inside its club and trophy.
type WinnerParent struct {
	ClubID   string `json:"clubId"`
	TrophyID string `json:"trophyId"`
}

// Winner is one historical result of a trophy.
type Winner struct {
	Syncable
	BoatReference
	Parent WinnerParent `json:"parent"`
	Year   int          `json:"year,omitempty"`
	Sail   string       `json:"sail,omitempty"`
	Helm   string       `json:"helm,omitempty"`
	Crew   string       `json:"crew,omitempty"`
	Owner  string       `json:"owner,omitempty"`
	Name   string       `json:"name,omitempty"`
	Notes  string       `json:"notes,omitempty"`
	// Suppress hides the record from non-admin search results without deleting it.
	Suppress bool `json:"suppress,omitempty"`
}
