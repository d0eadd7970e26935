package domain

// Trophy belongs to one club and holds the historical winners as a subcollection.
type Trophy struct {
	Syncable
	BoatReference
	ClubID      string `json:"clubId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Public      bool   `json:"public"`
}

// VisibleTo reports whether the trophy can be seen by a viewer whose admin status on
// the owning club is clubAdmin.
func (t *Trophy) VisibleTo(clubAdmin bool) bool {
	return clubAdmin || t.Public
}
