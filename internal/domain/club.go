package domain

import "slices"

// Club is the tenant root. Boats, trophies and winners all belong to exactly one club.
type Club struct {
	Syncable
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Public      bool     `json:"public"`
	Admins      []string `json:"admins"`
}

// IsAdmin reports whether uid is one of the club's admins.
// An empty uid (anonymous viewer) is never an admin.
func (c *Club) IsAdmin(uid string) bool {
	if uid == "" {
		return false
	}
	return slices.Contains(c.Admins, uid)
}

// AdminFor reports whether the viewer has admin rights on this club.
func (c *Club) AdminFor(v Viewer) bool {
	return v.Unrestricted || c.IsAdmin(v.UID)
}

// VisibleTo reports whether the viewer may see this club at all.
func (c *Club) VisibleTo(v Viewer) bool {
	return c.Public || c.AdminFor(v)
}
