package domain

// Boat is canonical reference data owned by a single club.
// Boats are renamed or archived, never hard-deleted.
type Boat struct {
	Syncable
	ClubID   string `json:"clubId"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// Reference returns a BoatReference carrying the boat's current name.
func (b *Boat) Reference() BoatReference {
	return BoatReference{BoatID: b.ID, BoatName: b.Name}
}

// BoatReference is the denormalized copy of a boat embedded in trophies and winners.
// BoatName caches Boat.Name as of the last propagation; empty fields mean null.
type BoatReference struct {
	BoatID   string `json:"boatId,omitempty"`
	BoatName string `json:"boatName,omitempty"`
}

// References reports whether the reference points at the given boat.
func (r BoatReference) References(boatID string) bool {
	return boatID != "" && r.BoatID == boatID
}

// IsStale reports whether the cached name differs from the boat's current name.
func (r BoatReference) IsStale(currentName string) bool {
	return r.BoatName != currentName
}
