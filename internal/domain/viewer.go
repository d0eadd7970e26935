package domain

// Viewer identifies who is reading tenant data.
//
// The UID comes from the external identity layer and is trusted as-is.
// An empty UID is an anonymous viewer. Unrestricted viewers bypass every
// visibility rule and are only used by internal tooling.
type Viewer struct {
	UID          string
	Unrestricted bool
}

// Anonymous returns a viewer with no identity.
func Anonymous() Viewer {
	return Viewer{}
}

// User returns a viewer for the given uid. An empty uid yields an anonymous viewer.
func User(uid string) Viewer {
	return Viewer{UID: uid}
}

// Unrestricted returns a viewer that sees everything.
func Unrestricted() Viewer {
	return Viewer{Unrestricted: true}
}

// IsAnonymous reports whether the viewer has no identity and no override.
func (v Viewer) IsAnonymous() bool {
	return v.UID == "" && !v.Unrestricted
}
