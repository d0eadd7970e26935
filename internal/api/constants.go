package api

// DefaultUIDHeader is the header the identity layer uses for the verified viewer uid.
const DefaultUIDHeader = "X-Verified-Uid"

// Cache-Control header values.
const (
	// Built result pages never change until they expire.
	CacheSearchResults = "private, max-age=300"
	CacheNoStore       = "no-store"
)
