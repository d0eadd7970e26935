// Package id generates record identifiers for clubs and the records below them.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Kind is the prefix that tells a reader which collection an id belongs to.
type Kind string

// Record kinds.
const (
	Club   Kind = "club"
	Boat   Kind = "boat"
	Trophy Kind = "trophy"
	Winner Kind = "win"
)

// Generate creates a prefixed id, e.g. "boat-V1StGXR8_Z5jdHi6B-myT".
// NanoIDs are URL-safe and never contain a path separator, so they are valid
// document path segments. It fails only when the system runs out of entropy.
func Generate(kind Kind) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return string(kind) + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Only for tooling and seed data.
func MustGenerate(kind Kind) string {
	id, err := Generate(kind)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// KindOf returns the kind prefix of a generated id.
func KindOf(id string) (Kind, bool) {
	prefix, _, ok := strings.Cut(id, "-")
	if !ok {
		return "", false
	}
	switch k := Kind(prefix); k {
	case Club, Boat, Trophy, Winner:
		return k, true
	default:
		return "", false
	}
}
