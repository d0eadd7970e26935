package store

import (
	"strings"
)

// Document paths alternate collection and document segments:
// "clubs/c1" is a document, "clubs/c1/trophies" is a collection,
// "clubs/c1/trophies/t1" is a document in the "trophies" group.

func segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func validSegments(parts []string) bool {
	for _, p := range parts {
		if p == "" || strings.ContainsRune(p, 0) {
			return false
		}
	}
	return len(parts) > 0
}

// ValidateDocumentPath reports whether path names a document.
func ValidateDocumentPath(path string) error {
	parts := segments(path)
	if !validSegments(parts) || len(parts)%2 != 0 {
		return ErrInvalidInput.WithMessage("invalid document path: " + path)
	}
	return nil
}

// ValidateCollectionPath reports whether path names a collection.
func ValidateCollectionPath(path string) error {
	parts := segments(path)
	if !validSegments(parts) || len(parts)%2 != 1 {
		return ErrInvalidInput.WithMessage("invalid collection path: " + path)
	}
	return nil
}

// DocumentID returns the last segment of a document path.
func DocumentID(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ParentCollection returns the collection path a document lives in.
func ParentCollection(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}

// CollectionGroup returns the name of the collection a document lives in.
func CollectionGroup(path string) string {
	return DocumentID(ParentCollection(path))
}

// PrefixEnd returns the smallest string greater than every string with the given prefix.
// Use it as the exclusive end of a prefix range scan.
func PrefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}
