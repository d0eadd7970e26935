package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

func TestValidatePaths(t *testing.T) {
	assert.NoError(t, store.ValidateDocumentPath("clubs/c1"))
	assert.NoError(t, store.ValidateDocumentPath("clubs/c1/trophies/t1/winners/w1"))
	assert.Error(t, store.ValidateDocumentPath("clubs"))
	assert.Error(t, store.ValidateDocumentPath(""))
	assert.Error(t, store.ValidateDocumentPath("clubs/"))

	assert.NoError(t, store.ValidateCollectionPath("clubs"))
	assert.NoError(t, store.ValidateCollectionPath("clubs/c1/boats"))
	assert.Error(t, store.ValidateCollectionPath("clubs/c1"))
}

func TestPathHelpers(t *testing.T) {
	path := "clubs/c1/trophies/t1/winners/w1"

	assert.Equal(t, "w1", store.DocumentID(path))
	assert.Equal(t, "clubs/c1/trophies/t1/winners", store.ParentCollection(path))
	assert.Equal(t, "winners", store.CollectionGroup(path))
	assert.Equal(t, "clubs", store.CollectionGroup("clubs/c1"))
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, "clubs/c10", store.PrefixEnd("clubs/c1/"))
	assert.Equal(t, "b", store.PrefixEnd("a"))
	assert.Equal(t, "", store.PrefixEnd(""))
	assert.Equal(t, "a", store.PrefixEnd("a\xff"))
}
