package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

func TestCommit_EmitsChanges(t *testing.T) {
	s, emitter := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx, store.Set("clubs/c1/boats/b1", testDoc{Name: "Laser"})))
	require.NoError(t, s.Commit(ctx, store.Update("clubs/c1/boats/b1", map[string]any{"name": "ILCA 6"})))
	require.NoError(t, s.Commit(ctx, store.Delete("clubs/c1/boats/b1")))

	changes := emitter.Changes()
	require.Len(t, changes, 3)

	assert.Equal(t, store.ChangeCreated, changes[0].Kind)
	assert.Nil(t, changes[0].Before)
	assert.Equal(t, "boats", changes[0].Group)

	assert.Equal(t, store.ChangeUpdated, changes[1].Kind)
	var before, after testDoc
	require.NoError(t, changes[1].Before.DataTo(&before))
	require.NoError(t, changes[1].After.DataTo(&after))
	assert.Equal(t, "Laser", before.Name)
	assert.Equal(t, "ILCA 6", after.Name)

	assert.Equal(t, store.ChangeDeleted, changes[2].Kind)
	assert.Nil(t, changes[2].After)
}

func TestCommit_UnchangedWriteIsDropped(t *testing.T) {
	s, emitter := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx, store.Set("clubs/c1", testDoc{Name: "Howth"})))
	require.NoError(t, s.Commit(ctx, store.Update("clubs/c1", map[string]any{"name": "Howth"})))
	require.NoError(t, s.Commit(ctx, store.Delete("clubs/missing")))

	assert.Len(t, emitter.Changes(), 1)
}

func TestCommit_UpdateNestedField(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	path := "clubs/c1/trophies/t1/winners/w1"
	require.NoError(t, s.Commit(ctx, store.Set(path, testDoc{Name: "A", Parent: &testOwner{ClubID: "c1"}})))
	require.NoError(t, s.Commit(ctx, store.Update(path, map[string]any{"parent.clubId": "c2"})))

	snaps, err := s.QueryGroup(ctx, "winners", store.Eq("parent.clubId", "c1"))
	require.NoError(t, err)
	assert.Empty(t, snaps)

	snaps, err = s.QueryGroup(ctx, "winners", store.Eq("parent.clubId", "c2"))
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	var got testDoc
	require.NoError(t, snaps[0].DataTo(&got))
	assert.Equal(t, "A", got.Name)
}

func TestCommit_UpdateMissingFails(t *testing.T) {
	s, emitter := setupTestStore(t)
	ctx := context.Background()

	err := s.Commit(ctx,
		store.Set("clubs/c1", testDoc{Name: "Howth"}),
		store.Update("clubs/c2", map[string]any{"name": "X"}),
	)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Nothing from the failed batch is visible.
	_, err = s.GetSnapshot(ctx, "clubs/c1")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, emitter.Changes())
}

func TestCommit_CreateExistingFails(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx, store.Create("searches/s1", testDoc{Name: "a"})))
	err := s.Commit(ctx, store.Create("searches/s1", testDoc{Name: "b"}))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestCommit_CheckPrecondition(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx,
		store.Set("clubs/c1/boats/b1", testDoc{Name: "ILCA 6"}),
		store.Set("clubs/c1/trophies/t1", testDoc{Name: "Cup", BoatID: "b1"}),
	))

	err := s.Commit(ctx,
		store.Check("clubs/c1/boats/b1", "name", "ILCA 7"),
		store.Update("clubs/c1/trophies/t1", map[string]any{"boatName": "ILCA 7"}),
	)
	require.ErrorIs(t, err, store.ErrPreconditionFailed)
	assert.True(t, store.IsTransient(err))

	snap, err := s.GetSnapshot(ctx, "clubs/c1/trophies/t1")
	require.NoError(t, err)
	_, ok := snap.Field("boatName")
	assert.False(t, ok)

	require.NoError(t, s.Commit(ctx,
		store.Check("clubs/c1/boats/b1", "name", "ILCA 6"),
		store.Update("clubs/c1/trophies/t1", map[string]any{"boatName": "ILCA 6"}),
	))
}

func TestCommit_CheckMissingDocumentFails(t *testing.T) {
	s, _ := setupTestStore(t)

	err := s.Commit(context.Background(), store.Check("clubs/c1/boats/b1", "name", "x"))
	require.ErrorIs(t, err, store.ErrPreconditionFailed)
}

func TestCommit_BatchLimit(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	writes := make([]store.Write, store.MaxBatchWrites+1)
	for i := range writes {
		writes[i] = store.Set(fmt.Sprintf("searches/s/results/%d", i), testDoc{Name: "x"})
	}

	err := s.Commit(ctx, writes...)
	require.ErrorIs(t, err, store.ErrBatchTooLarge)

	require.NoError(t, s.Commit(ctx, writes[:store.MaxBatchWrites]...))
	snaps, err := s.Query(ctx, "searches/s/results")
	require.NoError(t, err)
	assert.Len(t, snaps, store.MaxBatchWrites)
}

func TestCommit_InvalidInput(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		write store.Write
	}{
		{"collection path", store.Set("clubs", testDoc{})},
		{"empty segment", store.Set("clubs//boats/b1", testDoc{})},
		{"non-object document", store.Set("clubs/c1", "just a string")},
		{"empty update", store.Update("clubs/c1", nil)},
	}

	require.NoError(t, s.Commit(ctx, store.Set("clubs/c1", testDoc{Name: "Howth"})))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Commit(ctx, tt.write)
			require.ErrorIs(t, err, store.ErrInvalidInput)
		})
	}
}

func TestCommit_DeleteRemovesIndexes(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	path := "clubs/c1/trophies/t1/winners/w1"
	require.NoError(t, s.Commit(ctx, store.Set(path, testDoc{Name: "A", Sail: "1234"})))
	require.NoError(t, s.Commit(ctx, store.Delete(path)))

	snaps, err := s.QueryGroup(ctx, "winners", store.Eq("sail", "1234"))
	require.NoError(t, err)
	assert.Empty(t, snaps)

	snaps, err = s.QueryGroup(ctx, "winners")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestCommit_LaterWritesSeeEarlierOnes(t *testing.T) {
	s, emitter := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx,
		store.Set("clubs/c1", testDoc{Name: "Howth"}),
		store.Update("clubs/c1", map[string]any{"sail": "1"}),
		store.Check("clubs/c1", "sail", "1"),
	))

	changes := emitter.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, store.ChangeCreated, changes[0].Kind)

	var got testDoc
	require.NoError(t, s.Get(ctx, "clubs/c1", &got))
	assert.Equal(t, "1", got.Sail)
}
