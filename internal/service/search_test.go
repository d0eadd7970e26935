package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/access"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	domainerrors "github.com/oobayly/club-trophies-webapp-sub000/internal/errors"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/search"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

const testPageSize = 2

func setupSearchService(t *testing.T) (*SearchService, *ClubService, *search.Builder, *store.Store) {
	t.Helper()

	st, _ := setupStore(t)
	builder := search.NewBuilder(st, access.NewResolver(st, access.Options{}), search.Options{PageSize: testPageSize})
	return NewSearchService(st, nil, testPageSize, nil), NewClubService(st, nil, nil), builder, st
}

// build runs the fan-out builder the way the dispatcher would.
func build(t *testing.T, builder *search.Builder, st *store.Store, s *domain.Search) {
	t.Helper()
	writes, err := builder.OnSearchCreated(context.Background(), s)
	require.NoError(t, err)
	require.NoError(t, st.Commit(context.Background(), writes...))
}

func seedWinners(t *testing.T, clubs *ClubService, sails ...string) {
	t.Helper()
	ctx := context.Background()

	club := createClub(t, clubs, true)
	trophy, err := clubs.CreateTrophy(ctx, admin, club.ID, CreateTrophyRequest{Name: "Dinghy Cup", Public: true})
	require.NoError(t, err)
	for i, sail := range sails {
		_, err := clubs.CreateWinner(ctx, admin, club.ID, trophy.ID, CreateWinnerRequest{
			WinnerFields: WinnerFields{Year: 2000 + i, Sail: sail},
		})
		require.NoError(t, err)
	}
}

func TestSearch_CreateAndGet(t *testing.T) {
	svc, _, _, _ := setupSearchService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.User("uid-1"), CreateSearchRequest{Sail: "IRL 1234"})
	require.NoError(t, err)
	assert.Len(t, created.ID, 36)
	assert.Equal(t, "uid-1", created.UID)
	assert.False(t, created.IsBuilt())

	got, err := svc.Get(ctx, domain.User("uid-1"), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "IRL 1234", got.Sail)

	_, err = svc.Get(ctx, domain.User("uid-2"), created.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound, "searches are private to their creator")

	_, err = svc.Get(ctx, domain.Unrestricted(), created.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, domain.User("uid-1"), "not-a-uuid")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.Create(ctx, anon, CreateSearchRequest{ClubID: "a/b"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSearch_ResultsNotReady(t *testing.T) {
	svc, _, _, _ := setupSearchService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, anon, CreateSearchRequest{})
	require.NoError(t, err)

	_, err = svc.Results(ctx, anon, created.ID, 0)
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
}

func TestSearch_Results(t *testing.T) {
	svc, clubs, builder, st := setupSearchService(t)
	ctx := context.Background()

	seedWinners(t, clubs, "IRL 1", "IRL 1", "IRL 1", "IRL 2")

	created, err := svc.Create(ctx, anon, CreateSearchRequest{Sail: "IRL 1"})
	require.NoError(t, err)
	build(t, builder, st, created)

	got, err := svc.Get(ctx, anon, created.ID)
	require.NoError(t, err)
	require.True(t, got.IsBuilt())
	assert.Equal(t, 3, *got.Count)
	assert.Equal(t, 2, got.Pages(testPageSize))

	first, err := svc.Results(ctx, anon, created.ID, 0)
	require.NoError(t, err)
	assert.Len(t, first.List.Results, 2)

	second, err := svc.Results(ctx, anon, created.ID, 1)
	require.NoError(t, err)
	assert.Len(t, second.List.Results, 1)
	assert.Equal(t, "IRL 1", second.List.Results[0].Sail)

	_, err = svc.Results(ctx, anon, created.ID, 2)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = svc.Results(ctx, anon, created.ID, -1)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSearch_EmptyResults(t *testing.T) {
	svc, clubs, builder, st := setupSearchService(t)
	ctx := context.Background()

	seedWinners(t, clubs, "IRL 2")

	created, err := svc.Create(ctx, anon, CreateSearchRequest{Sail: "GBR 9"})
	require.NoError(t, err)
	build(t, builder, st, created)

	page, err := svc.Results(ctx, anon, created.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, page.List.Results)
	assert.NotNil(t, page.List.Results)
}

func TestSearch_Expired(t *testing.T) {
	svc, clubs, builder, st := setupSearchService(t)
	ctx := context.Background()

	seedWinners(t, clubs, "IRL 1")

	created, err := svc.Create(ctx, anon, CreateSearchRequest{})
	require.NoError(t, err)
	build(t, builder, st, created)

	svc.now = func() time.Time { return time.Now().Add(search.DefaultTTL + time.Hour) }

	_, err = svc.Get(ctx, anon, created.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
