package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/domain"
	domainerrors "github.com/oobayly/club-trophies-webapp-sub000/internal/errors"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

type recordingEmitter struct {
	mu      sync.Mutex
	changes []store.Change
}

func (r *recordingEmitter) Emit(c store.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recordingEmitter) find(path string, kind store.ChangeKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.changes {
		if c.Path == path && c.Kind == kind {
			return true
		}
	}
	return false
}

func setupStore(t *testing.T) (*store.Store, *recordingEmitter) {
	t.Helper()

	emitter := &recordingEmitter{}
	st, err := store.Open(store.Options{
		InMemory: true,
		Indexes:  domain.IndexedFields(),
		Emitter:  emitter,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, emitter
}

func setupClubService(t *testing.T) (*ClubService, *store.Store, *recordingEmitter) {
	t.Helper()
	st, emitter := setupStore(t)
	return NewClubService(st, nil, nil), st, emitter
}

var (
	admin    = domain.User("uid-admin")
	stranger = domain.User("uid-stranger")
	anon     = domain.Anonymous()
)

func createClub(t *testing.T, svc *ClubService, public bool) *domain.Club {
	t.Helper()
	club, err := svc.CreateClub(context.Background(), admin, CreateClubRequest{Name: "Royal Cork", Public: public})
	require.NoError(t, err)
	return club
}

func ptr[T any](v T) *T { return &v }

func TestCreateClub(t *testing.T) {
	svc, _, _ := setupClubService(t)
	ctx := context.Background()

	club := createClub(t, svc, true)
	assert.NotEmpty(t, club.ID)
	assert.Equal(t, []string{"uid-admin"}, club.Admins)

	got, err := svc.GetClub(ctx, anon, club.ID)
	require.NoError(t, err)
	assert.Equal(t, "Royal Cork", got.Name)
	assert.True(t, got.IsAdmin("uid-admin"))
}

func TestCreateClub_Errors(t *testing.T) {
	svc, _, _ := setupClubService(t)
	ctx := context.Background()

	_, err := svc.CreateClub(ctx, anon, CreateClubRequest{Name: "Anon Club"})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = svc.CreateClub(ctx, admin, CreateClubRequest{Name: "  "})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestGetClub_Visibility(t *testing.T) {
	svc, _, _ := setupClubService(t)
	ctx := context.Background()

	private := createClub(t, svc, false)
	public := createClub(t, svc, true)

	tests := []struct {
		name    string
		viewer  domain.Viewer
		clubID  string
		wantErr error
	}{
		{"admin sees private club", admin, private.ID, nil},
		{"unrestricted sees private club", domain.Unrestricted(), private.ID, nil},
		{"stranger gets not found for private club", stranger, private.ID, domainerrors.ErrNotFound},
		{"anonymous gets not found for private club", anon, private.ID, domainerrors.ErrNotFound},
		{"anonymous sees public club", anon, public.ID, nil},
		{"missing club", admin, "club-missing", domainerrors.ErrNotFound},
		{"path-like id", admin, "a/b", domainerrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetClub(ctx, tt.viewer, tt.clubID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestUpdateClub(t *testing.T) {
	svc, _, _ := setupClubService(t)
	ctx := context.Background()

	public := createClub(t, svc, true)
	private := createClub(t, svc, false)

	_, err := svc.UpdateClub(ctx, stranger, public.ID, UpdateClubRequest{Name: ptr("Hijacked")})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = svc.UpdateClub(ctx, stranger, private.ID, UpdateClubRequest{Name: ptr("Hijacked")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound, "private clubs stay hidden from non-admins")

	_, err = svc.UpdateClub(ctx, anon, public.ID, UpdateClubRequest{Name: ptr("Hijacked")})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	updated, err := svc.UpdateClub(ctx, admin, private.ID, UpdateClubRequest{
		Public: ptr(true),
		Admins: []string{"uid-admin", "uid-2", "uid-admin"},
	})
	require.NoError(t, err)
	assert.True(t, updated.Public)
	assert.Equal(t, []string{"uid-2", "uid-admin"}, updated.Admins)

	got, err := svc.GetClub(ctx, domain.User("uid-2"), private.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin("uid-2"))
	assert.Equal(t, "Royal Cork", got.Name)

	_, err = svc.UpdateClub(ctx, admin, private.ID, UpdateClubRequest{Admins: []string{}})
	assert.ErrorIs(t, err, domainerrors.ErrValidation, "a club keeps at least one admin")
}

func TestBoats(t *testing.T) {
	svc, _, emitter := setupClubService(t)
	ctx := context.Background()

	club := createClub(t, svc, true)

	_, err := svc.CreateBoat(ctx, stranger, club.ID, CreateBoatRequest{Name: "Mary Rose"})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	boat, err := svc.CreateBoat(ctx, admin, club.ID, CreateBoatRequest{Name: "Mary Rose"})
	require.NoError(t, err)
	_, err = svc.CreateBoat(ctx, admin, club.ID, CreateBoatRequest{Name: "Aurora"})
	require.NoError(t, err)

	boats, err := svc.ListBoats(ctx, anon, club.ID)
	require.NoError(t, err)
	require.Len(t, boats, 2)
	for _, b := range boats {
		assert.Equal(t, club.ID, b.ClubID)
		assert.NotEmpty(t, b.ID)
	}

	renamed, err := svc.UpdateBoat(ctx, admin, club.ID, boat.ID, UpdateBoatRequest{Name: ptr("Mary Rose II")})
	require.NoError(t, err)
	assert.Equal(t, "Mary Rose II", renamed.Name)
	assert.True(t, emitter.find(domain.BoatPath(club.ID, boat.ID), store.ChangeUpdated))

	archived, err := svc.UpdateBoat(ctx, admin, club.ID, boat.ID, UpdateBoatRequest{Archived: ptr(true)})
	require.NoError(t, err)
	assert.True(t, archived.Archived)
	assert.Equal(t, "Mary Rose II", archived.Name)

	_, err = svc.UpdateBoat(ctx, admin, club.ID, "boat-missing", UpdateBoatRequest{Name: ptr("Ghost")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTrophy_CachesBoatName(t *testing.T) {
	svc, st, _ := setupClubService(t)
	ctx := context.Background()

	club := createClub(t, svc, true)
	other := createClub(t, svc, true)
	boat, err := svc.CreateBoat(ctx, admin, club.ID, CreateBoatRequest{Name: "Mary Rose"})
	require.NoError(t, err)
	foreign, err := svc.CreateBoat(ctx, admin, other.ID, CreateBoatRequest{Name: "Aurora"})
	require.NoError(t, err)

	trophy, err := svc.CreateTrophy(ctx, admin, club.ID, CreateTrophyRequest{Name: "Dinghy Cup", Public: true, BoatID: boat.ID})
	require.NoError(t, err)
	assert.Equal(t, "Mary Rose", trophy.BoatName)

	var stored domain.Trophy
	require.NoError(t, st.Get(ctx, domain.TrophyPath(club.ID, trophy.ID), &stored))
	assert.Equal(t, boat.ID, stored.BoatID)
	assert.Equal(t, "Mary Rose", stored.BoatName)

	_, err = svc.CreateTrophy(ctx, admin, club.ID, CreateTrophyRequest{Name: "Keelboat Cup", BoatID: foreign.ID})
	assert.ErrorIs(t, err, domainerrors.ErrValidation, "boats of another club cannot be referenced")

	cleared, err := svc.UpdateTrophy(ctx, admin, club.ID, trophy.ID, UpdateTrophyRequest{BoatID: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, cleared.BoatID)

	stored = domain.Trophy{}
	require.NoError(t, st.Get(ctx, domain.TrophyPath(club.ID, trophy.ID), &stored))
	assert.Empty(t, stored.BoatID)
	assert.Empty(t, stored.BoatName)
	assert.Equal(t, "Dinghy Cup", stored.Name)
}

func TestWinners(t *testing.T) {
	svc, st, _ := setupClubService(t)
	ctx := context.Background()

	club := createClub(t, svc, true)
	boat, err := svc.CreateBoat(ctx, admin, club.ID, CreateBoatRequest{Name: "Mary Rose"})
	require.NoError(t, err)
	trophy, err := svc.CreateTrophy(ctx, admin, club.ID, CreateTrophyRequest{Name: "Dinghy Cup", Public: true})
	require.NoError(t, err)

	_, err = svc.CreateWinner(ctx, admin, club.ID, "trophy-missing", CreateWinnerRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.CreateWinner(ctx, admin, club.ID, trophy.ID, CreateWinnerRequest{WinnerFields: WinnerFields{Year: 1066}})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	winner, err := svc.CreateWinner(ctx, admin, club.ID, trophy.ID, CreateWinnerRequest{
		WinnerFields: WinnerFields{Year: 1998, Sail: "IRL 1234", Helm: "J. Murphy"},
		BoatID:       boat.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.WinnerParent{ClubID: club.ID, TrophyID: trophy.ID}, winner.Parent)
	assert.Equal(t, "Mary Rose", winner.BoatName)

	indexed, err := st.QueryGroup(ctx, domain.CollectionWinners, store.Eq("parent.clubId", club.ID), store.Eq("sail", "IRL 1234"))
	require.NoError(t, err)
	require.Len(t, indexed, 1)
	assert.Equal(t, winner.ID, indexed[0].ID())

	updated, err := svc.UpdateWinner(ctx, admin, club.ID, trophy.ID, winner.ID, UpdateWinnerRequest{
		Suppress: ptr(true),
		Helm:     ptr(""),
	})
	require.NoError(t, err)
	assert.True(t, updated.Suppress)
	assert.Empty(t, updated.Helm)
	assert.Equal(t, "IRL 1234", updated.Sail)

	var stored domain.Winner
	require.NoError(t, st.Get(ctx, domain.WinnerPath(club.ID, trophy.ID, winner.ID), &stored))
	assert.True(t, stored.Suppress)
	assert.Empty(t, stored.Helm)
	assert.Equal(t, 1998, stored.Year)

	_, err = svc.UpdateWinner(ctx, stranger, club.ID, trophy.ID, winner.ID, UpdateWinnerRequest{Suppress: ptr(false)})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want domainerrors.Code
	}{
		{"not found", store.ErrNotFound, domainerrors.CodeNotFound},
		{"already exists", store.ErrAlreadyExists, domainerrors.CodeAlreadyExists},
		{"invalid input", store.ErrInvalidInput, domainerrors.CodeValidation},
		{"too many keys", store.ErrTooManyKeys, domainerrors.CodeValidation},
		{"precondition", store.ErrPreconditionFailed, domainerrors.CodeConflict},
		{"conflict", store.ErrConflict, domainerrors.CodeConflict},
		{"canceled", context.Canceled, domainerrors.CodeUnavailable},
		{"domain error passes through", domainerrors.Forbiddenf("no"), domainerrors.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domainerrors.CodeOf(translate(tt.in)))
		})
	}

	assert.NoError(t, translate(nil))
}
