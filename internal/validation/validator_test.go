package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/oobayly/club-trophies-webapp-sub000/internal/errors"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/validation"
)

type winnerRequest struct {
	TrophyID string `json:"trophyId" validate:"required,segment"`
	Name     string `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Year     int    `json:"year" validate:"gte=1700,lte=2200"`
	Sail     string `json:"sail,omitempty" validate:"max=20"`
}

func TestValidator_Valid(t *testing.T) {
	v := validation.New()

	err := v.Validate(winnerRequest{TrophyID: "trophy-1", Name: "Dinghy Cup", Year: 1998, Sail: "IRL 1234"})
	assert.NoError(t, err)
}

func TestValidator_Errors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       winnerRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing trophy",
			req:       winnerRequest{Year: 2000},
			wantField: "trophyId",
			wantMsg:   "is required",
		},
		{
			name:      "trophy id with slash",
			req:       winnerRequest{TrophyID: "a/b", Year: 2000},
			wantField: "trophyId",
			wantMsg:   "must not be empty or contain '/'",
		},
		{
			name:      "blank name",
			req:       winnerRequest{TrophyID: "t1", Name: "   ", Year: 2000},
			wantField: "name",
			wantMsg:   "must not be blank",
		},
		{
			name:      "year too early",
			req:       winnerRequest{TrophyID: "t1", Year: 1066},
			wantField: "year",
			wantMsg:   "must be greater than or equal to 1700",
		},
		{
			name:      "sail too long",
			req:       winnerRequest{TrophyID: "t1", Year: 2000, Sail: "IRL 1234567890123456789"},
			wantField: "sail",
			wantMsg:   "must not exceed 20 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_NonStruct(t *testing.T) {
	err := validation.New().Validate("not a struct")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainerrors.ErrValidation)
}

func TestIsSegment(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"club-abc", true},
		{"42", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, validation.IsSegment(tt.in))
		})
	}
}
