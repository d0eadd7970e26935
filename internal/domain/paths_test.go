package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, "clubs/c1", ClubPath("c1"))
	assert.Equal(t, "clubs/c1/", ClubPrefix("c1"))
	assert.Equal(t, "clubs/c1/boats/b1", BoatPath("c1", "b1"))
	assert.Equal(t, "clubs/c1/trophies/t1", TrophyPath("c1", "t1"))
	assert.Equal(t, "clubs/c1/trophies/t1/winners/w1", WinnerPath("c1", "t1", "w1"))
	assert.Equal(t, "searches/s1", SearchPath("s1"))
	assert.Equal(t, "searches/s1/results/0", SearchResultPath("s1", 0))
	assert.Equal(t, "searches/s1/results/12", SearchResultPath("s1", 12))
}

func TestParseBoatPath(t *testing.T) {
	clubID, boatID, ok := ParseBoatPath("clubs/c1/boats/b1")
	assert.True(t, ok)
	assert.Equal(t, "c1", clubID)
	assert.Equal(t, "b1", boatID)

	for _, path := range []string{"clubs/c1", "clubs/c1/trophies/t1", "searches/s1/boats/b1", ""} {
		_, _, ok := ParseBoatPath(path)
		assert.False(t, ok, path)
	}
}

func TestParseSearchPath(t *testing.T) {
	id, ok := ParseSearchPath("searches/s1")
	assert.True(t, ok)
	assert.Equal(t, "s1", id)

	_, ok = ParseSearchPath("searches/s1/results/0")
	assert.False(t, ok)
}

func TestSearch_Pages(t *testing.T) {
	count := func(n int) *int { return &n }

	assert.Equal(t, 0, (&Search{}).Pages(100))
	assert.Equal(t, 0, (&Search{Count: count(0)}).Pages(100))
	assert.Equal(t, 1, (&Search{Count: count(100)}).Pages(100))
	assert.Equal(t, 2, (&Search{Count: count(101)}).Pages(100))
	assert.Equal(t, 3, (&Search{Count: count(250)}).Pages(100))
}

func TestParseWinnerPath(t *testing.T) {
	parent, id, ok := ParseWinnerPath("clubs/c1/trophies/t1/winners/w1")
	assert.True(t, ok)
	assert.Equal(t, WinnerParent{ClubID: "c1", TrophyID: "t1"}, parent)
	assert.Equal(t, "w1", id)

	_, _, ok = ParseWinnerPath("clubs/c1/boats/b1/winners/w1")
	assert.False(t, ok)
	_, _, ok = ParseWinnerPath("clubs/c1/trophies/t1")
	assert.False(t, ok)
}
