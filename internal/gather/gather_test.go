package gather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysN(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("k%02d", i)
	}
	return keys
}

func TestChunk(t *testing.T) {
	tests := []struct {
		n     int
		sizes []int
	}{
		{0, nil},
		{1, []int{1}},
		{10, []int{10}},
		{11, []int{10, 1}},
		{23, []int{10, 10, 3}},
		{30, []int{10, 10, 10}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			groups := Chunk(keysN(tt.n), 10)

			var sizes []int
			var flat []string
			for _, g := range groups {
				sizes = append(sizes, len(g))
				flat = append(flat, g...)
			}
			assert.Equal(t, tt.sizes, sizes)
			if tt.n > 0 {
				assert.Equal(t, keysN(tt.n), flat)
			}
		})
	}
}

func TestChunk_GroupsDoNotAlias(t *testing.T) {
	groups := Chunk(keysN(11), 10)
	require.Len(t, groups, 2)

	first := append(groups[0], "extra")
	assert.Equal(t, "extra", first[10])
	assert.Equal(t, "k10", groups[1][0])
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"b", "a", "b", "c", "a"}, func(s string) string { return s })
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

// recordingFetcher echoes every key back and records the groups it was called with.
type recordingFetcher struct {
	mu     sync.Mutex
	groups [][]string
}

func (f *recordingFetcher) fetch(_ context.Context, keys []string) ([]string, error) {
	f.mu.Lock()
	f.groups = append(f.groups, append([]string(nil), keys...))
	f.mu.Unlock()
	return append([]string(nil), keys...), nil
}

func TestFetch_BatchSplit(t *testing.T) {
	identity := func(s string) string { return s }

	for _, n := range []int{0, 1, 10, 11, 23} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			f := &recordingFetcher{}
			keys := keysN(n)

			got, err := Fetch(context.Background(), keys, 10, f.fetch, identity)
			require.NoError(t, err)

			assert.ElementsMatch(t, keys, got)
			assert.Len(t, got, n, "no duplicates and no omissions")
			assert.Len(t, f.groups, (n+9)/10)
			for _, g := range f.groups {
				assert.LessOrEqual(t, len(g), 10)
			}
		})
	}
}

func TestFetch_DeduplicatesKeysAndValues(t *testing.T) {
	f := &recordingFetcher{}
	keys := append(keysN(12), keysN(12)...)

	got, err := Fetch(context.Background(), keys, 10, f.fetch, func(s string) string { return s })
	require.NoError(t, err)
	assert.Equal(t, keysN(12), got)
	assert.Len(t, f.groups, 2)
}

func TestFetch_MissingValuesAreSkipped(t *testing.T) {
	fetch := func(_ context.Context, keys []string) ([]string, error) {
		var out []string
		for _, k := range keys {
			if k != "k03" {
				out = append(out, k)
			}
		}
		return out, nil
	}

	got, err := Fetch(context.Background(), keysN(5), 2, fetch, func(s string) string { return s })
	require.NoError(t, err)
	assert.Equal(t, []string{"k00", "k01", "k02", "k04"}, got)
}

func TestFetch_Error(t *testing.T) {
	boom := errors.New("lookup failed")
	fetch := func(_ context.Context, keys []string) ([]string, error) {
		if keys[0] == "k10" {
			return nil, boom
		}
		return keys, nil
	}

	got, err := Fetch(context.Background(), keysN(23), 10, fetch, func(s string) string { return s })
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}
