// Package gather implements the two-phase lookup used in place of joins:
// collect foreign keys, fetch them in fixed-size groups, then merge.
package gather

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FetchFunc loads the values for one group of keys.
// Keys with no value are simply absent from the result.
type FetchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, error)

// Chunk splits items into consecutive groups of at most size items.
// A non-positive size yields a single group.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items}
	}

	groups := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		groups = append(groups, items[start:end:end])
	}
	return groups
}

// Unique removes items whose key was already seen, keeping first-seen order.
func Unique[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Fetch deduplicates keys, splits them into groups of size, runs one fetch per
// group concurrently and merges the results in group order.
//
// Values are deduplicated by valueKey so overlapping fetch results never
// produce duplicates. The first failing group cancels the others and its
// error is returned; no partial result is returned on failure.
func Fetch[K comparable, V any](ctx context.Context, keys []K, size int, fetch FetchFunc[K, V], valueKey func(V) K) ([]V, error) {
	keys = Unique(keys, func(k K) K { return k })
	groups := Chunk(keys, size)
	if len(groups) == 0 {
		return nil, nil
	}

	results := make([][]V, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		g.Go(func() error {
			values, err := fetch(gctx, group)
			if err != nil {
				return err
			}
			results[i] = values
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]V, 0, len(keys))
	for _, values := range results {
		merged = append(merged, values...)
	}
	return Unique(merged, valueKey), nil
}
