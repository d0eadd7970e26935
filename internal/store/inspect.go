package store

import (
	"context"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// GroupStat summarizes one collection group.
type GroupStat struct {
	Group   string
	Count   int
	Samples []string // first paths in path order
}

// Ping verifies the database is open and readable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// StreamDocuments returns an iterator over every document, in path order.
// Iteration stops at the first error, which is yielded.
func (s *Store) StreamDocuments(ctx context.Context) iter.Seq2[*Snapshot, error] {
	return func(yield func(*Snapshot, error) bool) {
		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(docPrefix)

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				path := string(it.Item().Key()[len(docPrefix):])
				data, err := it.Item().ValueCopy(nil)
				if err != nil {
					return err
				}
				if !yield(newSnapshot(path, data), nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

// GroupStats counts the documents of every collection group from the group
// membership keys, keeping up to samples paths per group. Values are not read.
func (s *Store) GroupStats(ctx context.Context, samples int) ([]GroupStat, error) {
	stats := make(map[string]*GroupStat)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(groupPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			group, path, ok := strings.Cut(string(it.Item().Key()[len(groupPrefix):]), sep)
			if !ok {
				continue
			}
			st, ok := stats[group]
			if !ok {
				st = &GroupStat{Group: group}
				stats[group] = st
			}
			st.Count++
			if len(st.Samples) < samples {
				st.Samples = append(st.Samples, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]GroupStat, 0, len(stats))
	for _, group := range slices.Sorted(maps.Keys(stats)) {
		out = append(out, *stats[group])
	}
	return out, nil
}
