package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/gather"
)

// Get decodes the document at path into dest.
// Returns ErrNotFound if the document does not exist.
func (s *Store) Get(ctx context.Context, path string, dest any) error {
	snap, err := s.GetSnapshot(ctx, path)
	if err != nil {
		return err
	}
	return snap.DataTo(dest)
}

// GetSnapshot returns the document at path.
// Returns ErrNotFound if the document does not exist.
func (s *Store) GetSnapshot(ctx context.Context, path string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateDocumentPath(path); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		data, err = readDoc(txn, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound.WithMessage("document not found: " + path)
	}
	return newSnapshot(path, data), nil
}

// GetIn returns the documents of one collection whose ids are in ids.
//
// This is the identifier-set lookup: at most MaxInValues ids are accepted.
// Missing documents are skipped. Results are in path order.
func (s *Store) GetIn(ctx context.Context, collection string, ids []string) ([]*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	if len(ids) > MaxInValues {
		return nil, ErrTooManyKeys.WithMessage(fmt.Sprintf("lookup of %d ids exceeds limit of %d", len(ids), MaxInValues))
	}

	paths := make([]string, 0, len(ids))
	for _, id := range ids {
		path := collection + "/" + id
		if err := ValidateDocumentPath(path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)

	snaps := make([]*Snapshot, 0, len(paths))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, path := range paths {
			data, err := readDoc(txn, path)
			if err != nil {
				return err
			}
			if data == nil {
				continue
			}
			snaps = append(snaps, newSnapshot(path, data))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

// GetByKeys returns the documents of one collection with the given ids,
// splitting the ids into groups of MaxInValues internally.
func (s *Store) GetByKeys(ctx context.Context, collection string, ids []string) ([]*Snapshot, error) {
	return gather.Fetch(ctx, ids, MaxInValues,
		func(ctx context.Context, group []string) ([]*Snapshot, error) {
			return s.GetIn(ctx, collection, group)
		},
		func(snap *Snapshot) string { return snap.ID() },
	)
}

// Query returns the direct children of collection matching every filter.
func (s *Store) Query(ctx context.Context, collection string, filters ...Filter) ([]*Snapshot, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	prefix := collection + "/"
	return s.scan(ctx, scanSpec{
		group:   DocumentID(collection),
		start:   prefix,
		end:     PrefixEnd(prefix),
		within:  func(path string) bool { return ParentCollection(path) == collection },
		filters: filters,
	})
}

// QueryGroup returns every document of a collection group matching every filter,
// regardless of the parent document.
func (s *Store) QueryGroup(ctx context.Context, group string, filters ...Filter) ([]*Snapshot, error) {
	return s.scan(ctx, scanSpec{group: group, filters: filters})
}

// QueryGroupRange is QueryGroup bounded to document paths in [start, end).
// An empty end means no upper bound.
func (s *Store) QueryGroupRange(ctx context.Context, group, start, end string, filters ...Filter) ([]*Snapshot, error) {
	return s.scan(ctx, scanSpec{group: group, start: start, end: end, filters: filters})
}

type scanSpec struct {
	group   string
	start   string // inclusive lower path bound
	end     string // exclusive upper path bound, empty for none
	within  func(path string) bool
	filters []Filter
}

// scan walks candidate paths in path order and returns the documents that
// match every filter. The first indexed filter narrows the candidates; all
// filters are re-checked against the decoded document.
func (s *Store) scan(ctx context.Context, spec scanSpec) ([]*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec.group == "" || strings.ContainsAny(spec.group, "/\x00") {
		return nil, ErrInvalidInput.WithMessage("invalid collection group: " + spec.group)
	}

	filters, err := normalizeFilters(spec.filters)
	if err != nil {
		return nil, err
	}

	prefix := groupScanPrefix(spec.group)
	for _, f := range filters {
		if !slices.Contains(s.indexedFields(spec.group), f.Field) {
			continue
		}
		if enc, ok := encodeIndexValue(f.Value); ok {
			prefix = indexScanPrefix(spec.group, f.Field, enc)
			break
		}
	}

	var snaps []*Snapshot
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Only need keys
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix + spec.start)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			path := string(it.Item().Key()[len(prefix):])
			if spec.end != "" && path >= spec.end {
				break
			}
			if spec.within != nil && !spec.within(path) {
				continue
			}

			data, err := readDoc(txn, path)
			if err != nil {
				return err
			}
			if data == nil {
				// Dangling index entry; the document is gone.
				continue
			}

			if len(filters) > 0 {
				fields, err := decodeFields(data)
				if err != nil {
					return fmt.Errorf("decode %s: %w", path, err)
				}
				if !matchesAll(fields, filters) {
					continue
				}
			}

			snaps = append(snaps, newSnapshot(path, data))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snaps, nil
}
