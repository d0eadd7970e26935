package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/dgraph-io/badger/v4"
)

// Op is the kind of a single write.
type Op int

// Write operations.
const (
	OpSet Op = iota + 1
	OpCreate
	OpUpdate
	OpDelete
	OpCheck
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpCheck:
		return "check"
	default:
		return "unknown"
	}
}

// Write is one operation of an atomic batch.
type Write struct {
	Op     Op
	Path   string
	Data   any            // OpSet, OpCreate: the whole document
	Fields map[string]any // OpUpdate: dotted field paths to new values
	Field  string         // OpCheck
	Value  any            // OpCheck: expected value, nil for null or absent
}

// Set replaces (or creates) the document at path.
func Set(path string, data any) Write {
	return Write{Op: OpSet, Path: path, Data: data}
}

// Create creates the document at path, failing with ErrAlreadyExists if it exists.
func Create(path string, data any) Write {
	return Write{Op: OpCreate, Path: path, Data: data}
}

// Update merges fields into an existing document, failing with ErrNotFound if it is missing.
func Update(path string, fields map[string]any) Write {
	return Write{Op: OpUpdate, Path: path, Fields: fields}
}

// Delete removes the document at path. Deleting a missing document is not an error.
func Delete(path string) Write {
	return Write{Op: OpDelete, Path: path}
}

// Check asserts, at commit time, that field of the document at path equals value.
// The batch fails with ErrPreconditionFailed otherwise and nothing is written.
func Check(path, field string, value any) Write {
	return Write{Op: OpCheck, Path: path, Field: field, Value: value}
}

// docState tracks one document while a batch is applied.
type docState struct {
	before []byte
	fields map[string]any // nil when the document does not exist
	dirty  bool
}

// Commit applies writes atomically: either every write is applied or none is.
// Writes are applied in order, so later writes see earlier ones.
// Committed changes are emitted to the change emitter after the transaction.
func (s *Store) Commit(ctx context.Context, writes ...Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(writes) == 0 {
		return nil
	}
	if len(writes) > MaxBatchWrites {
		return ErrBatchTooLarge.WithMessage(fmt.Sprintf("batch of %d writes exceeds limit of %d", len(writes), MaxBatchWrites))
	}
	for _, w := range writes {
		if err := ValidateDocumentPath(w.Path); err != nil {
			return err
		}
	}

	var changes []Change
	err := s.db.Update(func(txn *badger.Txn) error {
		states := make(map[string]*docState)
		load := func(path string) (*docState, error) {
			if st, ok := states[path]; ok {
				return st, nil
			}
			data, err := readDoc(txn, path)
			if err != nil {
				return nil, err
			}
			st := &docState{before: data}
			if data != nil {
				if st.fields, err = decodeFields(data); err != nil {
					return nil, fmt.Errorf("decode %s: %w", path, err)
				}
			}
			states[path] = st
			return st, nil
		}

		for i, w := range writes {
			st, err := load(w.Path)
			if err != nil {
				return err
			}
			if err := apply(st, w); err != nil {
				return fmt.Errorf("write %d (%s %s): %w", i, w.Op, w.Path, err)
			}
		}

		var err error
		changes, err = s.persist(txn, states)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, badger.ErrConflict):
			return ErrConflict.WithCause(err)
		case errors.Is(err, badger.ErrTxnTooBig):
			return ErrBatchTooLarge.WithCause(err)
		}
		return err
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "batch committed",
		slog.Int("writes", len(writes)),
		slog.Int("changes", len(changes)),
	)

	emitter := s.currentEmitter()
	for _, c := range changes {
		emitter.Emit(c)
	}
	return nil
}

func apply(st *docState, w Write) error {
	switch w.Op {
	case OpCheck:
		if w.Field == "" {
			return ErrInvalidInput.WithMessage("check field is empty")
		}
		want, err := normalize(w.Value)
		if err != nil {
			return ErrInvalidInput.WithCause(err)
		}
		if st.fields == nil {
			return ErrPreconditionFailed.WithMessage("document does not exist")
		}
		if !matchesAll(st.fields, []Filter{{Field: w.Field, Value: want}}) {
			return ErrPreconditionFailed.WithMessage("field " + w.Field + " changed")
		}
		return nil

	case OpCreate:
		if st.fields != nil {
			return ErrAlreadyExists
		}
		fallthrough

	case OpSet:
		fields, err := toFields(w.Data)
		if err != nil {
			return err
		}
		st.fields = fields
		st.dirty = true
		return nil

	case OpUpdate:
		if st.fields == nil {
			return ErrNotFound
		}
		if len(w.Fields) == 0 {
			return ErrInvalidInput.WithMessage("update has no fields")
		}
		for _, field := range slices.Sorted(maps.Keys(w.Fields)) {
			v, err := normalize(w.Fields[field])
			if err != nil {
				return ErrInvalidInput.WithCause(fmt.Errorf("field %s: %w", field, err))
			}
			setField(st.fields, field, v)
		}
		st.dirty = true
		return nil

	case OpDelete:
		st.fields = nil
		st.dirty = true
		return nil

	default:
		return ErrInvalidInput.WithMessage("unknown write op")
	}
}

// toFields converts a document value to its generic JSON object form.
func toFields(data any) (map[string]any, error) {
	v, err := normalize(data)
	if err != nil {
		return nil, ErrInvalidInput.WithCause(err)
	}
	fields, ok := v.(map[string]any)
	if !ok {
		return nil, ErrInvalidInput.WithMessage("document must be a JSON object")
	}
	return fields, nil
}

// persist writes dirty documents with their group and index keys, in path order,
// and returns the resulting changes. Writes that leave a document unchanged are dropped.
func (s *Store) persist(txn *badger.Txn, states map[string]*docState) ([]Change, error) {
	var changes []Change
	for _, path := range slices.Sorted(maps.Keys(states)) {
		st := states[path]
		if !st.dirty {
			continue
		}

		var after []byte
		if st.fields != nil {
			var err error
			if after, err = json.Marshal(st.fields); err != nil {
				return nil, fmt.Errorf("encode %s: %w", path, err)
			}
		}

		if st.before == nil && after == nil {
			continue
		}

		group := CollectionGroup(path)
		var beforeFields map[string]any
		if st.before != nil {
			var err error
			if beforeFields, err = decodeFields(st.before); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
			if after != nil {
				if canonical, err := json.Marshal(beforeFields); err == nil && string(canonical) == string(after) {
					continue
				}
			}
			for _, key := range s.indexKeys(group, path, beforeFields) {
				if err := txn.Delete(key); err != nil {
					return nil, err
				}
			}
		}

		if after == nil {
			if err := txn.Delete(docKey(path)); err != nil {
				return nil, err
			}
			if err := txn.Delete(groupKey(group, path)); err != nil {
				return nil, err
			}
		} else {
			if err := txn.Set(docKey(path), after); err != nil {
				return nil, err
			}
			if err := txn.Set(groupKey(group, path), nil); err != nil {
				return nil, err
			}
			for _, key := range s.indexKeys(group, path, st.fields) {
				if err := txn.Set(key, nil); err != nil {
					return nil, err
				}
			}
		}

		change := Change{Path: path, Group: group}
		if st.before != nil {
			change.Before = newSnapshot(path, st.before)
		}
		if after != nil {
			change.After = newSnapshot(path, after)
		}
		switch {
		case change.Before == nil:
			change.Kind = ChangeCreated
		case change.After == nil:
			change.Kind = ChangeDeleted
		default:
			change.Kind = ChangeUpdated
		}
		if s.records(change) {
			if err := s.record(txn, &change); err != nil {
				return nil, err
			}
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// indexKeys returns the index entries of a document. Absent fields are indexed as null.
func (s *Store) indexKeys(group, path string, fields map[string]any) [][]byte {
	indexed := s.indexedFields(group)
	keys := make([][]byte, 0, len(indexed))
	for _, field := range indexed {
		v, _ := lookupField(fields, field)
		enc, ok := encodeIndexValue(v)
		if !ok {
			continue
		}
		keys = append(keys, indexKey(group, field, enc, path))
	}
	return keys
}
