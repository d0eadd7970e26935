package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

// outboxEntry is the stored form of a recorded change.
type outboxEntry struct {
	Kind   ChangeKind `json:"kind"`
	Path   string     `json:"path"`
	Before []byte     `json:"before,omitempty"`
	After  []byte     `json:"after,omitempty"`
}

// records reports whether changes like c are kept in the outbox until acknowledged.
func (s *Store) records(c Change) bool {
	for _, kind := range s.outbox[c.Group] {
		if kind == c.Kind {
			return true
		}
	}
	return false
}

// record writes c to the outbox inside txn and assigns its sequence number.
func (s *Store) record(txn *badger.Txn, c *Change) error {
	entry := outboxEntry{Kind: c.Kind, Path: c.Path}
	if c.Before != nil {
		entry.Before = c.Before.Data()
	}
	if c.After != nil {
		entry.After = c.After.Data()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode outbox entry %s: %w", c.Path, err)
	}

	c.Seq = s.outSeq.Add(1)
	return txn.Set(outboxKey(c.Seq), data)
}

// Pending returns the recorded changes that have not been acknowledged, oldest first.
func (s *Store) Pending(ctx context.Context) ([]Change, error) {
	var changes []Change
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(outboxPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			seq, err := strconv.ParseUint(string(it.Item().Key()[len(outboxPrefix):]), 10, 64)
			if err != nil {
				continue
			}
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var entry outboxEntry
			if err := json.Unmarshal(data, &entry); err != nil {
				return fmt.Errorf("decode outbox entry %d: %w", seq, err)
			}

			c := Change{Seq: seq, Kind: entry.Kind, Path: entry.Path, Group: CollectionGroup(entry.Path)}
			if entry.Before != nil {
				c.Before = newSnapshot(entry.Path, entry.Before)
			}
			if entry.After != nil {
				c.After = newSnapshot(entry.Path, entry.After)
			}
			changes = append(changes, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// Ack removes the outbox entry of a handled change. Unknown sequence numbers are ignored.
func (s *Store) Ack(ctx context.Context, seq uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if seq == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(outboxKey(seq))
	})
}

// lastOutboxSeq returns the highest sequence number in the outbox, or zero.
func lastOutboxSeq(db *badger.DB) (uint64, error) {
	var last uint64
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(outboxPrefix)
		opts.PrefetchValues = false
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(append([]byte(outboxPrefix), 0xff))
		if !it.ValidForPrefix(opts.Prefix) {
			return nil
		}
		seq, err := strconv.ParseUint(string(it.Item().Key()[len(outboxPrefix):]), 10, 64)
		if err != nil {
			return fmt.Errorf("parse outbox key: %w", err)
		}
		last = seq
		return nil
	})
	return last, err
}
