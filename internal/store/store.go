// Package store is the record store client: a schemaless document store over
// Badger with slash-separated document paths, collection-group scans,
// equality indexes and atomic write batches.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
)

const (
	// MaxInValues is the largest identifier set a single GetIn lookup accepts.
	MaxInValues = 10

	// MaxBatchWrites is the largest number of writes one Commit accepts.
	MaxBatchWrites = 500
)

// ChangeEmitter receives document changes after a batch commits.
// The store uses it to trigger reactive handlers without depending on them.
type ChangeEmitter interface {
	Emit(change Change)
}

// NoopEmitter is a no-op implementation of ChangeEmitter for testing.
type NoopEmitter struct{}

// Emit implements ChangeEmitter.Emit as a no-op.
func (NoopEmitter) Emit(Change) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() ChangeEmitter {
	return NoopEmitter{}
}

// Options configures a Store.
type Options struct {
	Path     string                  // Directory for the Badger database (ignored when InMemory)
	InMemory bool                    // Keep everything in memory (tests, tooling)
	ReadOnly bool                    // Open without write access (inspection tools)
	Indexes  map[string][]string     // Equality-indexed dotted fields per collection group
	Outbox   map[string][]ChangeKind // Changes kept until acknowledged, per collection group
	Logger   *slog.Logger
	Emitter  ChangeEmitter
}

// Store wraps a Badger database instance.
type Store struct {
	db      *badger.DB
	logger  *slog.Logger
	indexes map[string][]string
	outbox  map[string][]ChangeKind
	outSeq  atomic.Uint64

	mu      sync.RWMutex
	emitter ChangeEmitter
}

// Open opens (or creates) the document store described by opts.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil // Disable Badger's internal logging
	bopts.ReadOnly = opts.ReadOnly
	if !opts.InMemory {
		bopts.SyncWrites = true       // Committed batches survive a crash
		bopts.CompactL0OnClose = true // Faster startup
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	log := logger.OrDiscard(opts.Logger)

	emitter := opts.Emitter
	if emitter == nil {
		emitter = NoopEmitter{}
	}

	indexes := make(map[string][]string, len(opts.Indexes))
	for group, fields := range opts.Indexes {
		indexes[group] = append([]string(nil), fields...)
	}

	outbox := make(map[string][]ChangeKind, len(opts.Outbox))
	for group, kinds := range opts.Outbox {
		outbox[group] = append([]ChangeKind(nil), kinds...)
	}

	s := &Store{
		db:      db,
		logger:  log,
		indexes: indexes,
		outbox:  outbox,
		emitter: emitter,
	}

	last, err := lastOutboxSeq(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to read outbox: %w", err)
	}
	s.outSeq.Store(last)

	log.Info("Badger database opened successfully",
		"path", opts.Path,
		"in_memory", opts.InMemory,
		"indexed_groups", len(indexes),
	)

	return s, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// SetEmitter replaces the change emitter.
// The dispatcher needs the store before it exists, so it is wired in after creation.
func (s *Store) SetEmitter(emitter ChangeEmitter) {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	s.mu.Lock()
	s.emitter = emitter
	s.mu.Unlock()
}

func (s *Store) currentEmitter() ChangeEmitter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emitter
}

// indexedFields returns the indexed fields for a collection group.
func (s *Store) indexedFields(group string) []string {
	return s.indexes[group]
}

// readDoc returns the raw document at path inside txn, or nil when it does not exist.
func readDoc(txn *badger.Txn, path string) ([]byte, error) {
	item, err := txn.Get(docKey(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return item.ValueCopy(nil)
}
