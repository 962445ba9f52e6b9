// Package recordstore persists named collections of ordered records. Every
// collection is stored as one JSON document, so a save replaces the whole
// collection in a single backend write and loads never observe partial state.
package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Collection names shared by the services.
const (
	MarketItems  = "market_items"
	Transactions = "transactions"
	Guides       = "guides"
	Analytics    = "analytics"
	Feedback     = "feedback"
)

// ErrNotFound is returned by a Backend when a collection was never saved.
var ErrNotFound = errors.New("collection not found")

// Backend is the durable key/value surface a Store needs.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, payload []byte) error
	Close() error
}

// Store owns the persisted collections and serialises read-modify-write cycles
// per collection.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New wraps a backend.
func New(backend Backend, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// read returns the raw payload. A collection that was never saved yields nil
// and no error.
func (s *Store) read(ctx context.Context, name string) ([]byte, error) {
	payload, err := s.backend.Read(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return payload, nil
}

// Collection is a typed view over one named collection. The id function
// extracts the record identity used by Find and UpdateByID.
type Collection[T any] struct {
	store *Store
	name  string
	id    func(T) string
}

// NewCollection binds a typed view to store.
func NewCollection[T any](store *Store, name string, id func(T) string) *Collection[T] {
	return &Collection[T]{store: store, name: name, id: id}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Load returns the full ordered sequence previously saved. Absent, unreadable
// or corrupt collections come back empty.
func (c *Collection[T]) Load(ctx context.Context) []T {
	payload, err := c.store.read(ctx, c.name)
	if err != nil {
		c.store.logger.Warn("collection read failed, treating as empty", "collection", c.name, "error", err)
		return []T{}
	}
	return c.decode(payload)
}

// loadForWrite is Load for read-modify-write cycles: a backend failure is
// returned instead of being mistaken for an empty collection. A corrupt
// payload still decodes as empty so the collection can be rewritten.
func (c *Collection[T]) loadForWrite(ctx context.Context) ([]T, error) {
	payload, err := c.store.read(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return c.decode(payload), nil
}

func (c *Collection[T]) decode(payload []byte) []T {
	records := []T{}
	if len(payload) == 0 {
		return records
	}
	if err := json.Unmarshal(payload, &records); err != nil {
		c.store.logger.Warn("corrupt collection, treating as empty", "collection", c.name, "error", err)
		return []T{}
	}
	if records == nil {
		records = []T{}
	}
	return records
}

// Exists reports whether the collection has ever been saved.
func (c *Collection[T]) Exists(ctx context.Context) bool {
	payload, err := c.store.read(ctx, c.name)
	return err == nil && payload != nil
}

// Save replaces the whole collection.
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	l := c.store.lock(c.name)
	l.Lock()
	defer l.Unlock()
	return c.save(ctx, records)
}

func (c *Collection[T]) save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	if err := c.store.backend.Write(ctx, c.name, payload); err != nil {
		return fmt.Errorf("write %s: %w", c.name, err)
	}
	return nil
}

// Update runs load, fn, save while holding the collection lock, so no update
// made by a concurrent caller is lost. When the load or fn fails nothing is
// written.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) ([]T, error) {
	l := c.store.lock(c.name)
	l.Lock()
	defer l.Unlock()

	current, err := c.loadForWrite(ctx)
	if err != nil {
		return nil, err
	}
	records, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := c.save(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Create appends a record.
func (c *Collection[T]) Create(ctx context.Context, record T) error {
	_, err := c.Update(ctx, func(records []T) ([]T, error) {
		return append(records, record), nil
	})
	return err
}

// SeedIfAbsent saves records only when the collection was never written.
func (c *Collection[T]) SeedIfAbsent(ctx context.Context, records []T) (bool, error) {
	l := c.store.lock(c.name)
	l.Lock()
	defer l.Unlock()
	payload, err := c.store.read(ctx, c.name)
	if err != nil {
		return false, err
	}
	if payload != nil {
		return false, nil
	}
	if err := c.save(ctx, records); err != nil {
		return false, err
	}
	return true, nil
}

// Find returns the record with the given id.
func (c *Collection[T]) Find(ctx context.Context, id string) (T, bool) {
	for _, rec := range c.Load(ctx) {
		if c.id(rec) == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// UpdateByID replaces the record with the given id by fn's result. The bool is
// false, and nothing is written, when no record matches or the load fails.
func (c *Collection[T]) UpdateByID(ctx context.Context, id string, fn func(T) T) (T, bool, error) {
	var (
		updated T
		found   bool
	)
	l := c.store.lock(c.name)
	l.Lock()
	defer l.Unlock()

	records, err := c.loadForWrite(ctx)
	if err != nil {
		return updated, false, err
	}
	for i, rec := range records {
		if c.id(rec) == id {
			updated = fn(rec)
			records[i] = updated
			found = true
			break
		}
	}
	if !found {
		return updated, false, nil
	}
	if err := c.save(ctx, records); err != nil {
		var zero T
		return zero, true, err
	}
	return updated, true, nil
}
