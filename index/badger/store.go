// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/index"
)

// Store is an index.Index backed by BadgerDB. Queries scan every entry of
// the collection and rank by exact cosine similarity.
type Store struct {
	backend    *Backend
	name       string
	ownBackend bool
	logger     *slog.Logger
}

var _ index.Index = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// OpenStore opens (or creates) the database at path and binds a Store to
// the named collection. The Store owns the database and closes it on Close.
func OpenStore(path, name string, opts ...Option) (*Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %s: %w", path, err)
	}
	s := newStore(backend, name, opts...)
	s.ownBackend = true
	return s, nil
}

// NewStore binds a Store to the named collection of an open backend.
// Several stores may share one backend; the caller closes it.
func NewStore(backend *Backend, name string, opts ...Option) *Store {
	return newStore(backend, name, opts...)
}

func newStore(backend *Backend, name string, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		name:    name,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "badger-index", "index", name)
	return s
}

// Name returns the collection name.
func (s *Store) Name() string {
	return s.name
}

// Exists reports whether the collection descriptor has been written.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	_, err := s.collection()
	if errors.Is(err, index.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create writes the collection descriptor. Only cosine is supported.
func (s *Store) Create(ctx context.Context, dimension int, metric index.Metric) error {
	if dimension < 1 {
		return fmt.Errorf("%w: %d", index.ErrInvalidDimension, dimension)
	}
	if metric != index.MetricCosine {
		return fmt.Errorf("%w: %s", index.ErrUnsupportedMetric, metric)
	}

	return s.backend.Update(func(tx *badger.Txn) error {
		existing, err := getCollection(tx, s.name)
		if err == nil {
			if existing.Dimension != dimension {
				return fmt.Errorf("%w: collection %s has dimension %d, requested %d",
					index.ErrDimensionMismatch, s.name, existing.Dimension, dimension)
			}
			return nil
		}
		if !errors.Is(err, index.ErrNotFound) {
			return err
		}

		desc := collection{Name: s.name, Dimension: dimension, Metric: metric}
		if err := tx.Set(makeCollectionKey(s.name), marshalCollection(desc)); err != nil {
			return err
		}
		s.logger.Debug("created collection", "dimension", dimension)
		return nil
	})
}

// Upsert writes entries in a single transaction. Entries with an existing
// ID replace the stored entry.
func (s *Store) Upsert(ctx context.Context, entries ...*core.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return s.backend.Update(func(tx *badger.Txn) error {
		desc, err := getCollection(tx, s.name)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := core.ValidateIndexEntry(entry); err != nil {
				return err
			}
			if len(entry.Vector) != desc.Dimension {
				return fmt.Errorf("%w: entry %s has %d values, want %d",
					index.ErrDimensionMismatch, entry.ID, len(entry.Vector), desc.Dimension)
			}
			if err := tx.Set(makeEntryKey(s.name, entry.ID), marshalEntry(entry)); err != nil {
				return err
			}
		}

		return nil
	})
}

// Query ranks every entry matching filter by cosine similarity to vector
// and returns the best topK. Ties keep key order.
func (s *Store) Query(ctx context.Context, vector []float32, topK int, filter *core.FilterSpec) ([]core.Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: %d", index.ErrInvalidTopK, topK)
	}

	var matches []core.Match

	err := s.backend.View(func(tx *badger.Txn) error {
		desc, err := getCollection(tx, s.name)
		if err != nil {
			return err
		}
		if len(vector) != desc.Dimension {
			return fmt.Errorf("%w: query has %d values, want %d",
				index.ErrDimensionMismatch, len(vector), desc.Dimension)
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEntryPrefix(s.name)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var entry *core.IndexEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = unmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}

			if !filter.Matches(entry.Metadata) {
				continue
			}

			matches = append(matches, core.Match{
				ID:        entry.ID,
				BrandName: entry.Metadata.Name,
				Score:     core.CosineSimilarity(vector, entry.Vector),
				Metadata:  entry.Metadata,
			})
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortStableFunc(matches, func(a, b core.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	s.logger.Debug("query complete", "filter", filter.String(), "matches", len(matches))
	return matches, nil
}

// Describe counts the collection's entries.
func (s *Store) Describe(ctx context.Context) (*index.Stats, error) {
	stats := &index.Stats{Name: s.name}

	err := s.backend.View(func(tx *badger.Txn) error {
		desc, err := getCollection(tx, s.name)
		if err != nil {
			return err
		}
		stats.Dimension = desc.Dimension
		stats.Metric = desc.Metric

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEntryPrefix(s.name)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			stats.TotalVectorCount++
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Get returns the entry stored under id.
func (s *Store) Get(ctx context.Context, id string) (*core.IndexEntry, error) {
	var entry *core.IndexEntry

	err := s.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntryKey(s.name, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			entry, err = unmarshalEntry(val)
			return err
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("entry %s: %w", id, index.ErrNotFound)
	}
	return entry, err
}

// Close closes the underlying database if the Store opened it.
func (s *Store) Close() error {
	if !s.ownBackend {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) collection() (collection, error) {
	var desc collection
	err := s.backend.View(func(tx *badger.Txn) error {
		var err error
		desc, err = getCollection(tx, s.name)
		return err
	})
	return desc, err
}

func getCollection(tx *badger.Txn, name string) (collection, error) {
	item, err := tx.Get(makeCollectionKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return collection{}, fmt.Errorf("collection %s: %w", name, index.ErrNotFound)
	}
	if err != nil {
		return collection{}, err
	}

	var desc collection
	err = item.Value(func(val []byte) error {
		var err error
		desc, err = unmarshalCollection(val)
		return err
	})
	return desc, err
}
