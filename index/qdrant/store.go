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

package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/index"
	"github.com/qdrant/go-client/qdrant"
)

// Payload keys. The brand id is kept in the payload because Qdrant point
// ids must be integers or UUIDs.
const (
	payloadID          = "id"
	payloadName        = "name"
	payloadCategory    = "category"
	payloadDescription = "description"
	payloadFollowers   = "followers"
	payloadRegion      = "region"
	payloadFounded     = "founded"
	payloadPriceLevel  = "price_level"
)

// Client is the subset of *qdrant.Client used by Store.
type Client interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Close() error
}

var _ Client = (*qdrant.Client)(nil)

// Config locates a Qdrant server.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// DefaultConfig returns a Config for a local Qdrant on the gRPC port.
func DefaultConfig() Config {
	return Config{
		Host:       "localhost",
		Port:       6334,
		Collection: "brands",
	}
}

// Store is an index.Index backed by a Qdrant collection.
type Store struct {
	client     Client
	collection string
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

// Open connects to the server described by cfg.
func Open(cfg Config, opts ...Option) (*Store, error) {
	if cfg.Collection == "" {
		return nil, errors.New("qdrant: collection name is required")
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return New(client, cfg.Collection, opts...), nil
}

// New binds a Store to collection using an existing client.
func New(client Client, collection string, opts ...Option) *Store {
	s := &Store{
		client:     client,
		collection: collection,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "qdrant-index", "index", collection)
	return s
}

// Name returns the collection name.
func (s *Store) Name() string {
	return s.collection
}

// Exists reports whether the collection exists on the server.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	return s.client.CollectionExists(ctx, s.collection)
}

// indexedFields lists the payload fields that carry a server-side index.
var indexedFields = []struct {
	name string
	kind qdrant.FieldType
}{
	{payloadCategory, qdrant.FieldType_FieldTypeKeyword},
	{payloadRegion, qdrant.FieldType_FieldTypeKeyword},
	{payloadPriceLevel, qdrant.FieldType_FieldTypeKeyword},
	{payloadFollowers, qdrant.FieldType_FieldTypeInteger},
	{payloadFounded, qdrant.FieldType_FieldTypeInteger},
}

// Create creates the collection with cosine distance and indexes every
// filterable payload field. An existing collection of the same dimension is
// kept and only its missing field indexes are created.
func (s *Store) Create(ctx context.Context, dimension int, metric index.Metric) error {
	if dimension < 1 {
		return fmt.Errorf("%w: %d", index.ErrInvalidDimension, dimension)
	}
	if metric != index.MetricCosine {
		return fmt.Errorf("%w: %s", index.ErrUnsupportedMetric, metric)
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", s.collection, err)
	}

	schema := map[string]*qdrant.PayloadSchemaInfo{}
	if exists {
		info, err := s.client.GetCollectionInfo(ctx, s.collection)
		if err != nil {
			return fmt.Errorf("reading collection %s: %w", s.collection, err)
		}
		size := int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
		if size != dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, requested %d",
				index.ErrDimensionMismatch, s.collection, size, dimension)
		}
		if info.GetPayloadSchema() != nil {
			schema = info.GetPayloadSchema()
		}
	} else {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dimension),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("creating collection %s: %w", s.collection, err)
		}
		s.logger.Debug("created collection", "dimension", dimension)
	}

	for _, f := range indexedFields {
		if _, ok := schema[f.name]; ok {
			continue
		}
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			FieldName:      f.name,
			FieldType:      qdrant.PtrOf(f.kind),
		})
		if err != nil {
			return fmt.Errorf("indexing payload field %s: %w", f.name, err)
		}
		s.logger.Debug("indexed payload field", "field", f.name)
	}
	return nil
}

// Upsert writes entries as points and waits for the write to apply.
func (s *Store) Upsert(ctx context.Context, entries ...*core.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, entry := range entries {
		if err := core.ValidateIndexEntry(entry); err != nil {
			return err
		}
		payload, err := toPayload(entry)
		if err != nil {
			return fmt.Errorf("entry %s: %w", entry.ID, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(entry.ID)),
			Vectors: qdrant.NewVectorsDense(entry.Vector),
			Payload: payload,
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}
	return nil
}

// Query runs a nearest-neighbour query. A nil or empty filter is sent as
// no filter at all.
func (s *Store) Query(ctx context.Context, vector []float32, topK int, filter *core.FilterSpec) ([]core.Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: %d", index.ErrInvalidTopK, topK)
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQueryDense(vector),
		Filter:         toFilter(filter),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.collection, err)
	}

	matches := make([]core.Match, 0, len(points))
	for _, p := range points {
		meta, id := fromPayload(p.GetPayload())
		if id == "" {
			id = p.GetId().GetUuid()
		}
		matches = append(matches, core.Match{
			ID:        id,
			BrandName: meta.Name,
			Score:     p.GetScore(),
			Metadata:  meta,
		})
	}

	s.logger.Debug("query complete", "filter", filter.String(), "matches", len(matches))
	return matches, nil
}

// Describe reports the collection dimension and exact point count.
func (s *Store) Describe(ctx context.Context) (*index.Stats, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", s.collection, err)
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("counting %s: %w", s.collection, err)
	}

	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	stats := &index.Stats{
		Name:             s.collection,
		Dimension:        int(params.GetSize()),
		TotalVectorCount: int64(count),
	}
	if params.GetDistance() == qdrant.Distance_Cosine {
		stats.Metric = index.MetricCosine
	}
	return stats, nil
}

// Close closes the client connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// PointID derives the point UUID for a brand id from a 128-bit BLAKE2b
// digest, so re-ingesting a brand overwrites its point.
func PointID(id string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(id))
	u, _ := uuid.FromBytes(h.Sum(nil))
	return u.String()
}
