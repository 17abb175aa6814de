package index

import (
	"context"

	"github.com/poiesic/brandmatch/core"
)

// Metric is the similarity function an index ranks by.
type Metric string

// MetricCosine ranks by cosine similarity; higher is more similar.
const MetricCosine Metric = "cosine"

// Stats describes an index.
type Stats struct {
	Name             string
	Dimension        int
	Metric           Metric
	TotalVectorCount int64
}

// Index stores IndexEntry values and answers nearest-neighbour queries.
// Implementations must be safe for concurrent queries.
type Index interface {
	// Name returns the collection name.
	Name() string

	// Exists reports whether the collection has been created.
	Exists(ctx context.Context) (bool, error)

	// Create provisions the collection. Creating an existing collection
	// with the same dimension is a no-op.
	Create(ctx context.Context, dimension int, metric Metric) error

	// Upsert writes entries, replacing any entry with the same ID.
	Upsert(ctx context.Context, entries ...*core.IndexEntry) error

	// Query returns up to topK matches ordered by descending score.
	// A nil or empty filter applies no filtering.
	Query(ctx context.Context, vector []float32, topK int, filter *core.FilterSpec) ([]core.Match, error)

	// Describe reports collection statistics.
	Describe(ctx context.Context) (*Stats, error)

	// Close releases the index connection.
	Close() error
}
