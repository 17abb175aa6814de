package brandmatch

import (
	"context"
	"testing"

	"github.com/poiesic/brandmatch/ai"
	"github.com/poiesic/brandmatch/ai/mock"
	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/filter"
	"github.com/poiesic/brandmatch/index/badger"
	"github.com/poiesic/brandmatch/ingestion"
	"github.com/poiesic/brandmatch/retry"
	"github.com/poiesic/brandmatch/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 16

func newTestEngine(t *testing.T) (*Engine, *mock.MockProvider) {
	t.Helper()
	store, err := badger.NewMemoryStore("brands")
	require.NoError(t, err)

	provider := mock.NewMockProviderWithEmbedder(mock.NewMockEmbedderWithDimension(testDim))
	engine, err := NewEngine(store,
		WithAIConfig(ai.NewConfig(ai.WithDimension(testDim))),
		WithProvider(provider),
		WithReadyWait(0),
	)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine, provider.(*mock.MockProvider)
}

func catalog() []core.BrandRecord {
	return []core.BrandRecord{
		{
			BrandName:     "Kite Works",
			ProcessedText: "handmade kites and outdoor toys",
			Category:      core.StringPtr("Toys"),
			Followers:     core.Int64Ptr(5400),
			Region:        core.StringPtr("Europe"),
			Founded:       core.IntPtr(1998),
			PriceLevel:    core.StringPtr("Mid-Range"),
		},
		{
			BrandName:     "Tea Harbor",
			ProcessedText: "loose leaf tea importer",
			Category:      core.StringPtr("Food & Beverage"),
			Followers:     core.Int64Ptr(800),
			Region:        core.StringPtr("Asia"),
			Founded:       core.IntPtr(2015),
			PriceLevel:    core.StringPtr("Premium"),
		},
		{
			BrandName:     "Block Party",
			ProcessedText: "building blocks for kids",
			Category:      core.StringPtr("Toys"),
			Followers:     core.Int64Ptr(120000),
		},
	}
}

func TestNewEngine(t *testing.T) {
	t.Run("requires index", func(t *testing.T) {
		_, err := NewEngine(nil)
		assert.ErrorIs(t, err, ErrIndexRequired)
	})

	t.Run("rejects invalid ai config", func(t *testing.T) {
		store, err := badger.NewMemoryStore("brands")
		require.NoError(t, err)
		defer store.Close()

		_, err = NewEngine(store, WithAIConfig(&ai.Config{}), WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		assert.Equal(t, testDim, engine.dimension)
		assert.Equal(t, filter.DefaultVocabulary(), engine.Vocabulary())
	})
}

func TestEngine_ProvisionOnce(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	created, err := engine.Provision(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = engine.Provision(ctx)
	require.NoError(t, err)
	assert.True(t, created, "later calls return the first result")

	stats, err := engine.Describe(ctx)
	require.NoError(t, err)
	assert.Equal(t, testDim, stats.Dimension)
	assert.Zero(t, stats.TotalVectorCount)
}

func TestEngine_IngestAndFindBrands(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	report, err := engine.Ingest(ctx, catalog(), ingestion.WithRetryPolicy(retry.Fixed(1, 0)))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Uploaded)

	stats, err := engine.Describe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalVectorCount)

	results, err := engine.FindBrands(ctx, "loose leaf tea importer", filter.Selections{}, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Tea Harbor", results[0].BrandName)
	assert.Equal(t, "Premium", results[0].PriceLevel)

	results, err = engine.FindBrands(ctx, "loose leaf tea importer", filter.Selections{
		Category: core.StringPtr("Toys"),
	}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "Toys", r.Category)
	}

	results, err = engine.FindBrands(ctx, "building blocks for kids", filter.Selections{
		Category:     core.StringPtr("Toys"),
		MinFollowers: core.Int64Ptr(10000),
	}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Block Party", results[0].BrandName)
	assert.Equal(t, "120000", results[0].Followers)
	assert.Equal(t, core.NotAvailable, results[0].Region)

	results, err = engine.FindBrands(ctx, "anything", filter.Selections{
		Region: core.StringPtr("Africa"),
	}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_FindBrandsErrors(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)
	_, err := engine.Provision(ctx)
	require.NoError(t, err)

	_, err = engine.FindBrands(ctx, "  ", filter.Selections{}, 5)
	assert.ErrorIs(t, err, search.ErrEmptyQuery)

	_, err = engine.FindBrands(ctx, "toys", filter.Selections{Category: core.StringPtr("Spaceships")}, 5)
	assert.ErrorIs(t, err, filter.ErrUnknownValue)
}

func TestEngine_FactoryMethods(t *testing.T) {
	engine, _ := newTestEngine(t)

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := engine.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := engine.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})

	t.Run("can build filters", func(t *testing.T) {
		spec, err := engine.Filter(filter.Selections{Region: core.StringPtr("Europe")})
		require.NoError(t, err)
		assert.Equal(t, 1, spec.Len())
	})
}

func TestEngine_CloseClosesProvider(t *testing.T) {
	engine, provider := newTestEngine(t)
	require.NoError(t, engine.Close())
	assert.True(t, provider.Closed())
}
