package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/brandmatch/ai"
	"github.com/poiesic/brandmatch/ai/mock"
	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/filter"
	"github.com/poiesic/brandmatch/index"
	"github.com/poiesic/brandmatch/index/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 8

// recordingIndex captures the arguments of each Query call.
type recordingIndex struct {
	index.Index
	matches []core.Match
	err     error
	calls   int
	vector  []float32
	topK    int
	filter  *core.FilterSpec
}

func (r *recordingIndex) Name() string { return "recording" }

func (r *recordingIndex) Query(_ context.Context, vector []float32, topK int, filter *core.FilterSpec) ([]core.Match, error) {
	r.calls++
	r.vector = vector
	r.topK = topK
	r.filter = filter
	return r.matches, r.err
}

// recordingMonitor collects the stages reported by a search.
type recordingMonitor struct {
	stages []string
}

func (m *recordingMonitor) Start(string, *core.FilterSpec, int) { m.stages = append(m.stages, "start") }
func (m *recordingMonitor) AfterEmbedding([]float32)            { m.stages = append(m.stages, "embedding") }
func (m *recordingMonitor) AfterIndexQuery([]core.Match)        { m.stages = append(m.stages, "query") }
func (m *recordingMonitor) Finish([]core.ConsolidatedResult)    { m.stages = append(m.stages, "finish") }

func newTestGateway(t *testing.T, embedder ai.Embedder) *ai.Gateway {
	t.Helper()
	gateway, err := ai.NewGateway(embedder, testDim)
	require.NoError(t, err)
	return gateway
}

func TestNewSearcher(t *testing.T) {
	gateway := newTestGateway(t, mock.NewMockEmbedderWithDimension(testDim))
	idx := &recordingIndex{}

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(gateway, idx)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(gateway, idx, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(gateway, idx, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil gateway", func(t *testing.T) {
		_, err := NewSearcher(nil, idx)
		assert.Equal(t, ErrGatewayRequired, err)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewSearcher(gateway, nil)
		assert.Equal(t, ErrIndexRequired, err)
	})
}

func TestSearch_Validation(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	idx := &recordingIndex{}
	searcher, err := NewSearcher(newTestGateway(t, embedder), idx)
	require.NoError(t, err)

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := searcher.Search(context.Background(), query, nil, 5)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}

	_, err = searcher.Search(context.Background(), "toys", nil, 0)
	assert.ErrorIs(t, err, ErrInvalidTopK)

	assert.Zero(t, embedder.CallCount(), "invalid queries are not embedded")
	assert.Zero(t, idx.calls)
}

func TestSearch_EmbeddingErrorPropagates(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	cause := errors.New("rate limited")
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, cause
	}
	idx := &recordingIndex{}
	searcher, err := NewSearcher(newTestGateway(t, embedder), idx)
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), "eco friendly toys", nil, 5)
	var embErr *ai.EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, "eco friendly toys", embErr.Text)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, embedder.CallCount(), "query embedding is not retried")
	assert.Zero(t, idx.calls)
}

func TestSearch_PassesFilterAndTopK(t *testing.T) {
	idx := &recordingIndex{matches: []core.Match{{ID: "A", BrandName: "A", Score: 0.5}}}
	searcher, err := NewSearcher(newTestGateway(t, mock.NewMockEmbedderWithDimension(testDim)), idx)
	require.NoError(t, err)

	spec, err := filter.NewBuilder().BuildForm(filter.Form{
		Category:      "Toys",
		MinFollowers:  0,
		Region:        "All",
		FoundedBefore: 2025,
		PriceLevel:    "All",
	})
	require.NoError(t, err)

	matches, err := searcher.Search(context.Background(), "wooden toys", spec, 7)
	require.NoError(t, err)
	assert.Equal(t, idx.matches, matches)
	assert.Equal(t, mock.Vector("wooden toys", testDim), idx.vector, "index is queried with the query embedding")
	assert.Equal(t, 7, idx.topK)
	require.NotNil(t, idx.filter)
	require.Equal(t, 1, idx.filter.Len())
	pred, ok := idx.filter.Get(core.FieldCategory)
	require.True(t, ok)
	assert.Equal(t, core.OpEq, pred.Op)
	assert.Equal(t, "Toys", pred.Text)
}

func TestSearch_EmptyFilterIsNoFilter(t *testing.T) {
	idx := &recordingIndex{}
	searcher, err := NewSearcher(newTestGateway(t, mock.NewMockEmbedderWithDimension(testDim)), idx)
	require.NoError(t, err)

	matches, err := searcher.Search(context.Background(), "anything", &core.FilterSpec{}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Nil(t, idx.filter)
}

func TestSearch_IndexErrorPropagates(t *testing.T) {
	idx := &recordingIndex{err: index.ErrNotFound}
	searcher, err := NewSearcher(newTestGateway(t, mock.NewMockEmbedderWithDimension(testDim)), idx)
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), "anything", nil, 5)
	assert.ErrorIs(t, err, index.ErrNotFound)
}

func TestFindBrands_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store, err := badger.NewMemoryStore("brands")
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Create(ctx, testDim, index.MetricCosine))

	brands := map[string]string{
		"Kite Works":  "handmade kites and outdoor toys",
		"Tea Harbor":  "loose leaf tea importer",
		"Pixel Forge": "indie video game studio",
	}
	for name, text := range brands {
		require.NoError(t, store.Upsert(ctx, &core.IndexEntry{
			ID:       core.NormalizeID(name),
			Vector:   mock.Vector(text, testDim),
			Metadata: core.Metadata{Name: name, Category: core.StringPtr("Toys")},
		}))
	}

	searcher, err := NewSearcher(newTestGateway(t, mock.NewMockEmbedderWithDimension(testDim)), store)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := searcher.FindBrandsWithMonitor(ctx, "loose leaf tea importer", nil, 3, monitor)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Tea Harbor", results[0].BrandName)
	assert.InDelta(t, 1.0, results[0].BestScore, 1e-5)
	assert.Equal(t, "Toys", results[0].Category)
	assert.Equal(t, core.NoDescription, results[0].Description)
	assert.Equal(t, []string{"start", "embedding", "query", "finish"}, monitor.stages)

	results, err = searcher.FindBrands(ctx, "loose leaf tea importer", nil, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Tea Harbor", results[0].BrandName)
}

func TestFindBrands_NoMatches(t *testing.T) {
	searcher, err := NewSearcher(newTestGateway(t, mock.NewMockEmbedderWithDimension(testDim)), &recordingIndex{})
	require.NoError(t, err)

	results, err := searcher.FindBrands(context.Background(), "anything", nil, 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}
