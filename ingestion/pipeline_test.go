package ingestion

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/brandmatch/ai"
	"github.com/poiesic/brandmatch/ai/mock"
	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/index"
	"github.com/poiesic/brandmatch/index/badger"
	"github.com/poiesic/brandmatch/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 8

// flakyIndex fails the first failures upserts before delegating.
type flakyIndex struct {
	index.Index
	mu       sync.Mutex
	failures int
	calls    int
	sizes    []int
}

func (f *flakyIndex) Upsert(ctx context.Context, entries ...*core.IndexEntry) error {
	f.mu.Lock()
	f.calls++
	f.sizes = append(f.sizes, len(entries))
	fail := f.failures != 0
	if f.failures > 0 {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return errors.New("index unavailable")
	}
	return f.Index.Upsert(ctx, entries...)
}

func newTestIndex(t *testing.T) *badger.Store {
	t.Helper()
	store, err := badger.NewMemoryStore("brands")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Create(context.Background(), testDim, index.MetricCosine))
	return store
}

func newTestPipeline(t *testing.T, embedder ai.Embedder, idx index.Index, opts ...Option) *Pipeline {
	t.Helper()
	gateway, err := ai.NewGateway(embedder, testDim)
	require.NoError(t, err)
	opts = append([]Option{WithRetryPolicy(retry.Fixed(3, 0))}, opts...)
	p, err := NewPipeline(gateway, idx, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func brand(name, text string) core.BrandRecord {
	return core.BrandRecord{BrandName: name, ProcessedText: text}
}

func TestNewPipeline_Validation(t *testing.T) {
	gateway, err := ai.NewGateway(mock.NewMockEmbedderWithDimension(testDim), testDim)
	require.NoError(t, err)
	idx := newTestIndex(t)

	_, err = NewPipeline(nil, idx)
	assert.ErrorIs(t, err, ErrGatewayRequired)

	_, err = NewPipeline(gateway, nil)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewPipeline(gateway, idx, WithBatchSize(0))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	_, err = NewPipeline(gateway, idx, WithEmbedBatchSize(0))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	_, err = NewPipeline(gateway, idx, WithRetryPolicy(retry.Policy{}))
	assert.ErrorIs(t, err, retry.ErrInvalidMaxAttempts)
}

func TestPipeline_Ingest(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	p := newTestPipeline(t, mock.NewMockEmbedderWithDimension(testDim), idx)

	records := []core.BrandRecord{
		{BrandName: "Green Leaf", ProcessedText: "organic tea", Category: core.StringPtr("Food & Beverage"), Followers: core.Int64Ptr(1200)},
		{BrandName: "Nova", ProcessedText: "smart home devices", Region: core.StringPtr("Europe")},
	}

	report, err := p.Ingest(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 2, report.Embedded)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 2, report.Uploaded)
	assert.False(t, report.Failed())

	entry, err := idx.Get(ctx, "Green_Leaf")
	require.NoError(t, err)
	assert.Equal(t, "Green Leaf", entry.Metadata.Name)
	assert.Equal(t, "Food & Beverage", *entry.Metadata.Category)
	assert.Equal(t, mock.Vector("organic tea", testDim), entry.Vector)
}

func TestPipeline_EmbeddingFailureSkipsRecord(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "broken" {
			return nil, errors.New("model overloaded")
		}
		return mock.Vector(text, testDim), nil
	}
	idx := newTestIndex(t)
	p := newTestPipeline(t, embedder, idx)

	report, err := p.Ingest(ctx, []core.BrandRecord{
		brand("Alpha", "first"),
		brand("Beta", "broken"),
		brand("Gamma", "third"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Embedded)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Uploaded)

	require.Len(t, report.Skips, 1)
	assert.Equal(t, 1, report.Skips[0].Position)
	assert.Equal(t, "Beta", report.Skips[0].BrandName)
	var embErr *ai.EmbeddingError
	assert.ErrorAs(t, report.Skips[0].Reason, &embErr)

	stats, err := idx.Describe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalVectorCount)
}

func TestPipeline_EmbedsInBatches(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	p := newTestPipeline(t, embedder, newTestIndex(t), WithEmbedBatchSize(2), WithPoolSize(1))

	records := []core.BrandRecord{
		brand("A", "a"), brand("B", "b"), brand("C", "c"), brand("D", "d"), brand("E", "e"),
	}
	outcomes := p.Embed(context.Background(), records)

	for i, outcome := range outcomes {
		require.True(t, outcome.OK())
		assert.Equal(t, mock.Vector(records[i].ProcessedText, testDim), outcome.Entry.Vector)
	}
	assert.Equal(t, 3, embedder.CallCount(), "two batch calls and one single call")
}

func TestPipeline_FailedBatchFallsBackPerRecord(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "broken" {
			return nil, errors.New("model overloaded")
		}
		return mock.Vector(text, testDim), nil
	}
	p := newTestPipeline(t, embedder, newTestIndex(t), WithEmbedBatchSize(3))

	report, err := p.Ingest(context.Background(), []core.BrandRecord{
		brand("Alpha", "first"),
		brand("Beta", "broken"),
		brand("Gamma", "third"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Embedded)
	require.Len(t, report.Skips, 1)
	assert.Equal(t, "Beta", report.Skips[0].BrandName)
	assert.Equal(t, 4, embedder.CallCount(), "one batch call, then one call per record")
}

func TestPipeline_DuplicateNamesUploadedOnce(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	p := newTestPipeline(t, mock.NewMockEmbedderWithDimension(testDim), idx)

	report, err := p.Ingest(ctx, []core.BrandRecord{
		brand("Alpha", "first"),
		brand("Beta", "second"),
		brand("Alpha", "third"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Embedded)
	assert.Equal(t, 1, report.Replaced)
	assert.Equal(t, 2, report.Uploaded)

	stats, err := idx.Describe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(report.Uploaded), stats.TotalVectorCount)

	entry, err := idx.Get(ctx, "Alpha")
	require.NoError(t, err)
	assert.Equal(t, mock.Vector("third", testDim), entry.Vector, "later record wins")
}

func TestPipeline_InvalidRecordsSkipped(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(testDim)
	p := newTestPipeline(t, embedder, newTestIndex(t))

	report, err := p.Ingest(context.Background(), []core.BrandRecord{
		brand("", "no name"),
		brand("éè", "only non-ascii"),
		{BrandName: "Negative", ProcessedText: "x", Followers: core.Int64Ptr(-1)},
		brand("Blank", "   "),
		brand("Valid", "ok"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Embedded)
	assert.Equal(t, 4, report.Skipped)
	assert.ErrorIs(t, report.Skips[0].Reason, core.ErrEmptyBrandName)
	assert.ErrorIs(t, report.Skips[1].Reason, core.ErrEmptyID)
	assert.ErrorIs(t, report.Skips[2].Reason, core.ErrNegativeFollowers)
	assert.ErrorIs(t, report.Skips[3].Reason, ai.ErrEmptyText)
	assert.Equal(t, 1, embedder.CallCount(), "invalid records are not sent to the model")
}

func TestPipeline_EmbedKeepsCatalogOrder(t *testing.T) {
	p := newTestPipeline(t, mock.NewMockEmbedderWithDimension(testDim), newTestIndex(t), WithPoolSize(4))

	records := make([]core.BrandRecord, 50)
	for i := range records {
		name := "Brand " + strings.Repeat("x", i+1)
		records[i] = brand(name, name+" text")
	}

	outcomes := p.Embed(context.Background(), records)
	require.Len(t, outcomes, len(records))
	for i, outcome := range outcomes {
		require.True(t, outcome.OK())
		assert.Equal(t, i, outcome.Position)
		assert.Equal(t, core.NormalizeID(records[i].BrandName), outcome.Entry.ID)
	}
}

func TestPipeline_Batching(t *testing.T) {
	idx := &flakyIndex{Index: newTestIndex(t)}
	p := newTestPipeline(t, mock.NewMockEmbedderWithDimension(testDim), idx, WithBatchSize(2))

	records := []core.BrandRecord{
		brand("A", "a"), brand("B", "b"), brand("C", "c"), brand("D", "d"), brand("E", "e"),
	}
	report, err := p.Ingest(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Uploaded)
	assert.Equal(t, []int{2, 2, 1}, idx.sizes)
}

func TestPipeline_RetrySucceeds(t *testing.T) {
	idx := &flakyIndex{Index: newTestIndex(t), failures: 2}
	p := newTestPipeline(t, mock.NewMockEmbedderWithDimension(testDim), idx)

	report, err := p.Ingest(context.Background(), []core.BrandRecord{brand("Alpha", "first")})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.calls)
	assert.Equal(t, 1, report.Uploaded)
	assert.Empty(t, report.FailedBatches)
}

func TestPipeline_RetryExhaustedContinues(t *testing.T) {
	idx := &flakyIndex{Index: newTestIndex(t), failures: 3}
	p := newTestPipeline(t, mock.NewMockEmbedderWithDimension(testDim), idx, WithBatchSize(1))

	report, err := p.Ingest(context.Background(), []core.BrandRecord{
		brand("Alpha", "first"),
		brand("Beta", "second"),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, idx.calls)
	assert.Equal(t, 1, report.Uploaded)
	require.Len(t, report.FailedBatches, 1)

	failed := report.FailedBatches[0]
	assert.Equal(t, 0, failed.Batch)
	assert.Equal(t, 1, failed.Size)
	assert.Equal(t, 3, failed.Attempts)
	assert.ErrorContains(t, failed, "index unavailable")
	assert.True(t, report.Failed())
}

func TestPipeline_Idempotent(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	p := newTestPipeline(t, mock.NewMockEmbedderWithDimension(testDim), idx)

	records := []core.BrandRecord{brand("Alpha", "first"), brand("Beta", "second")}
	for range 2 {
		_, err := p.Ingest(ctx, records)
		require.NoError(t, err)
	}

	stats, err := idx.Describe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalVectorCount)
	assert.Equal(t, "first", records[0].ProcessedText, "catalog is not mutated")
}

func TestPipeline_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx := &flakyIndex{Index: newTestIndex(t)}
	p := newTestPipeline(t, mock.NewMockEmbedderWithDimension(testDim), idx)

	_, err := p.Ingest(ctx, []core.BrandRecord{brand("Alpha", "first")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, idx.calls)
}

func TestPipeline_Progress(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPipeline(t, mock.NewMockEmbedderWithDimension(testDim), newTestIndex(t), WithProgress(&buf))

	_, err := p.Ingest(context.Background(), []core.BrandRecord{brand("Alpha", "first")})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1/1 brands")
}
