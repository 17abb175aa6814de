package badger

import (
	"testing"

	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryCodec(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		entry := &core.IndexEntry{
			ID:     "Green_Leaf",
			Vector: []float32{0.25, -1.5, 3},
			Metadata: core.Metadata{
				Name:        "Green Leaf",
				Category:    core.StringPtr("Toys"),
				Description: core.StringPtr("Wooden toys"),
				Followers:   core.Int64Ptr(120000),
				Region:      core.StringPtr("Europe"),
				Founded:     core.IntPtr(1987),
				PriceLevel:  core.StringPtr("Premium"),
			},
		}

		decoded, err := unmarshalEntry(marshalEntry(entry))

		require.NoError(t, err)
		assert.Equal(t, entry, decoded)
	})

	t.Run("absent optional fields stay absent", func(t *testing.T) {
		entry := &core.IndexEntry{
			ID:       "Sparse",
			Vector:   []float32{1},
			Metadata: core.Metadata{Name: "Sparse", Followers: core.Int64Ptr(0)},
		}

		decoded, err := unmarshalEntry(marshalEntry(entry))

		require.NoError(t, err)
		assert.Nil(t, decoded.Metadata.Category)
		assert.Nil(t, decoded.Metadata.Founded)
		require.NotNil(t, decoded.Metadata.Followers, "zero is distinct from absent")
		assert.Equal(t, int64(0), *decoded.Metadata.Followers)
	})
}

func TestEntryCodec_Corrupt(t *testing.T) {
	data := marshalEntry(&core.IndexEntry{ID: "a", Vector: []float32{1, 2}, Metadata: core.Metadata{Name: "A"}})

	_, err := unmarshalEntry(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrCorruptValue)

	_, err = unmarshalEntry(append(data, 0x01))
	assert.ErrorIs(t, err, ErrCorruptValue)

	_, err = unmarshalEntry(nil)
	assert.ErrorIs(t, err, ErrCorruptValue)
}

func TestCollectionCodec(t *testing.T) {
	c := collection{Name: "brands", Dimension: 1536, Metric: index.MetricCosine}

	decoded, err := unmarshalCollection(marshalCollection(c))

	require.NoError(t, err)
	assert.Equal(t, c, decoded)
}
