package catalog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/brandmatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "brands.json", `[
		{"brand_name": "Green Leaf", "processed_text": "sustainable wooden toys", "category": "Toys", "followers": 1200, "founded": 1987},
		{"brand_name": "Nova", "processed_text": "smart home devices", "description": "Connected gadgets", "extra": true}
	]`)

	records, err := Load(path)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Green Leaf", records[0].BrandName)
	assert.Equal(t, "sustainable wooden toys", records[0].ProcessedText)
	assert.Equal(t, "Toys", *records[0].Category)
	assert.Equal(t, int64(1200), *records[0].Followers)
	assert.Equal(t, 1987, *records[0].Founded)
	assert.Nil(t, records[0].Region)
	assert.Equal(t, "Connected gadgets", *records[1].Description)
	assert.Nil(t, records[1].Category)
}

func TestLoad_CSV(t *testing.T) {
	path := writeFile(t, "brands.csv", "Brand Name,Description,Category,Followers,Region,Founded,Price Level,Ignored\n"+
		"Green Leaf,Wooden toys,Toys,\"12,000\",Europe,1987.0,Premium,x\n"+
		"Nova,Smart gadgets,,,,,,\n")

	records, err := Load(path)

	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "Green Leaf", first.BrandName)
	assert.Empty(t, first.ProcessedText)
	assert.Equal(t, "Wooden toys", first.EmbeddingText(), "description is embedded when no processed text")
	assert.Equal(t, int64(12000), *first.Followers)
	assert.Equal(t, 1987, *first.Founded)
	assert.Equal(t, "Premium", *first.PriceLevel)
	assert.Equal(t, "Europe", *first.Region)

	second := records[1]
	assert.Equal(t, "Nova", second.BrandName)
	assert.Nil(t, second.Category)
	assert.Nil(t, second.Followers)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{name: "malformed json", file: "bad.json", content: `[{"brand_name": `},
		{name: "json object instead of array", file: "obj.json", content: `{"brand_name": "x"}`},
		{name: "csv without brand column", file: "nobrand.csv", content: "Description\nfoo\n", wantErr: ErrMissingColumn},
		{name: "empty csv", file: "empty.csv", content: "", wantErr: ErrMissingColumn},
		{name: "bad follower count", file: "followers.csv", content: "brand_name,followers\nA,lots\n"},
		{name: "fractional year", file: "year.csv", content: "brand_name,founded\nA,1999.5\n"},
		{name: "unsupported extension", file: "brands.xml", content: "<brands/>", wantErr: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			_, err := Load(path)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, path, loadErr.Path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "loading catalog")
}

func TestReadCSV_LineNumberInError(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("brand_name,followers\nA,1\nB,x\n"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestWriteEmbeddingsCSV(t *testing.T) {
	records := []core.BrandRecord{
		{BrandName: "Green Leaf", ProcessedText: "toys", Category: core.StringPtr("Toys"), Followers: core.Int64Ptr(5), Founded: core.IntPtr(2001)},
		{BrandName: "Nova, Inc", ProcessedText: "gadgets"},
	}
	vectors := [][]float32{{0.5, -0.25}, {1}}

	var buf bytes.Buffer
	require.NoError(t, WriteEmbeddingsCSV(&buf, records, vectors))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "brand_name,processed_text,category,description,followers,region,founded,price_level,embedding", lines[0])
	assert.Equal(t, `Green Leaf,toys,Toys,,5,,2001,,"[0.5, -0.25]"`, lines[1])
	assert.Equal(t, `"Nova, Inc",gadgets,,,,,,,[1]`, lines[2])

	reloaded, err := ReadCSV(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, reloaded, 2, "exported catalogs load back")
	assert.Equal(t, records[0], reloaded[0])
	assert.Equal(t, "Nova, Inc", reloaded[1].BrandName)

	err = WriteEmbeddingsCSV(&buf, records, vectors[:1])
	assert.ErrorIs(t, err, ErrMismatchedRows)
}
