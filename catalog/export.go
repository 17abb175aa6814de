package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/poiesic/brandmatch/core"
)

var exportHeader = []string{
	"brand_name",
	"processed_text",
	"category",
	"description",
	"followers",
	"region",
	"founded",
	"price_level",
	"embedding",
}

// WriteEmbeddingsCSV writes records with their vectors as a CSV catalog.
// The embedding column holds the vector as a bracketed, comma separated
// list. records and vectors must have the same length.
func WriteEmbeddingsCSV(w io.Writer, records []core.BrandRecord, vectors [][]float32) error {
	if len(records) != len(vectors) {
		return fmt.Errorf("%w: %d records, %d vectors", ErrMismatchedRows, len(records), len(vectors))
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}

	for i := range records {
		r := &records[i]
		row := []string{
			r.BrandName,
			r.ProcessedText,
			deref(r.Category),
			deref(r.Description),
			formatInt64(r.Followers),
			deref(r.Region),
			formatInt(r.Founded),
			deref(r.PriceLevel),
			formatVector(vectors[i]),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatInt64(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func formatVector(v []float32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(float64(x), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
