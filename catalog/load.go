package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/brandmatch/core"
)

// Load reads the catalog at path. Files ending in .csv are read as CSV,
// everything else as a JSON array. Any failure is returned as *LoadError.
func Load(path string) ([]core.BrandRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	var records []core.BrandRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = ReadCSV(f)
	case ".json", "":
		records, err = ReadJSON(f)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return records, nil
}

// ReadJSON decodes a JSON array of brand records.
func ReadJSON(r io.Reader) ([]core.BrandRecord, error) {
	var records []core.BrandRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	return records, nil
}

// column identifies a catalog field in a CSV header.
type column int

const (
	colUnknown column = iota
	colBrandName
	colProcessedText
	colCategory
	colDescription
	colFollowers
	colRegion
	colFounded
	colPriceLevel
)

var headerAliases = map[string]column{
	"brand_name":     colBrandName,
	"brand":          colBrandName,
	"name":           colBrandName,
	"processed_text": colProcessedText,
	"text":           colProcessedText,
	"category":       colCategory,
	"description":    colDescription,
	"followers":      colFollowers,
	"region":         colRegion,
	"founded":        colFounded,
	"founded_year":   colFounded,
	"year_founded":   colFounded,
	"price_level":    colPriceLevel,
	"price_tier":     colPriceLevel,
}

func headerKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// ReadCSV reads a header-mapped CSV catalog. Unknown columns are ignored and
// empty cells leave the field absent.
func ReadCSV(r io.Reader) ([]core.BrandRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: brand_name (empty file)", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make([]column, len(header))
	hasName := false
	for i, h := range header {
		columns[i] = headerAliases[headerKey(h)]
		if columns[i] == colBrandName {
			hasName = true
		}
	}
	if !hasName {
		return nil, fmt.Errorf("%w: brand_name", ErrMissingColumn)
	}

	var records []core.BrandRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		record, err := parseRow(columns, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRow(columns []column, row []string) (core.BrandRecord, error) {
	var record core.BrandRecord
	for i, cell := range row {
		if i >= len(columns) {
			break
		}
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}

		switch columns[i] {
		case colBrandName:
			record.BrandName = cell
		case colProcessedText:
			record.ProcessedText = cell
		case colCategory:
			record.Category = core.StringPtr(cell)
		case colDescription:
			record.Description = core.StringPtr(cell)
		case colRegion:
			record.Region = core.StringPtr(cell)
		case colPriceLevel:
			record.PriceLevel = core.StringPtr(cell)
		case colFollowers:
			n, err := parseInt(cell)
			if err != nil {
				return record, fmt.Errorf("followers %q: %w", cell, err)
			}
			record.Followers = &n
		case colFounded:
			n, err := parseInt(cell)
			if err != nil {
				return record, fmt.Errorf("founded %q: %w", cell, err)
			}
			year := int(n)
			record.Founded = &year
		}
	}
	return record, nil
}

// parseInt accepts thousands separators and integral floats such as "1999.0",
// which spreadsheet exports commonly produce.
func parseInt(s string) (int64, error) {
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("not an integer")
	}
	return int64(f), nil
}
