package search

import (
	"strconv"

	"github.com/poiesic/brandmatch/core"
)

// displayText returns the value of s, or def when it is absent or blank.
func displayText(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func displayInt64(n *int64) string {
	if n == nil {
		return core.NotAvailable
	}
	return strconv.FormatInt(*n, 10)
}

func displayInt(n *int) string {
	if n == nil {
		return core.NotAvailable
	}
	return strconv.Itoa(*n)
}

// brandKey is the grouping key for a match.
func brandKey(m core.Match) string {
	switch {
	case m.BrandName != "":
		return m.BrandName
	case m.Metadata.Name != "":
		return m.Metadata.Name
	default:
		return core.UnknownBrand
	}
}
