package filter

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Vocabulary lists the values a user may pick for each filter. Empty lists
// accept any value.
type Vocabulary struct {
	// AllLabel is the form value meaning "no preference".
	AllLabel string `yaml:"all_label"`

	Categories  []string `yaml:"categories"`
	Regions     []string `yaml:"regions"`
	PriceLevels []string `yaml:"price_levels"`

	// MinFoundedYear and MaxFoundedYear bound the founding-year slider.
	// A form value equal to MaxFoundedYear means "unset".
	MinFoundedYear int `yaml:"min_founded_year"`
	MaxFoundedYear int `yaml:"max_founded_year"`
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		AllLabel: "All",
		Categories: []string{
			"Apparel",
			"Beauty",
			"Entertainment",
			"Food & Beverage",
			"Home",
			"Sports",
			"Technology",
			"Toys",
		},
		Regions: []string{
			"Africa",
			"Asia",
			"Europe",
			"Latin America",
			"Middle East",
			"North America",
			"Oceania",
		},
		PriceLevels:    []string{"Budget", "Mid-Range", "Premium", "Luxury"},
		MinFoundedYear: 1800,
		MaxFoundedYear: 2025,
	}
}

// LoadVocabulary reads a YAML vocabulary. Keys missing from the file keep
// their default values.
func LoadVocabulary(path string) (*Vocabulary, error) {
	vocab := DefaultVocabulary()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	if err := yaml.Unmarshal(data, vocab); err != nil {
		return nil, fmt.Errorf("parse vocabulary file: %w", err)
	}

	if err := vocab.Validate(); err != nil {
		return nil, err
	}

	return vocab, nil
}

// Validate checks the vocabulary is internally consistent.
func (v *Vocabulary) Validate() error {
	if v.AllLabel == "" {
		return fmt.Errorf("%w: all_label is required", ErrInvalidVocabulary)
	}
	if v.MinFoundedYear > v.MaxFoundedYear {
		return fmt.Errorf("%w: min_founded_year %d exceeds max_founded_year %d",
			ErrInvalidVocabulary, v.MinFoundedYear, v.MaxFoundedYear)
	}
	for name, list := range map[string][]string{
		"categories":   v.Categories,
		"regions":      v.Regions,
		"price_levels": v.PriceLevels,
	} {
		if slices.Contains(list, v.AllLabel) {
			return fmt.Errorf("%w: %s contains the all label %q", ErrInvalidVocabulary, name, v.AllLabel)
		}
	}
	return nil
}

// Form holds filter values exactly as a form submits them.
type Form struct {
	Category      string
	MinFollowers  int64
	Region        string
	FoundedBefore int
	PriceLevel    string
}

// Selections translates form sentinels into explicit optional fields.
// The all label or an empty string leaves a text filter unset, a zero
// follower count leaves followers unset, and a founding year of zero or
// MaxFoundedYear leaves the year unset.
func (v *Vocabulary) Selections(f Form) Selections {
	var sel Selections
	sel.Category = v.text(f.Category)
	sel.Region = v.text(f.Region)
	sel.PriceLevel = v.text(f.PriceLevel)
	if f.MinFollowers != 0 {
		n := f.MinFollowers
		sel.MinFollowers = &n
	}
	if f.FoundedBefore != 0 && f.FoundedBefore != v.MaxFoundedYear {
		year := f.FoundedBefore
		sel.FoundedBefore = &year
	}
	return sel
}

// AllForm returns a form with every filter at its "no preference" value.
func (v *Vocabulary) AllForm() Form {
	return Form{
		Category:      v.AllLabel,
		Region:        v.AllLabel,
		PriceLevel:    v.AllLabel,
		FoundedBefore: v.MaxFoundedYear,
	}
}

func (v *Vocabulary) text(s string) *string {
	if s == "" || s == v.AllLabel {
		return nil
	}
	return &s
}
