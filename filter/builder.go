package filter

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/brandmatch/core"
)

// Selections holds the user's filter choices. A nil field means the user
// expressed no preference for it.
type Selections struct {
	Category      *string
	MinFollowers  *int64
	Region        *string
	FoundedBefore *int
	PriceLevel    *string
}

// Builder converts Selections into a FilterSpec, validating concrete values
// against a Vocabulary.
type Builder struct {
	vocab  *Vocabulary
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithVocabulary sets the vocabulary used for validation.
func WithVocabulary(v *Vocabulary) Option {
	return func(b *Builder) {
		if v != nil {
			b.vocab = v
		}
	}
}

// WithLogger sets the builder logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder using DefaultVocabulary unless overridden.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		vocab:  DefaultVocabulary(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "filter-builder")
	return b
}

// Vocabulary returns the builder's vocabulary.
func (b *Builder) Vocabulary() *Vocabulary {
	return b.vocab
}

// Build returns the FilterSpec for sel, or nil when sel selects nothing.
//
// Predicates are emitted in a fixed order: category, followers, region,
// founded, price_level.
func (b *Builder) Build(sel Selections) (*core.FilterSpec, error) {
	var preds []core.Predicate

	if sel.Category != nil {
		if err := checkText("category", *sel.Category, b.vocab.Categories); err != nil {
			return nil, err
		}
		preds = append(preds, core.Predicate{Field: core.FieldCategory, Op: core.OpEq, Text: *sel.Category})
	}

	if sel.MinFollowers != nil {
		n := *sel.MinFollowers
		if n < 0 {
			return nil, fmt.Errorf("%w: %d", ErrNegativeFollowers, n)
		}
		if n > 0 {
			preds = append(preds, core.Predicate{Field: core.FieldFollowers, Op: core.OpGte, Number: n})
		}
	}

	if sel.Region != nil {
		if err := checkText("region", *sel.Region, b.vocab.Regions); err != nil {
			return nil, err
		}
		preds = append(preds, core.Predicate{Field: core.FieldRegion, Op: core.OpEq, Text: *sel.Region})
	}

	if sel.FoundedBefore != nil {
		year := *sel.FoundedBefore
		if b.vocab.MaxFoundedYear > 0 && (year < b.vocab.MinFoundedYear || year > b.vocab.MaxFoundedYear) {
			return nil, fmt.Errorf("%w: founded_before %d not in [%d, %d]",
				ErrOutOfRange, year, b.vocab.MinFoundedYear, b.vocab.MaxFoundedYear)
		}
		preds = append(preds, core.Predicate{Field: core.FieldFounded, Op: core.OpLte, Number: int64(year)})
	}

	if sel.PriceLevel != nil {
		if err := checkText("price_level", *sel.PriceLevel, b.vocab.PriceLevels); err != nil {
			return nil, err
		}
		preds = append(preds, core.Predicate{Field: core.FieldPriceLevel, Op: core.OpEq, Text: *sel.PriceLevel})
	}

	if len(preds) == 0 {
		b.logger.Debug("no filter selected")
		return nil, nil
	}

	spec := &core.FilterSpec{Predicates: preds}
	b.logger.Debug("built filter", "filter", spec.String(), "predicates", len(preds))
	return spec, nil
}

// BuildForm translates a raw form and builds its FilterSpec.
func (b *Builder) BuildForm(f Form) (*core.FilterSpec, error) {
	return b.Build(b.vocab.Selections(f))
}

func checkText(field, value string, allowed []string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrEmptyValue, field)
	}
	if len(allowed) > 0 && !slices.Contains(allowed, value) {
		return fmt.Errorf("%w: %s %q", ErrUnknownValue, field, value)
	}
	return nil
}
