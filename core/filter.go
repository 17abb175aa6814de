// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"strings"
)

// Field names a filterable metadata attribute.
type Field string

const (
	FieldCategory   Field = "category"
	FieldFollowers  Field = "followers"
	FieldRegion     Field = "region"
	FieldFounded    Field = "founded"
	FieldPriceLevel Field = "price_level"
)

// Op is the comparison applied by a Predicate.
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

// Predicate compares one metadata field against a value. Text is used by
// equality predicates, Number by range predicates.
type Predicate struct {
	Field  Field
	Op     Op
	Text   string
	Number int64
}

// String renders the predicate for logs.
func (p Predicate) String() string {
	switch p.Op {
	case OpEq:
		return fmt.Sprintf("%s == %q", p.Field, p.Text)
	case OpGte:
		return fmt.Sprintf("%s >= %d", p.Field, p.Number)
	case OpLte:
		return fmt.Sprintf("%s <= %d", p.Field, p.Number)
	default:
		return fmt.Sprintf("%s %s ?", p.Field, p.Op)
	}
}

// FilterSpec is a conjunction of predicates narrowing an index query.
//
// A nil *FilterSpec means "no filtering". Builders return nil rather than an
// empty spec, and index backends treat an empty spec the same as nil.
type FilterSpec struct {
	Predicates []Predicate
}

// Len returns the number of predicates. Safe on a nil spec.
func (f *FilterSpec) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Predicates)
}

// IsEmpty reports whether f has no predicates.
func (f *FilterSpec) IsEmpty() bool {
	return f.Len() == 0
}

// Get returns the first predicate on field, if any.
func (f *FilterSpec) Get(field Field) (Predicate, bool) {
	if f == nil {
		return Predicate{}, false
	}
	for _, p := range f.Predicates {
		if p.Field == field {
			return p, true
		}
	}
	return Predicate{}, false
}

// Matches reports whether m satisfies every predicate. An entry missing a
// filtered field never satisfies that predicate.
func (f *FilterSpec) Matches(m Metadata) bool {
	if f.IsEmpty() {
		return true
	}
	for _, p := range f.Predicates {
		if !p.matches(m) {
			return false
		}
	}
	return true
}

func (f *FilterSpec) String() string {
	if f.IsEmpty() {
		return "<none>"
	}
	parts := make([]string, len(f.Predicates))
	for i, p := range f.Predicates {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

func (p Predicate) matches(m Metadata) bool {
	switch p.Field {
	case FieldCategory:
		return p.matchText(m.Category)
	case FieldRegion:
		return p.matchText(m.Region)
	case FieldPriceLevel:
		return p.matchText(m.PriceLevel)
	case FieldFollowers:
		if m.Followers == nil {
			return false
		}
		return p.matchNumber(*m.Followers)
	case FieldFounded:
		if m.Founded == nil {
			return false
		}
		return p.matchNumber(int64(*m.Founded))
	}
	return false
}

func (p Predicate) matchText(v *string) bool {
	return v != nil && p.Op == OpEq && *v == p.Text
}

func (p Predicate) matchNumber(v int64) bool {
	switch p.Op {
	case OpEq:
		return v == p.Number
	case OpGte:
		return v >= p.Number
	case OpLte:
		return v <= p.Number
	}
	return false
}
