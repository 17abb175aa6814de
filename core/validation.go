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

import "fmt"

// ValidateBrandRecord validates a BrandRecord according to domain rules.
//
// Validation rules:
//   - BrandName must not be empty
//   - BrandName must normalize to a non-empty ID
//   - Followers, when present, must not be negative
//
// Text fields are not validated; an empty embedding text is reported by the
// embedding step instead.
func ValidateBrandRecord(record *BrandRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidBrandRecord)
	}

	if record.BrandName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBrandRecord, ErrEmptyBrandName)
	}

	if NormalizeID(record.BrandName) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBrandRecord, ErrEmptyID)
	}

	if record.Followers != nil && *record.Followers < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidBrandRecord, ErrNegativeFollowers)
	}

	return nil
}

// ValidateIndexEntry validates an IndexEntry before it is written.
func ValidateIndexEntry(entry *IndexEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidIndexEntry)
	}

	if entry.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidIndexEntry, ErrEmptyID)
	}

	if len(entry.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidIndexEntry, ErrEmptyVector)
	}

	return nil
}
