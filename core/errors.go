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

import "errors"

// Domain validation errors
var (
	// ErrInvalidBrandRecord indicates a BrandRecord failed validation.
	ErrInvalidBrandRecord = errors.New("invalid brand record")

	// ErrInvalidIndexEntry indicates an IndexEntry failed validation.
	ErrInvalidIndexEntry = errors.New("invalid index entry")

	// ErrEmptyBrandName indicates the BrandName field is empty.
	ErrEmptyBrandName = errors.New("brand name cannot be empty")

	// ErrEmptyID indicates a brand name normalized to an empty identifier.
	ErrEmptyID = errors.New("normalized id is empty")

	// ErrNegativeFollowers indicates a follower count below zero.
	ErrNegativeFollowers = errors.New("followers cannot be negative")

	// ErrEmptyVector indicates an entry without an embedding.
	ErrEmptyVector = errors.New("vector cannot be empty")
)
