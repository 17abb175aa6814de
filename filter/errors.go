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

package filter

import "errors"

var (
	// ErrUnknownValue indicates a selection outside the configured vocabulary.
	ErrUnknownValue = errors.New("value not in vocabulary")

	// ErrEmptyValue indicates a concrete selection with an empty string.
	ErrEmptyValue = errors.New("selection cannot be empty")

	// ErrNegativeFollowers indicates a negative minimum follower count.
	ErrNegativeFollowers = errors.New("minimum followers cannot be negative")

	// ErrOutOfRange indicates a founding year outside the vocabulary bounds.
	ErrOutOfRange = errors.New("year out of range")

	// ErrInvalidVocabulary indicates a vocabulary that failed validation.
	ErrInvalidVocabulary = errors.New("invalid vocabulary")
)
