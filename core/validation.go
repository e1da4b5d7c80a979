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

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - SourceType must be one of the known types
//   - SourceId must not be empty
//   - SourceTitle must not be empty
//   - Content must not be empty
//
// NOT validated (populated by the store at write time):
//   - ContentPreview, SearchText, WordCount (derived fields)
//   - Id (assigned from the store sequence)
//   - IndexedAt (stamped on persist)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if err := ValidateSourceType(chunk.SourceType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	if chunk.SourceId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySourceId)
	}

	if chunk.SourceTitle == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySourceTitle)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	return nil
}

// ValidateSourceType validates that a SourceType has a valid value.
func ValidateSourceType(sourceType SourceType) error {
	if _, ok := sourceTypeNames[sourceType]; !ok {
		return fmt.Errorf("%w: value %d", ErrInvalidSourceType, sourceType)
	}
	return nil
}
