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

// ValidateEntity validates an Entity according to domain rules.
//
// Validation rules:
//   - Key must not be empty (a mention that folds to nothing is malformed)
//
// NOT validated:
//   - Type (empty means unset, which is allowed)
//   - Aliases (grow over time, may be empty for a freshly created entity)
//   - Id (derived from Key by the store)
func ValidateEntity(entity *Entity) error {
	if entity == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidEntity)
	}

	if entity.Key == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrEmptyKey)
	}

	return nil
}

// ValidateRelation validates a Relation according to domain rules.
//
// Validation rules:
//   - SubjectId and ObjectId must be non-zero
//   - Predicate must not be empty
func ValidateRelation(relation *Relation) error {
	if relation == nil {
		return fmt.Errorf("%w: relation is nil", ErrInvalidRelation)
	}

	if relation.SubjectId == 0 || relation.ObjectId == 0 {
		return fmt.Errorf("%w: endpoint id is zero", ErrInvalidRelation)
	}

	if relation.Predicate == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRelation, ErrEmptyPredicate)
	}

	return nil
}

// ValidatePassage validates a Passage according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the embedding processor runs)
//   - TripleId (0 is valid for document chunks)
func ValidatePassage(passage *Passage) error {
	if passage == nil {
		return fmt.Errorf("%w: passage is nil", ErrInvalidPassage)
	}

	if passage.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyText)
	}

	return nil
}
