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
	// ErrInvalidEntity indicates an Entity failed validation.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrInvalidRelation indicates a Relation failed validation.
	ErrInvalidRelation = errors.New("invalid relation")

	// ErrInvalidPassage indicates a Passage failed validation.
	ErrInvalidPassage = errors.New("invalid passage")

	// ErrMalformedTriple indicates a triple whose subject or object
	// normalizes to the empty string. Such triples are skipped and
	// counted during ingestion, never inserted.
	ErrMalformedTriple = errors.New("malformed triple")

	// ErrEmptyKey indicates the canonical Key field is empty.
	ErrEmptyKey = errors.New("entity key cannot be empty")

	// ErrEmptyPredicate indicates the Predicate field is empty.
	ErrEmptyPredicate = errors.New("predicate cannot be empty")

	// ErrEmptyText indicates the passage Text field is empty.
	ErrEmptyText = errors.New("passage text cannot be empty")
)
