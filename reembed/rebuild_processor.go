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

package reembed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/triad/ai"
	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/graph"
	"github.com/poiesic/triad/storage"
)

// GraphRebuildProcessor re-extracts triples from batches of document chunks
// and applies them against the graph.
type GraphRebuildProcessor struct {
	store          *graph.Store
	passageRepo    storage.PassageRepository
	embedder       ai.Embedder
	extractor      ai.TripleExtractor
	maxRetries     int
	retryBaseDelay time.Duration

	// accumulated across Process calls
	applied  int
	newEdges int
	skipped  int
}

// NewGraphRebuildProcessor creates a new graph rebuild processor.
// maxRetries: maximum number of retry attempts for AI API calls
// retryBaseDelay: base delay for exponential backoff
func NewGraphRebuildProcessor(
	store *graph.Store,
	passageRepo storage.PassageRepository,
	embedder ai.Embedder,
	extractor ai.TripleExtractor,
	maxRetries int,
	retryBaseDelay time.Duration,
) *GraphRebuildProcessor {
	return &GraphRebuildProcessor{
		store:          store,
		passageRepo:    passageRepo,
		embedder:       embedder,
		extractor:      extractor,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process re-extracts triples from a batch of passages and applies them.
// Passages carrying relation provenance are skipped; only document chunks are
// extraction sources. For each chunk:
//  1. Extracts triples using the AI TripleExtractor
//  2. Upserts entities with their type hints, then the relations
//  3. Indexes an embedded provenance passage for every new edge
//
// Extraction failures are collected and joined; the rest of the batch still
// lands.
func (p *GraphRebuildProcessor) Process(ctx context.Context, passages []*core.Passage) error {
	if len(passages) == 0 {
		return nil
	}

	var extractionErrors []error
	var provenance []*core.Passage

	for idx, passage := range passages {
		if passage.TripleId != 0 {
			continue
		}

		var extracted []ai.ExtractedTriple
		err := RetryWithBackoff(ctx, func() error {
			var err error
			extracted, err = p.extractor.ExtractTriples(ctx, passage.Text)
			return err
		}, p.maxRetries, p.retryBaseDelay)

		if err != nil {
			extractionErrors = append(extractionErrors, fmt.Errorf("passage %d (%v) extraction failed: %w", idx, passage.Id, err))
			continue
		}

		for _, et := range extracted {
			relation, added, err := p.applyTriple(ctx, passage.Source, et)
			if errors.Is(err, core.ErrMalformedTriple) {
				p.skipped++
				continue
			}
			if err != nil {
				return err
			}
			p.applied++
			if !added {
				continue
			}
			p.newEdges++
			provenance = append(provenance, &core.Passage{
				Text:     tripleSentence(et, relation.Predicate),
				Source:   passage.Source,
				TripleId: relation.Id,
			})
		}
	}

	if len(provenance) > 0 {
		if err := p.indexProvenance(ctx, provenance); err != nil {
			extractionErrors = append(extractionErrors, fmt.Errorf("provenance indexing failed: %w", err))
		}
	}

	if len(extractionErrors) > 0 {
		return errors.Join(extractionErrors...)
	}

	return nil
}

// Stats returns the totals accumulated across all Process calls.
func (p *GraphRebuildProcessor) Stats() (applied, newEdges, skipped int) {
	return p.applied, p.newEdges, p.skipped
}

// applyTriple upserts both endpoints with their type hints, then the relation.
func (p *GraphRebuildProcessor) applyTriple(ctx context.Context, source string, et ai.ExtractedTriple) (*core.Relation, bool, error) {
	if _, err := p.store.UpsertEntity(ctx, et.Subject, et.SubjectType); err != nil {
		return nil, false, err
	}
	if _, err := p.store.UpsertEntity(ctx, et.Object, et.ObjectType); err != nil {
		return nil, false, err
	}
	return p.store.UpsertRelation(ctx, core.Triple{
		Subject:    et.Subject,
		Predicate:  et.Predicate,
		Object:     et.Object,
		Confidence: et.Confidence,
		Source:     source,
	})
}

// indexProvenance embeds and stores provenance passages for new edges.
func (p *GraphRebuildProcessor) indexProvenance(ctx context.Context, passages []*core.Passage) error {
	texts := make([]string, len(passages))
	for i, passage := range passages {
		texts[i] = passage.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = p.embedder.EmbedTexts(ctx, texts)
		return err
	}, p.maxRetries, p.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", p.maxRetries, err)
	}

	if len(embeddings) != len(passages) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(passages), len(embeddings))
	}

	for i := range passages {
		passages[i].Vector = NormalizeVector(embeddings[i])
	}

	_, err = p.passageRepo.AddPassages(ctx, passages...)
	return err
}

// tripleSentence renders the textual form of an extracted relation.
func tripleSentence(et ai.ExtractedTriple, predicate string) string {
	return strings.TrimSpace(et.Subject) + " " + predicate + " " + strings.TrimSpace(et.Object) + "."
}
