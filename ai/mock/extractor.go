package mock

import (
	"context"
	"strings"

	"github.com/poiesic/triad/ai"
)

// MockTripleExtractor is a test double for ai.TripleExtractor.
// It allows custom behavior injection via function fields.
type MockTripleExtractor struct {
	// ExtractTriplesFunc is called by ExtractTriples if set.
	// If nil, uses default simple sentence heuristics.
	ExtractTriplesFunc func(ctx context.Context, text string) ([]ai.ExtractedTriple, error)

	callCount int
}

// NewMockTripleExtractor creates a mock triple extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockTripleExtractor() *MockTripleExtractor {
	return &MockTripleExtractor{}
}

// ExtractTriples extracts simple mock triples from text.
// Default behavior: for each sentence with at least three words, emits a triple
// using the first word as subject, second as predicate, and the rest as object.
func (m *MockTripleExtractor) ExtractTriples(ctx context.Context, text string) ([]ai.ExtractedTriple, error) {
	m.callCount++

	if m.ExtractTriplesFunc != nil {
		return m.ExtractTriplesFunc(ctx, text)
	}

	sentences := strings.Split(text, ".")
	triples := make([]ai.ExtractedTriple, 0, len(sentences))
	for _, sentence := range sentences {
		words := strings.Fields(strings.TrimSpace(sentence))
		if len(words) < 3 {
			continue
		}
		if len(triples) >= 5 { // Limit to 5 triples
			break
		}

		triples = append(triples, ai.ExtractedTriple{
			Subject:     words[0],
			SubjectType: "technology",
			Predicate:   strings.ToLower(words[1]),
			Object:      strings.Join(words[2:], " "),
			ObjectType:  "technology",
			Confidence:  0.9,
		})
	}

	return triples, nil
}

// CallCount returns the number of times ExtractTriples was called.
func (m *MockTripleExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockTripleExtractor) Reset() {
	m.callCount = 0
	m.ExtractTriplesFunc = nil
}
