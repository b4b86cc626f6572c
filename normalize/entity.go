package normalize

import (
	"strings"
	"unicode"
)

// Entity folds a raw entity mention into its canonical form.
//
// Folding rules:
//   - case is folded to lower
//   - runs of punctuation, hyphens, underscores and whitespace are
//     equivalent, collapsed to a single space
//   - leading and trailing separators are trimmed
//
// Punctuation separates rather than disappears, so "INSAT-3D", "INSAT.3D"
// and "INSAT 3D" all fold to the same key. The result contains only
// lower-case letters, digits and single interior spaces, which makes the
// function idempotent: Entity(Entity(x)) == Entity(x).
// Returns "" for mentions with no semantic content.
func Entity(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	pendingSpace := false
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
		} else {
			pendingSpace = true
		}
	}

	return b.String()
}

// Tokens folds a free-text query and splits it into canonical tokens.
// Token order follows the original text, so consumers that match tokens
// against the graph get a deterministic seed ordering for free.
func Tokens(query string) []string {
	folded := Entity(query)
	if folded == "" {
		return nil
	}
	return strings.Split(folded, " ")
}

// Spans enumerates the canonical n-gram spans of a query up to maxTokens
// tokens, longest first within each start position. Seed matching looks
// each span up against entity keys and aliases; preferring longer spans
// lets "insat 3d" win over "insat" and "3d".
func Spans(query string, maxTokens int) []string {
	tokens := Tokens(query)
	if len(tokens) == 0 {
		return nil
	}
	if maxTokens < 1 {
		maxTokens = 1
	}

	spans := make([]string, 0, len(tokens)*maxTokens)
	for start := range tokens {
		longest := start + maxTokens
		if longest > len(tokens) {
			longest = len(tokens)
		}
		for end := longest; end > start; end-- {
			spans = append(spans, strings.Join(tokens[start:end], " "))
		}
	}
	return spans
}
