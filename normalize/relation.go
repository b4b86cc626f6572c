package normalize

// SynonymTable maps folded relation labels onto one canonical predicate.
// Keys and values must already be in canonical folded form.
type SynonymTable map[string]string

// DefaultSynonyms returns the synonym seed table observed in the source
// corpus. Deployments are expected to extend or replace it.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		"operates":      "operates",
		"manages":       "operates",
		"runs":          "operates",
		"operated by":   "operates",
		"carries":       "carries",
		"has onboard":   "carries",
		"hosts":         "carries",
		"equipped with": "carries",
		"measures":      "measures",
		"observes":      "measures",
		"monitors":      "measures",
		"launched by":   "launched by",
		"built by":      "built by",
		"developed by":  "built by",
		"part of":       "part of",
		"belongs to":    "part of",
	}
}

// Relation folds a raw relation label and resolves it through the table.
// Unmapped predicates pass through in folded form, which keeps them
// deduplication-safe without changing their meaning. Returns "" for labels
// with no semantic content.
func (t SynonymTable) Relation(raw string) string {
	folded := Entity(raw)
	if folded == "" {
		return ""
	}
	if canonical, ok := t[folded]; ok {
		return canonical
	}
	return folded
}
