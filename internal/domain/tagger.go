package domain

import (
	"context"
	"strings"
	"unicode"
)

// Lexeme is a single tagged token from the lexical tagger.
type Lexeme struct {
	Lemma string
	POS   string
}

// Part-of-speech tags used by the bipartite index.
const (
	POSNoun       = "NOUN"
	POSProperNoun = "PROPN"
)

// Tagger is the lexical tagging contract. Implementations are external
// services; the bipartite index keeps only noun and proper-noun lemmas.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]Lexeme, error)
}

// fallbackStopwords are common function words the heuristic tagger drops.
// A real tagger service filters by part of speech instead.
var fallbackStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"was": {}, "were": {}, "has": {}, "have": {}, "had": {}, "with": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "from": {}, "into": {},
	"their": {}, "they": {}, "them": {}, "its": {}, "his": {}, "her": {},
	"will": {}, "would": {}, "can": {}, "could": {}, "should": {}, "been": {},
	"which": {}, "while": {}, "where": {}, "when": {}, "who": {}, "whom": {},
	"also": {}, "such": {}, "than": {}, "then": {}, "there": {}, "here": {},
	"about": {}, "over": {}, "under": {}, "after": {}, "before": {}, "more": {},
	"most": {}, "other": {}, "some": {}, "any": {}, "all": {}, "each": {},
	"upon": {}, "through": {}, "during": {}, "between": {}, "within": {},
}

// FallbackTagger is a degraded-mode tagger used when no tagger service is
// configured: every lowercased alphabetic token longer than two runes that is
// not a stopword is emitted as a NOUN lexeme. Keyword recall is coarser than
// a real tagger but case scoping and determinism are preserved.
type FallbackTagger struct{}

// Tag implements Tagger.
func (FallbackTagger) Tag(_ context.Context, text string) ([]Lexeme, error) {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var lexemes []Lexeme
	for _, f := range fields {
		if len([]rune(f)) <= 2 {
			continue
		}
		if _, stop := fallbackStopwords[f]; stop {
			continue
		}
		lexemes = append(lexemes, Lexeme{Lemma: f, POS: POSNoun})
	}
	return lexemes, nil
}
