package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrEmptyCorpus signals that no chunks have been ingested.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrUnknownSection signals an unrecognized section name.
	ErrUnknownSection = errors.New("unknown section")
	// ErrCorpusNotBuilt signals retrieval against a corpus whose graph has not been built.
	ErrCorpusNotBuilt = errors.New("corpus not built")
	// ErrSnapshotVersion signals an unsupported snapshot schema version.
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a text generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrTaggerProviderError signals a lexical tagger failure.
	ErrTaggerProviderError = errors.New("tagger provider error")
	// ErrMissingFields signals unresolved template placeholders.
	ErrMissingFields = errors.New("missing template fields")
)

// MissingFieldsError wraps ErrMissingFields with the set of placeholders that
// had no value during section assembly. The caller decides the fallback.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingFields.Error(), strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingFields }

// NewMissingFields creates a missing-fields error with a deterministic field order.
func NewMissingFields(fields map[string]struct{}) error {
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return &MissingFieldsError{Fields: names}
}
