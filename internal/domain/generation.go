package domain

import "context"

// TextGenerator is the text generation contract. The provider is optional:
// when none is configured the generator substitutes a labeled placeholder
// instead of failing the document.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
