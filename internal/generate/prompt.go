package generate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/memory"
)

// snippetRunes bounds citation snippets.
const snippetRunes = 100

// buildPartPrompt renders the bounded, deterministic prompt for one template
// part. Only the part's own classified evidence and exemplars appear in it.
func buildPartPrompt(req SectionRequest, part string, chunks, examples []domain.RetrievedChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Generate the '%s' portion of the '%s' section for a %s visa application letter for a %s.\n\n",
		part, req.Section, req.VisaType, req.Profession,
	)
	b.WriteString("Use ONLY the following information from the applicant's documents:\n")
	b.WriteString(formatChunks(chunks))
	b.WriteString(formatLetterExamples(examples))
	b.WriteString("\nYour response should be factual, professional, and based primarily on the provided documents.\n")
	b.WriteString("Do not invent or assume information not present in the documents.\n")
	fmt.Fprintf(&b, "Focus specifically on information relevant to the '%s' aspect.\n", part)
	return b.String()
}

// formatChunks renders evidence chunks for inclusion in a prompt.
func formatChunks(chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "--- Document %d: %s ---\n", i+1, orUnknown(chunk.Metadata.Filename()))
		b.WriteString(chunk.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// formatLetterExamples renders exemplar chunks for inclusion in a prompt.
// Empty input yields an empty string so evidence-only prompts stay clean.
func formatLetterExamples(examples []domain.RetrievedChunk) string {
	if len(examples) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nEXAMPLES FROM SUCCESSFUL LETTERS:\n")
	for i, example := range examples {
		fmt.Fprintf(&b, "--- Example %d (%s, %s) ---\n",
			i+1, orUnknown(example.Metadata.VisaType()), orUnknown(example.Metadata.Profession()))
		b.WriteString(example.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// placeholder is the labeled substitute for generated text when no generation
// provider is available.
func placeholder(part, section string, chunkCount, exampleCount int) string {
	suffix := ""
	if exampleCount > 0 {
		suffix = fmt.Sprintf(" with %d letter examples", exampleCount)
	}
	return fmt.Sprintf("[Generated %s for %s based on %d chunks%s]", part, section, chunkCount, suffix)
}

// partOrder returns the section's template parts in their defined order,
// falling back to sorted mapping keys for sections without a static spec.
func partOrder(section string, mapping map[string][]domain.RetrievedChunk) []string {
	if spec, ok := memory.Spec(section); ok {
		return spec.TemplateParts
	}
	parts := make([]string, 0, len(mapping))
	for part := range mapping {
		parts = append(parts, part)
	}
	sort.Strings(parts)
	return parts
}

// concatParts joins part contents in their defined order, the deterministic
// assembly fallback.
func concatParts(section string, mapping map[string][]domain.RetrievedChunk, contents map[string]string) string {
	var texts []string
	for _, part := range partOrder(section, mapping) {
		if text, ok := contents[part]; ok {
			texts = append(texts, text)
		}
	}
	return joinParts(texts)
}

func joinParts(texts []string) string {
	var b strings.Builder
	for i, t := range texts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(t)
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
