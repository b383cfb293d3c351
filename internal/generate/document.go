package generate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/retrieval"
)

// DocumentRequest identifies a full document to generate.
type DocumentRequest struct {
	CaseID      string
	Profession  string
	VisaType    string
	UseExamples bool
}

// SectionMeta carries the citation summary of one generated section.
type SectionMeta struct {
	SourceCitations map[string][]Citation
	LetterCitations map[string][]LetterCitation
	ChunkCount      int
	ExampleCount    int
}

// DocumentResult is a fully assembled multi-section document with citations.
type DocumentResult struct {
	FullText     string
	SectionOrder []string
	Sections     map[string]string
	SectionMeta  map[string]SectionMeta
	CaseMetadata retrieval.CaseMetadata
	CaseID       string
	VisaType     string
	Profession   string
	UsedExamples bool
}

// GenerateDocument resolves the section list from the registered templates
// (or the hard-coded default order when none resolve), drives the per-section
// state machine for each, and concatenates the results under fixed headings.
// The pass only reads the corpus and graph; it never mutates them.
// Cancellation between sections is safe: every completed section is already
// persisted idempotently in atomic memory.
func (g *Generator) GenerateDocument(ctx context.Context, req DocumentRequest) (*DocumentResult, error) {
	caseCtx := retrieval.NewCaseContext(g.store, req.CaseID, g.logger)

	sections := g.templates.Sections(req.Profession, req.VisaType)
	if len(sections) == 0 {
		sections = defaultSections
	}

	result := &DocumentResult{
		SectionOrder: sections,
		Sections:     make(map[string]string, len(sections)),
		SectionMeta:  make(map[string]SectionMeta, len(sections)),
		CaseMetadata: caseCtx.CaseMetadata(),
		CaseID:       req.CaseID,
		VisaType:     req.VisaType,
		Profession:   req.Profession,
		UsedExamples: req.UseExamples,
	}

	for _, section := range sections {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate document for case %s: %w", req.CaseID, err)
		}

		sectionResult, err := g.GenerateSection(ctx, SectionRequest{
			CaseID:      req.CaseID,
			Section:     section,
			Profession:  req.Profession,
			VisaType:    req.VisaType,
			UseExamples: req.UseExamples,
		})
		if err != nil {
			return nil, fmt.Errorf("generate document for case %s: %w", req.CaseID, err)
		}

		result.Sections[section] = sectionResult.Content
		result.SectionMeta[section] = SectionMeta{
			SourceCitations: sectionResult.SourceCitations,
			LetterCitations: sectionResult.LetterCitations,
			ChunkCount:      len(sectionResult.ChunksUsed),
			ExampleCount:    len(sectionResult.ExamplesUsed),
		}
	}

	result.FullText = assembleDocument(req, sections, result.Sections)

	g.logger.Info("Generated document",
		zap.String("case_id", req.CaseID),
		zap.String("visa_type", req.VisaType),
		zap.Int("sections", len(sections)),
	)
	return result, nil
}

// assembleDocument concatenates section contents under a fixed heading format.
func assembleDocument(req DocumentRequest, sections []string, contents map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Visa Application Letter for Case %s\n\n", req.VisaType, req.CaseID)
	for _, section := range sections {
		content, ok := contents[section]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "## %s\n", capitalize(section))
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// capitalize upper-cases the first rune of a section name for its heading.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
