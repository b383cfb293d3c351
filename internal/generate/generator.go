// Package generate orchestrates document generation: it composes case-scoped
// retrieval, atomic memory, the template registry, and the letter processor
// into a per-section state machine with full citation traceability.
package generate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/corpus"
	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/letters"
	"github.com/kailas-cloud/casedex/internal/memory"
	"github.com/kailas-cloud/casedex/internal/metrics"
	"github.com/kailas-cloud/casedex/internal/retrieval"
	"github.com/kailas-cloud/casedex/internal/template"
)

// defaultSections is the hard-coded section order used when no registered
// template resolves for the requested profession and visa type.
var defaultSections = []string{"introduction", "background", "experience", "expert_opinion", "conclusion"}

// Options hold retrieval fan-out limits for evidence gathering.
type Options struct {
	CategoryTopK int // per primary-category query
	DefaultTopK  int // single broad query when no categories configured
	ExampleTopK  int // exemplar letters per section
}

// DefaultOptions returns the standard gathering limits.
func DefaultOptions() Options {
	return Options{CategoryTopK: 3, DefaultTopK: 5, ExampleTopK: 2}
}

// Generator drives document generation. All collaborator state (memory,
// registries) is owned and explicitly constructed; its lifecycle is the
// generator's lifecycle.
type Generator struct {
	store     *corpus.Store
	memory    *memory.Memory
	templates *template.Registry
	letters   *letters.Processor
	textGen   domain.TextGenerator // nil disables generation, placeholders are emitted
	opts      Options
	logger    *zap.Logger
}

// New creates a generator. textGen may be nil.
func New(
	store *corpus.Store,
	mem *memory.Memory,
	templates *template.Registry,
	letterProc *letters.Processor,
	textGen domain.TextGenerator,
	opts Options,
	logger *zap.Logger,
) *Generator {
	return &Generator{
		store:     store,
		memory:    mem,
		templates: templates,
		letters:   letterProc,
		textGen:   textGen,
		opts:      opts,
		logger:    logger,
	}
}

// Memory exposes the generator's atomic memory for traceability queries.
func (g *Generator) Memory() *memory.Memory { return g.memory }

// SectionRequest identifies one section to generate.
type SectionRequest struct {
	CaseID      string
	Section     string
	Profession  string
	VisaType    string
	UseExamples bool
}

// Citation points a generated part back at a source chunk.
type Citation struct {
	Filename string
	Snippet  string
}

// LetterCitation points a generated part back at an exemplar letter chunk.
type LetterCitation struct {
	LetterID   string
	VisaType   string
	Profession string
	Snippet    string
}

// SectionResult is the output of one section generation pass.
type SectionResult struct {
	Section            string
	Content            string
	SourceMapping      map[string][]domain.RetrievedChunk
	SourceCitations    map[string][]Citation
	LetterMapping      map[string][]domain.RetrievedChunk
	LetterCitations    map[string][]LetterCitation
	ChunksUsed         []domain.RetrievedChunk
	ExamplesUsed       []domain.RetrievedChunk
	UsedConcatFallback bool
}

// sectionState tracks the per-section pipeline progress.
type sectionState int

const (
	stateGatherEvidence sectionState = iota
	stateClassifyToParts
	stateSynthesizeParts
	stateAssembleSection
	stateDone
)

// sectionRun carries intermediate data between pipeline states.
type sectionRun struct {
	req           SectionRequest
	chunks        []domain.RetrievedChunk
	examples      []domain.RetrievedChunk
	sourceMapping map[string][]domain.RetrievedChunk
	letterMapping map[string][]domain.RetrievedChunk
	partContents  map[string]string
	result        *SectionResult
}

// GenerateSection runs the section state machine: gather evidence, classify
// it to template parts, synthesize each part in isolation, assemble the
// section, and persist content plus citations into atomic memory.
func (g *Generator) GenerateSection(ctx context.Context, req SectionRequest) (*SectionResult, error) {
	run := &sectionRun{req: req, result: &SectionResult{Section: req.Section}}

	for state := stateGatherEvidence; state != stateDone; {
		var err error
		switch state {
		case stateGatherEvidence:
			err = g.gatherEvidence(ctx, run)
			if err == nil && len(run.chunks) == 0 && len(run.examples) == 0 {
				return g.noInformation(req), nil
			}
			state = stateClassifyToParts
		case stateClassifyToParts:
			g.classifyToParts(run)
			state = stateSynthesizeParts
		case stateSynthesizeParts:
			g.synthesizeParts(ctx, run)
			state = stateAssembleSection
		case stateAssembleSection:
			g.assembleSection(run)
			state = stateDone
		}
		if err != nil {
			return nil, fmt.Errorf("generate section %s: %w", req.Section, err)
		}
	}

	g.persist(run)
	if run.result.UsedConcatFallback {
		metrics.SectionsGeneratedTotal.WithLabelValues("fallback_concat").Inc()
	} else {
		metrics.SectionsGeneratedTotal.WithLabelValues("ok").Inc()
	}
	return run.result, nil
}

// noInformation builds the labeled empty result for a section with zero
// evidence and zero exemplars.
func (g *Generator) noInformation(req SectionRequest) *SectionResult {
	g.logger.Warn("No chunks or examples found",
		zap.String("case_id", req.CaseID),
		zap.String("section", req.Section),
	)
	metrics.SectionsGeneratedTotal.WithLabelValues("no_information").Inc()
	return &SectionResult{
		Section:         req.Section,
		Content:         fmt.Sprintf("[No information available for %s]", req.Section),
		SourceMapping:   map[string][]domain.RetrievedChunk{},
		SourceCitations: map[string][]Citation{},
		LetterMapping:   map[string][]domain.RetrievedChunk{},
		LetterCitations: map[string][]LetterCitation{},
	}
}

// gatherEvidence issues one case-scoped query per configured primary category
// (or one broad query when none are configured) and collects exemplars when
// enabled.
func (g *Generator) gatherEvidence(ctx context.Context, run *sectionRun) error {
	req := run.req
	caseCtx := retrieval.NewCaseContext(g.store, req.CaseID, g.logger)

	var categories []string
	if spec, ok := memory.Spec(req.Section); ok {
		categories = spec.PrimaryCategories
	}

	if len(categories) > 0 {
		for _, category := range categories {
			query := fmt.Sprintf("Information for %s from %s", req.Section, category)
			chunks, err := caseCtx.RetrieveForCase(ctx, query, g.opts.CategoryTopK)
			if err != nil {
				return err
			}
			run.chunks = append(run.chunks, chunks...)
		}
	} else {
		query := fmt.Sprintf("Information for %s section", req.Section)
		chunks, err := caseCtx.RetrieveForCase(ctx, query, g.opts.DefaultTopK)
		if err != nil {
			return err
		}
		run.chunks = chunks
	}

	if req.UseExamples {
		run.examples = g.letters.RetrieveExamples(req.VisaType, req.Profession, req.Section, g.opts.ExampleTopK)
	}

	run.result.ChunksUsed = run.chunks
	run.result.ExamplesUsed = run.examples
	return nil
}

// classifyToParts maps evidence and exemplars onto the section's template
// parts through atomic memory.
func (g *Generator) classifyToParts(run *sectionRun) {
	run.sourceMapping = g.memory.MapChunksToParts(run.req.Section, run.chunks)
	if len(run.examples) > 0 {
		run.letterMapping = g.memory.MapLetterExamplesToParts(run.req.Section, run.examples)
	} else {
		run.letterMapping = map[string][]domain.RetrievedChunk{}
	}
	run.result.SourceMapping = run.sourceMapping
	run.result.LetterMapping = run.letterMapping
}

// synthesizeParts generates text for every template part from a prompt that
// contains only that part's classified evidence and exemplars, so no part's
// prompt leaks another part's evidence.
func (g *Generator) synthesizeParts(ctx context.Context, run *sectionRun) {
	req := run.req
	run.partContents = make(map[string]string)
	run.result.SourceCitations = make(map[string][]Citation)
	run.result.LetterCitations = make(map[string][]LetterCitation)

	for _, part := range partOrder(req.Section, run.sourceMapping) {
		partChunks := run.sourceMapping[part]
		partExamples := run.letterMapping[part]

		prompt := buildPartPrompt(req, part, partChunks, partExamples)
		run.partContents[part] = g.generateText(ctx, req, part, prompt, len(partChunks), len(partExamples))

		citations := make([]Citation, 0, len(partChunks))
		for _, chunk := range partChunks {
			citations = append(citations, Citation{
				Filename: orUnknown(chunk.Metadata.Filename()),
				Snippet:  domain.Snippet(chunk.Text, snippetRunes),
			})
		}
		run.result.SourceCitations[part] = citations

		letterCitations := make([]LetterCitation, 0, len(partExamples))
		for _, example := range partExamples {
			letterCitations = append(letterCitations, LetterCitation{
				LetterID:   orUnknown(example.Metadata.LetterID()),
				VisaType:   orUnknown(example.Metadata.VisaType()),
				Profession: orUnknown(example.Metadata.Profession()),
				Snippet:    domain.Snippet(example.Text, snippetRunes),
			})
		}
		run.result.LetterCitations[part] = letterCitations
	}
}

// generateText calls the generation provider, degrading to a labeled
// placeholder when no provider is configured or the provider ultimately
// fails. A generation failure never fails the document.
func (g *Generator) generateText(ctx context.Context, req SectionRequest, part, prompt string, chunkCount, exampleCount int) string {
	if g.textGen == nil {
		return placeholder(part, req.Section, chunkCount, exampleCount)
	}
	text, err := g.textGen.Generate(ctx, prompt)
	if err != nil {
		g.logger.Error("Generation failed, using placeholder",
			zap.String("section", req.Section),
			zap.String("part", part),
			zap.Error(err),
		)
		return placeholder(part, req.Section, chunkCount, exampleCount)
	}
	return text
}

// assembleSection fills the resolved template with per-part text. A missing
// template or unresolved placeholders fall back to concatenating the parts in
// their defined order.
func (g *Generator) assembleSection(run *sectionRun) {
	req := run.req
	tmpl := g.templates.Get(req.Profession, req.VisaType, req.Section)
	if tmpl == "" {
		run.result.Content = concatParts(req.Section, run.sourceMapping, run.partContents)
		run.result.UsedConcatFallback = true
		return
	}

	content, err := memory.RenderParts(tmpl, run.partContents)
	if err != nil {
		var missing *domain.MissingFieldsError
		if errors.As(err, &missing) {
			g.logger.Warn("Template assembly incomplete, falling back to concatenation",
				zap.String("section", req.Section),
				zap.Strings("missing_fields", missing.Fields),
			)
		}
		run.result.Content = concatParts(req.Section, run.sourceMapping, run.partContents)
		run.result.UsedConcatFallback = true
		return
	}
	run.result.Content = content
}

// persist writes every part's content and traceability into atomic memory.
// Each write is an idempotent overwrite, so an aborted document never leaves
// memory half-corrupted.
func (g *Generator) persist(run *sectionRun) {
	for _, part := range partOrder(run.req.Section, run.sourceMapping) {
		g.memory.AddSectionData(
			run.req.Section, part, run.partContents[part],
			run.sourceMapping[part], run.letterMapping[part],
		)
	}
}
