// Package letters indexes previously accepted exemplar letters as retrievable
// chunks and keeps a registry of their metadata.
package letters

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/corpus"
	"github.com/kailas-cloud/casedex/internal/domain"
)

// documentTypeLetter tags exemplar chunks in metadata.
const documentTypeLetter = "successful_letter"

// Processor ingests exemplar letters into the corpus and retrieves them by
// exact-match filters.
type Processor struct {
	store    *corpus.Store
	registry map[string]domain.Metadata
	logger   *zap.Logger
}

// NewProcessor creates a letter processor over the given corpus store.
func NewProcessor(store *corpus.Store, logger *zap.Logger) *Processor {
	return &Processor{store: store, registry: make(map[string]domain.Metadata), logger: logger}
}

// ProcessLetter indexes an exemplar letter. Without sections the whole letter
// becomes ordinary chunks tagged is_letter_example; with sections each section
// is indexed separately and additionally tagged with its section_id. A letter
// id is generated when the caller supplies none. Returns the letter id.
func (p *Processor) ProcessLetter(ctx context.Context, text string, metadata domain.Metadata, sections map[string]string) (string, error) {
	letterID := metadata.LetterID()
	if letterID == "" {
		letterID = uuid.NewString()
	}

	md := metadata.Clone()
	md[domain.KeyLetterID] = letterID
	p.registry[letterID] = md

	if len(sections) == 0 {
		chunkMD := md.Clone()
		chunkMD[domain.KeyDocumentType] = documentTypeLetter
		chunkMD[domain.KeyIsLetterExample] = true
		if _, err := p.store.ProcessDocument(ctx, text, chunkMD); err != nil {
			return "", fmt.Errorf("process letter %s: %w", letterID, err)
		}
		p.logger.Info("Processed full letter",
			zap.String("letter_id", letterID),
			zap.String("visa_type", md.VisaType()),
		)
		return letterID, nil
	}

	sectionIDs := make([]string, 0, len(sections))
	for id := range sections {
		sectionIDs = append(sectionIDs, id)
	}
	sort.Strings(sectionIDs)

	for _, sectionID := range sectionIDs {
		chunkMD := md.Clone()
		chunkMD[domain.KeyDocumentType] = documentTypeLetter
		chunkMD[domain.KeyIsLetterExample] = true
		chunkMD[domain.KeySectionID] = sectionID
		if _, err := p.store.ProcessDocument(ctx, sections[sectionID], chunkMD); err != nil {
			return "", fmt.Errorf("process letter %s section %s: %w", letterID, sectionID, err)
		}
		p.logger.Info("Processed letter section",
			zap.String("letter_id", letterID),
			zap.String("section_id", sectionID),
		)
	}
	return letterID, nil
}

// RetrieveExamples returns up to topK exemplar chunks matching all non-empty
// filter criteria exactly, in store order. Deliberately a filter rather than
// a ranked search so citations stay deterministic and auditable.
func (p *Processor) RetrieveExamples(visaType, profession, sectionID string, topK int) []domain.RetrievedChunk {
	var out []domain.RetrievedChunk
	p.store.Scan(func(id int, c domain.Chunk) bool {
		md := c.Metadata
		if !md.IsLetterExample() {
			return true
		}
		if md.VisaType() != visaType {
			return true
		}
		if profession != "" && md.Profession() != profession {
			return true
		}
		if sectionID != "" && md.SectionID() != sectionID {
			return true
		}
		out = append(out, domain.RetrievedChunk{ChunkID: id, Text: c.Text, Metadata: md})
		return topK <= 0 || len(out) < topK
	})
	return out
}

// LetterMetadata returns the registered metadata for a letter id.
func (p *Processor) LetterMetadata(letterID string) (domain.Metadata, bool) {
	md, ok := p.registry[letterID]
	return md, ok
}

// Letters returns all registered letters, optionally filtered by visa type
// and profession, sorted by letter id.
func (p *Processor) Letters(visaType, profession string) []domain.Metadata {
	ids := make([]string, 0, len(p.registry))
	for id := range p.registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []domain.Metadata
	for _, id := range ids {
		md := p.registry[id]
		if visaType != "" && md.VisaType() != visaType {
			continue
		}
		if profession != "" && md.Profession() != profession {
			continue
		}
		out = append(out, md)
	}
	return out
}

// Export copies the letter registry for snapshot serialization.
func (p *Processor) Export() map[string]domain.Metadata {
	out := make(map[string]domain.Metadata, len(p.registry))
	for id, md := range p.registry {
		out[id] = md.Clone()
	}
	return out
}

// Restore replaces the letter registry from a snapshot.
func (p *Processor) Restore(registry map[string]domain.Metadata) {
	p.registry = make(map[string]domain.Metadata, len(registry))
	for id, md := range registry {
		p.registry[id] = md.Clone()
	}
}
