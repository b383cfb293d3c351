// Package memory implements the atomic memory store: per-section, per-part
// generated content with full traceability back to the chunks and exemplar
// letters that justified it.
package memory

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
)

// Memory owns generated content and its source/exemplar traceability, keyed
// by (section, part). Writes are idempotent overwrites; one generation pass
// per key.
type Memory struct {
	content    map[string]map[string]string       // section -> part -> text
	sources    map[string][]domain.RetrievedChunk // "section.part" -> supporting chunks
	letterRefs map[string][]domain.RetrievedChunk // "section.part" -> supporting exemplars
	logger     *zap.Logger
}

// New creates an empty atomic memory.
func New(logger *zap.Logger) *Memory {
	return &Memory{
		content:    make(map[string]map[string]string),
		sources:    make(map[string][]domain.RetrievedChunk),
		letterRefs: make(map[string][]domain.RetrievedChunk),
		logger:     logger,
	}
}

// MapChunksToParts classifies each chunk into zero or more of the section's
// template parts by keyword match. After classification every part with zero
// matches receives the first candidate chunk as a deterministic fallback, so
// no part is left unsupported while any source exists. Unknown sections yield
// an empty mapping and a warning.
func (m *Memory) MapChunksToParts(section string, chunks []domain.RetrievedChunk) map[string][]domain.RetrievedChunk {
	spec, ok := Spec(section)
	if !ok {
		m.logger.Warn("Unknown section", zap.String("section", section))
		return map[string][]domain.RetrievedChunk{}
	}

	mapping := classify(spec, chunks)
	for _, part := range spec.TemplateParts {
		if len(mapping[part]) == 0 && len(chunks) > 0 {
			mapping[part] = []domain.RetrievedChunk{chunks[0]}
		}
	}
	return mapping
}

// MapLetterExamplesToParts mirrors the keyword classification for exemplar
// letters. No fallback: a part with zero matching exemplars stays empty.
func (m *Memory) MapLetterExamplesToParts(section string, examples []domain.RetrievedChunk) map[string][]domain.RetrievedChunk {
	spec, ok := Spec(section)
	if !ok {
		m.logger.Warn("Unknown section", zap.String("section", section))
		return map[string][]domain.RetrievedChunk{}
	}
	return classify(spec, examples)
}

// classify assigns each chunk to every part whose keyword set matches the
// chunk text. A chunk may land in multiple parts.
func classify(spec SectionSpec, chunks []domain.RetrievedChunk) map[string][]domain.RetrievedChunk {
	mapping := make(map[string][]domain.RetrievedChunk, len(spec.TemplateParts))
	for _, part := range spec.TemplateParts {
		mapping[part] = nil
	}

	for _, chunk := range chunks {
		text := strings.ToLower(chunk.Text)
		for _, part := range spec.TemplateParts {
			for _, keyword := range partKeywords[part] {
				if strings.Contains(text, keyword) {
					mapping[part] = append(mapping[part], chunk)
					break
				}
			}
		}
	}
	return mapping
}

// AddSectionData stores generated content for (section, part) along with its
// traceability. Calling it again for the same key overwrites everything.
func (m *Memory) AddSectionData(section, part, content string, sourceChunks, letterRefs []domain.RetrievedChunk) {
	if m.content[section] == nil {
		m.content[section] = make(map[string]string)
	}
	m.content[section][part] = content

	key := contentKey(section, part)
	if sourceChunks != nil {
		m.sources[key] = sourceChunks
	}
	if letterRefs != nil {
		m.letterRefs[key] = letterRefs
	}
}

// SectionData returns all part contents of a section, or nil when nothing has
// been generated for it.
func (m *Memory) SectionData(section string) map[string]string {
	parts, ok := m.content[section]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(parts))
	for k, v := range parts {
		out[k] = v
	}
	return out
}

// PartData returns the content stored for (section, part).
func (m *Memory) PartData(section, part string) (string, bool) {
	text, ok := m.content[section][part]
	return text, ok
}

// SourcesFor returns the supporting chunks for (section, part).
func (m *Memory) SourcesFor(section, part string) []domain.RetrievedChunk {
	return m.sources[contentKey(section, part)]
}

// Sources returns the supporting chunks across all parts of a section.
func (m *Memory) Sources(section string) []domain.RetrievedChunk {
	return collect(m.sources, section)
}

// LetterRefsFor returns the exemplar references for (section, part).
func (m *Memory) LetterRefsFor(section, part string) []domain.RetrievedChunk {
	return m.letterRefs[contentKey(section, part)]
}

// LetterRefs returns the exemplar references across all parts of a section.
func (m *Memory) LetterRefs(section string) []domain.RetrievedChunk {
	return collect(m.letterRefs, section)
}

// AllData returns a copy of all generated content.
func (m *Memory) AllData() map[string]map[string]string {
	out := make(map[string]map[string]string, len(m.content))
	for section := range m.content {
		out[section] = m.SectionData(section)
	}
	return out
}

// AllSources returns a copy of the full source traceability map.
func (m *Memory) AllSources() map[string][]domain.RetrievedChunk {
	return copyRefs(m.sources)
}

// AllLetterRefs returns a copy of the full exemplar traceability map.
func (m *Memory) AllLetterRefs() map[string][]domain.RetrievedChunk {
	return copyRefs(m.letterRefs)
}

// ReferencedLetterIDs returns every distinct letter id referenced anywhere in
// memory, sorted.
func (m *Memory) ReferencedLetterIDs() []string {
	ids := make(map[string]struct{})
	for _, refs := range m.letterRefs {
		for _, ref := range refs {
			if id := ref.Metadata.LetterID(); id != "" {
				ids[id] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sortStrings(out)
	return out
}

// FillTemplate replaces every {{key}} placeholder present in the flattened
// content map (and any extra fields) with its value. Sections are flattened
// in sorted name order, later sections overriding earlier ones for duplicate
// part names. Placeholders with no matching key are left unreplaced.
func (m *Memory) FillTemplate(template string, extra map[string]string) string {
	data := make(map[string]string)

	sections := make([]string, 0, len(m.content))
	for section := range m.content {
		sections = append(sections, section)
	}
	sortStrings(sections)
	for _, section := range sections {
		for part, text := range m.content[section] {
			data[part] = text
		}
	}
	for k, v := range extra {
		data[k] = v
	}

	result := template
	for key, value := range data {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

var placeholderRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// RenderParts fills {{part}} placeholders in a section template from the
// given part contents. When placeholders remain unresolved it returns the
// partial text together with a MissingFieldsError; the caller decides whether
// to fall back to concatenation.
func RenderParts(template string, parts map[string]string) (string, error) {
	result := template
	for part, text := range parts {
		result = strings.ReplaceAll(result, "{{"+part+"}}", text)
	}

	missing := make(map[string]struct{})
	for _, match := range placeholderRegex.FindAllStringSubmatch(result, -1) {
		missing[match[1]] = struct{}{}
	}
	if len(missing) > 0 {
		return result, domain.NewMissingFields(missing)
	}
	return result, nil
}

func contentKey(section, part string) string { return section + "." + part }

func collect(refs map[string][]domain.RetrievedChunk, section string) []domain.RetrievedChunk {
	prefix := section + "."
	keys := make([]string, 0)
	for key := range refs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sortStrings(keys)

	var out []domain.RetrievedChunk
	for _, key := range keys {
		out = append(out, refs[key]...)
	}
	return out
}

func copyRefs(refs map[string][]domain.RetrievedChunk) map[string][]domain.RetrievedChunk {
	out := make(map[string][]domain.RetrievedChunk, len(refs))
	for k, v := range refs {
		cp := make([]domain.RetrievedChunk, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

func sortStrings(s []string) { sort.Strings(s) }
