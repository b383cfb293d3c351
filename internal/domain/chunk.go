package domain

// Metadata carries arbitrary chunk attributes. case_id is always present for
// corpus documents; the remaining keys depend on the document kind.
type Metadata map[string]any

// Well-known metadata keys.
const (
	KeyCaseID          = "case_id"
	KeyVisaType        = "visa_type"
	KeyCategory        = "category"
	KeyDocumentID      = "document_id"
	KeyFilename        = "filename"
	KeyProfession      = "profession"
	KeySectionID       = "section_id"
	KeyLetterID        = "letter_id"
	KeyDocumentType    = "document_type"
	KeyIsLetterExample = "is_letter_example"
	KeyChunkIndex      = "chunk_index"
	KeyParagraphIndex  = "paragraph_index"
)

// String returns the metadata value under key as a string, or "" when the key
// is absent or not a string.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// Bool returns the metadata value under key as a bool, defaulting to false.
func (m Metadata) Bool(key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

func (m Metadata) CaseID() string     { return m.String(KeyCaseID) }
func (m Metadata) VisaType() string   { return m.String(KeyVisaType) }
func (m Metadata) Category() string   { return m.String(KeyCategory) }
func (m Metadata) DocumentID() string { return m.String(KeyDocumentID) }
func (m Metadata) Filename() string   { return m.String(KeyFilename) }
func (m Metadata) Profession() string { return m.String(KeyProfession) }
func (m Metadata) SectionID() string  { return m.String(KeySectionID) }
func (m Metadata) LetterID() string   { return m.String(KeyLetterID) }

// IsLetterExample reports whether the chunk was indexed from an exemplar letter.
func (m Metadata) IsLetterExample() bool { return m.Bool(KeyIsLetterExample) }

// Clone returns a shallow copy so callers can extend metadata without
// mutating the stored chunk.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Chunk is the atomic retrievable unit: one paragraph of source text plus its
// metadata. Chunks are immutable once stored and identified by their position
// in the corpus store.
type Chunk struct {
	Text     string
	Metadata Metadata
}

// RetrievedChunk is a chunk returned from a retrieval operation together with
// its stable corpus id and similarity score.
type RetrievedChunk struct {
	ChunkID  int
	Text     string
	Metadata Metadata
	Score    float64
}

// Snippet returns at most n runes of text, with an ellipsis when truncated.
// Used for citation snippets.
func Snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
