package corpus

import "strings"

// SplitParagraphs splits raw text into paragraph chunks on blank-line-delimited
// blocks, dropping empty blocks. Paragraph order is preserved.
func SplitParagraphs(text string) []string {
	blocks := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}
		paragraphs = append(paragraphs, block)
	}
	return paragraphs
}
