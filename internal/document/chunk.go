package document

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
)

type chunker struct {
	chunkSize int
	overlap   int
	redactPII bool
}

// split cuts text into overlapping chunks, preferring sentence boundaries
// near the chunk edge.
func (c chunker) split(text string, page int) []Chunk {
	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end < len(text) {
			if dot := strings.LastIndex(text[start:end], "."); dot > c.chunkSize-100 {
				end = start + dot + 1
			}
		} else {
			end = len(text)
		}

		chunkText := strings.TrimSpace(text[start:end])
		if chunkText != "" {
			if c.redactPII {
				chunkText = redact(chunkText)
			}
			chunks = append(chunks, Chunk{
				Text:      chunkText,
				Page:      page,
				StartChar: start,
				EndChar:   end,
			})
		}

		if end >= len(text) {
			break
		}
		start = end - c.overlap
	}
	return chunks
}

func redact(text string) string {
	text = emailPattern.ReplaceAllString(text, "[EMAIL]")
	text = phonePattern.ReplaceAllString(text, "[PHONE]")
	return text
}
