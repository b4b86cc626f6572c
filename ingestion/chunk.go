package ingestion

import (
	"fmt"
	"strings"
)

const (
	// defaultChunkSize is the target chunk length in bytes.
	defaultChunkSize = 1000

	// defaultChunkOverlap is how much of the previous chunk's tail is
	// repeated at the start of the next one, so statements split across a
	// boundary stay retrievable.
	defaultChunkOverlap = 100
)

// chunk is one windowed slice of a source document.
type chunk struct {
	text   string
	source string // "<document>_<index>"
}

// chunkText splits a document into overlapping windows. Split points prefer
// the last whitespace before the size limit so words are not cut in half.
// Chunk sources are numbered "<source>_0", "<source>_1", ...
func chunkText(source, text string, size, overlap int) []chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size < 1 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []chunk
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			// Back off to the last whitespace inside the window.
			if cut := strings.LastIndexFunc(text[start:end], isChunkSpace); cut > 0 {
				end = start + cut
			}
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, chunk{
				text:   piece,
				source: fmt.Sprintf("%s_%d", source, len(chunks)),
			})
		}

		if end >= len(text) {
			break
		}
		// The next window starts on a word boundary at or before the
		// overlap point, so the repeated tail never begins mid-word.
		next := end - overlap
		if overlap > 0 && next > start {
			if cut := strings.LastIndexFunc(text[start:next], isChunkSpace); cut >= 0 {
				next = start + cut + 1
			} else {
				next = end
			}
		}
		// Overlap must never stall the window.
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func isChunkSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
