// Package chunker splits extracted document text into overlapping chunks.
package chunker

import "strings"

// Chunker splits text into overlapping character windows, preferring to cut at
// sentence boundaries. Splitting is deterministic: the same text and settings
// always produce the same chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// sentenceBoundaryRatio is how far into the window a period must appear for the
// chunk to be truncated there instead of cutting mid-sentence.
const sentenceBoundaryRatio = 0.7

// NewChunker creates a chunker with the given window size and overlap (in characters).
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the chunk texts for text, in document order. Each window takes
// up to chunkSize characters; when the window does not reach the end of text
// and its last period falls at least 70% into the window, the chunk is cut
// after that period. The next window starts overlap characters before the end
// of the previous one, so consecutive chunks share context. Whitespace-only
// chunks are dropped.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		window := runes[start:end]

		if end < len(runes) {
			if cut := lastPeriod(window); cut > int(float64(c.chunkSize)*sentenceBoundaryRatio) {
				window = window[:cut+1]
				end = start + cut + 1
			}
		}

		if chunk := strings.TrimSpace(string(window)); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(runes) {
			break
		}
		// A sentence cut can shrink the window below the overlap; the next
		// start must still move forward or the loop would never terminate.
		if next := end - c.overlap; next > start {
			start = next
		} else {
			start = end
		}
	}
	return chunks
}

// lastPeriod returns the index of the last '.' in window, or -1.
func lastPeriod(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' {
			return i
		}
	}
	return -1
}
