// Package chunker splits text into overlapping windows for embedding.
// Consecutive chunks overlap by exactly the configured number of runes, so
// concatenating the first chunk with every later chunk minus its overlap
// prefix reproduces the input byte for byte.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Config controls chunk window sizing, both counted in runes.
type Config struct {
	ChunkSize    int // maximum chunk length
	ChunkOverlap int // exact overlap between consecutive chunks
}

// DefaultConfig returns the default chunk configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
	}
}

// normalize clamps the configuration to values the splitting loop can make
// progress with.
func (c Config) normalize() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize - 1
	}
	return c
}

// Chunk is one bounded span of the input text.
type Chunk struct {
	Content string
	Index   int
}

// ChunkText splits text into chunks of at most cfg.ChunkSize runes where
// each chunk after the first begins with the last cfg.ChunkOverlap runes of
// its predecessor. Cut points prefer paragraph breaks, then sentence
// boundaries, then spaces, before falling back to a hard cut. No content is
// dropped or altered.
func ChunkText(text string, cfg Config) []Chunk {
	cfg = cfg.normalize()

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= cfg.ChunkSize {
		return []Chunk{{Content: text, Index: 0}}
	}

	var chunks []Chunk
	start := 0
	for {
		end := start + cfg.ChunkSize
		if end >= len(runes) {
			chunks = append(chunks, Chunk{Content: string(runes[start:]), Index: len(chunks)})
			break
		}

		// The cut must land after start+overlap so the next window begins
		// past the current start and the loop advances.
		cut := findCut(runes, start+cfg.ChunkOverlap+1, end)
		chunks = append(chunks, Chunk{Content: string(runes[start:cut]), Index: len(chunks)})
		start = cut - cfg.ChunkOverlap
	}

	return chunks
}

// findCut returns the best cut position in [min, max], preferring the
// rightmost paragraph break, then the rightmost sentence end, then the
// rightmost space. With no boundary in the window the cut is max.
func findCut(runes []rune, min, max int) int {
	if min < 1 {
		min = 1
	}

	for i := max; i >= min; i-- {
		if i >= 2 && runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	for i := max; i >= min; i-- {
		if runes[i-1] == '\n' {
			return i
		}
		if i >= 2 && runes[i-1] == ' ' && isSentenceEnd(runes[i-2]) {
			return i
		}
		if isFullwidthSentenceEnd(runes[i-1]) {
			return i
		}
	}
	for i := max; i >= min; i-- {
		if runes[i-1] == ' ' {
			return i
		}
	}
	return max
}

// isSentenceEnd checks if a rune is a sentence ending punctuation
func isSentenceEnd(r rune) bool {
	return r == '。' || r == '！' || r == '？' || r == '.' || r == '!' || r == '?'
}

// isFullwidthSentenceEnd matches sentence enders that running text does not
// follow with a space.
func isFullwidthSentenceEnd(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

// ChunkID derives the stable identifier for a chunk of a source, so
// re-ingesting the same file overwrites its previous chunks.
func ChunkID(source string, index int) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte(fmt.Sprintf("#%d", index)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
