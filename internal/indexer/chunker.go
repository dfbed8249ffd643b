// Package indexer splits attachment text into chunks and indexes them into the vector store.
package indexer

import (
	"fmt"
	"strings"
	"unicode"
)

// Chunk strategies.
const (
	StrategyFixed    = "fixed"
	StrategySemantic = "semantic"
)

// semanticOverlapSentences is how many trailing sentences seed the next semantic chunk.
const semanticOverlapSentences = 2

// Piece is one chunk of a source text. Index is zero-based; Total is the piece count for the source.
type Piece struct {
	Text  string
	Index int
	Total int
}

// Chunker splits text into pieces. Whitespace-only text yields no pieces.
type Chunker interface {
	Chunk(text string) []Piece
}

// NewChunker returns the chunker for strategy. Sizes are in characters (runes).
func NewChunker(strategy string, size, overlap, minChunkSize int) (Chunker, error) {
	switch strategy {
	case StrategyFixed, "":
		return NewFixedChunker(size, overlap), nil
	case StrategySemantic:
		return NewSemanticChunker(size, overlap, minChunkSize), nil
	default:
		return nil, fmt.Errorf("unknown chunk strategy %q", strategy)
	}
}

// FixedChunker slides a window of size runes across the text, advancing by max(1, size-overlap).
// It stops after the first window that reaches the end, so text of length n > size yields
// ceil((n-overlap)/step) pieces and shorter text yields one.
type FixedChunker struct {
	size    int
	overlap int
}

// NewFixedChunker creates a fixed-width chunker.
func NewFixedChunker(size, overlap int) *FixedChunker {
	if size < 1 {
		size = 1
	}
	return &FixedChunker{size: size, overlap: overlap}
}

// Chunk returns the windows of text.
func (c *FixedChunker) Chunk(text string) []Piece {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return number(c.windows([]rune(text)))
}

func (c *FixedChunker) windows(runes []rune) []string {
	step := c.size - c.overlap
	if step < 1 {
		step = 1
	}
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// SemanticChunker packs whole sentences into chunks of up to size runes. A chunk closes when the
// next sentence would overflow it and it already holds minChunkSize runes; the next chunk starts
// with up to two of the closed chunk's last sentences. A short trailing chunk is dropped, and if that leaves
// nothing the text is chunked fixed-width instead.
type SemanticChunker struct {
	size         int
	minChunkSize int
	fallback     *FixedChunker
}

// NewSemanticChunker creates a sentence-aware chunker. overlap only applies to the fixed-width fallback.
func NewSemanticChunker(size, overlap, minChunkSize int) *SemanticChunker {
	return &SemanticChunker{
		size:         size,
		minChunkSize: minChunkSize,
		fallback:     NewFixedChunker(size, overlap),
	}
}

// Chunk returns sentence-aligned pieces.
func (c *SemanticChunker) Chunk(text string) []Piece {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var sentences []string
	for _, s := range SplitSentences(text) {
		// a single sentence longer than a chunk is cut into windows
		if runeLen(s) > c.size {
			sentences = append(sentences, c.fallback.windows([]rune(s))...)
			continue
		}
		sentences = append(sentences, s)
	}

	var chunks []string
	var cur []string
	curLen := 0
	for _, s := range sentences {
		add := runeLen(s)
		if len(cur) > 0 {
			add++
		}
		if len(cur) > 0 && curLen+add > c.size && curLen >= c.minChunkSize {
			chunks = append(chunks, strings.Join(cur, " "))
			cur = c.seed(cur, runeLen(s))
			curLen = runeLen(strings.Join(cur, " "))
			add = runeLen(s)
			if len(cur) > 0 {
				add++
			}
		}
		cur = append(cur, s)
		curLen += add
	}
	if len(cur) > 0 && curLen >= c.minChunkSize {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	if len(chunks) == 0 {
		return c.fallback.Chunk(text)
	}
	return number(chunks)
}

// seed returns the trailing sentences of a closed chunk that open the next one: at most
// semanticOverlapSentences, never the whole chunk, and only as many as fit before next.
func (c *SemanticChunker) seed(closed []string, next int) []string {
	n := semanticOverlapSentences
	if n > len(closed)-1 {
		n = len(closed) - 1
	}
	out := append([]string(nil), closed[len(closed)-n:]...)
	for len(out) > 0 && runeLen(strings.Join(out, " "))+1+next > c.size {
		out = out[1:]
	}
	return out
}

// SplitSentences splits text after runs of '.', '!' or '?' that are followed by whitespace or
// the end of the text. Text after the last terminator is the final sentence. Results are trimmed
// and whitespace-collapsed.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		j := i
		for j+1 < len(runes) && isTerminator(runes[j+1]) {
			j++
		}
		if j+1 == len(runes) || unicode.IsSpace(runes[j+1]) {
			if s := Preprocess(string(runes[start : j+1])); s != "" {
				out = append(out, s)
			}
			start = j + 1
		}
		i = j
	}
	if s := Preprocess(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func runeLen(s string) int {
	return len([]rune(s))
}

func number(texts []string) []Piece {
	pieces := make([]Piece, len(texts))
	for i, t := range texts {
		pieces[i] = Piece{Text: t, Index: i, Total: len(texts)}
	}
	return pieces
}
