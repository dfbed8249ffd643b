package embedding

import (
	"bufio"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"unicode"
)

// BERT special token ids (bert-base-uncased / MiniLM vocab).
const (
	padID = 0
	unkID = 100
	clsID = 101
	sepID = 102
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs, used when no vocab is available.
type SimpleTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	words := SplitWords(strings.ToLower(text))
	ids := make([]int64, 0, len(words))
	for _, w := range words {
		ids = append(ids, int64(1000+HashString(w)%29000))
	}
	return pack(ids, maxTokens)
}

// WordPieceTokenizer implements BERT uncased tokenization against a vocab.txt file.
type WordPieceTokenizer struct {
	vocab map[string]int64
}

// LoadWordPieceTokenizer reads a vocab.txt (one token per line, id = line number).
func LoadWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64, 30522)
	sc := bufio.NewScanner(f)
	var id int64
	for sc.Scan() {
		vocab[strings.TrimRight(sc.Text(), "\r")] = id
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocab %s is empty", path)
	}
	return &WordPieceTokenizer{vocab: vocab}, nil
}

// Tokenize lowercases, splits on whitespace and punctuation, then applies greedy
// longest-match-first subword lookup with the "##" continuation prefix.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	var ids []int64
	for _, word := range basicTokens(text) {
		ids = append(ids, t.wordPiece(word)...)
		if maxTokens > 0 && len(ids) >= maxTokens {
			break
		}
	}
	return pack(ids, maxTokens)
}

func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > 100 {
		return []int64{unkID}
	}
	var out []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		var id int64 = -1
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if v, ok := t.vocab[piece]; ok {
				id = v
				break
			}
			end--
		}
		if id < 0 {
			return []int64{unkID}
		}
		out = append(out, id)
		start = end
	}
	return out
}

// basicTokens lowercases text and splits it into words and single punctuation marks.
func basicTokens(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r) || unicode.IsControl(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.Is(unicode.Mn, r):
			// drop combining accents
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// pack wraps ids in [CLS] ... [SEP], truncating and padding to maxTokens.
func pack(ids []int64, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 2 {
		maxTokens = 256
	}
	if len(ids) > maxTokens-2 {
		ids = ids[:maxTokens-2]
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = clsID
	attentionMask[0] = 1
	pos := 1
	for _, id := range ids {
		inputIDs[pos] = id
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = sepID
	attentionMask[pos] = 1
	for i := pos + 1; i < maxTokens; i++ {
		inputIDs[i] = padID
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// SplitWords splits text on whitespace and returns non-empty words.
func SplitWords(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	return words
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() & 0x7fffffff)
}
