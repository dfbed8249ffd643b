// Package synonyms expands helpdesk queries with related terms before embedding.
package synonyms

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

// defaults is the built-in table used when no file is configured.
var defaults = map[string][]string{
	"error":    {"error", "issue", "problem", "bug", "failure"},
	"crash":    {"crash", "freeze", "hang", "failure"},
	"slow":     {"slow", "lag", "latency", "performance"},
	"login":    {"login", "signin", "authentication", "password"},
	"password": {"password", "credentials", "reset", "login"},
	"network":  {"network", "wifi", "internet", "connection", "vpn"},
	"printer":  {"printer", "printing", "print", "spooler"},
	"email":    {"email", "mail", "outlook", "inbox"},
	"install":  {"install", "setup", "deploy", "configure"},
	"access":   {"access", "permission", "rights", "authorization"},
	"laptop":   {"laptop", "computer", "notebook", "device"},
}

// Table maps whole lowercase words to their expansions. It is safe for concurrent use
// and can be replaced while queries run.
type Table struct {
	mu       sync.RWMutex
	entries  map[string][]string
	maxEdits int
}

// Default returns a table holding the built-in entries.
func Default() *Table {
	return New(defaults)
}

// New returns a table over a copy of entries, with keys and terms lowercased.
func New(entries map[string][]string) *Table {
	t := &Table{}
	t.Replace(entries)
	return t
}

// Replace swaps the table contents.
func (t *Table) Replace(entries map[string][]string) {
	m := make(map[string][]string, len(entries))
	for k, terms := range entries {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		out := make([]string, 0, len(terms))
		for _, term := range terms {
			if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
				out = append(out, term)
			}
		}
		m[key] = out
	}
	t.mu.Lock()
	t.entries = m
	t.mu.Unlock()
}

// SetMaxEdits lets words within n edits of a key match it. 0 (the default) requires exact words.
func (t *Table) SetMaxEdits(n int) {
	if n < 0 {
		n = 0
	}
	t.mu.Lock()
	t.maxEdits = n
	t.mu.Unlock()
}

// Len returns the number of keys.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Keys returns the sorted keys.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Expand lowercases query into words and appends the expansions of every word that is a key,
// or lies within the configured edit distance of one, skipping terms already present.
// It reports false when no word matched.
func (t *Table) Expand(query string) (string, bool) {
	words := Words(query)
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[w] = true
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	expanded := false
	out := append([]string(nil), words...)
	for _, w := range words {
		terms, ok := t.entries[w]
		if !ok {
			key := t.closestKey(w)
			if key == "" {
				continue
			}
			terms = t.entries[key]
		}
		expanded = true
		for _, term := range terms {
			if !seen[term] {
				seen[term] = true
				out = append(out, term)
			}
		}
	}
	return strings.Join(out, " "), expanded
}

// Words splits text into lowercase words, treating anything but letters, digits, '_' and '-' as a separator.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-'
	})
}

// LoadFile reads a YAML mapping of word to expansion terms.
func LoadFile(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}
	var entries map[string][]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse synonyms %s: %w", path, err)
	}
	if entries == nil {
		entries = map[string][]string{}
	}
	return entries, nil
}

// Reload replaces the table with the contents of path. On error the table is unchanged.
func (t *Table) Reload(path string) error {
	entries, err := LoadFile(path)
	if err != nil {
		return err
	}
	t.Replace(entries)
	return nil
}
