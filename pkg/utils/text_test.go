package utils

import (
	"math"
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("héllo wörld", 4); got != "héll..." {
		t.Errorf("rune-safe truncate got %q", got)
	}
}

func TestPrefix(t *testing.T) {
	if Prefix("abcdef", 3) != "abc" {
		t.Error("prefix of 3")
	}
	if Prefix("ab", 3) != "ab" {
		t.Error("short string unchanged")
	}
	if Prefix("ab", 0) != "" {
		t.Error("zero length gives empty")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace("  a \n\n b\t c  "); got != "a b c" {
		t.Errorf("got %q", got)
	}
}

func TestCosineDistance(t *testing.T) {
	if d := CosineDistance([]float32{1, 0}, []float32{1, 0}); math.Abs(d) > 1e-9 {
		t.Errorf("identical vectors distance = %v", d)
	}
	if d := CosineDistance([]float32{1, 0}, []float32{0, 1}); math.Abs(d-1) > 1e-9 {
		t.Errorf("orthogonal distance = %v", d)
	}
	if d := CosineDistance([]float32{1, 0}, []float32{-1, 0}); math.Abs(d-2) > 1e-9 {
		t.Errorf("opposite distance = %v", d)
	}
	if d := CosineDistance([]float32{1}, []float32{1, 0}); d != 1 {
		t.Errorf("length mismatch distance = %v", d)
	}
}
