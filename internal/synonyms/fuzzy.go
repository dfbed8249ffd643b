package synonyms

// minFuzzyRunes keeps short words, where one edit changes the meaning, exact.
const minFuzzyRunes = 5

// closestKey returns the key nearest to word within maxEdits, preferring the smaller distance
// and then the lexically first key. Callers hold t.mu.
func (t *Table) closestKey(word string) string {
	if t.maxEdits == 0 || len([]rune(word)) < minFuzzyRunes {
		return ""
	}
	best, bestDist := "", t.maxEdits+1
	for key := range t.entries {
		if len([]rune(key)) < minFuzzyRunes {
			continue
		}
		d := editDistance(word, key)
		if d < bestDist || (d == bestDist && key < best) {
			best, bestDist = key, d
		}
	}
	if bestDist > t.maxEdits {
		return ""
	}
	return best
}

// editDistance is the Damerau-Levenshtein distance (optimal string alignment) over runes:
// insertions, deletions, substitutions and adjacent transpositions each cost one.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	d := make([][]int, len(ra)+1)
	for i := range d {
		d[i] = make([]int, len(rb)+1)
		d[i][0] = i
	}
	for j := range d[0] {
		d[0][j] = j
	}
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+cost)
			}
		}
	}
	return d[len(ra)][len(rb)]
}
