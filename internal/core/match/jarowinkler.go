// Package match provides the string-similarity primitive and name-part
// helpers used by entity resolution. Pure functions, no state.
package match

import "strings"

const (
	winklerPrefixScale = 0.1
	winklerMaxPrefix   = 4
)

// Similarity returns the Jaro-Winkler similarity of a and b in [0,1].
// Comparison is case-insensitive; empty input scores 0.0 and only exact
// equality after case folding scores 1.0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	s1 := []rune(strings.ToLower(a))
	s2 := []rune(strings.ToLower(b))

	j := jaro(s1, s2)
	if j == 0 {
		return 0
	}

	prefix := 0
	for i := 0; i < len(s1) && i < len(s2) && i < winklerMaxPrefix; i++ {
		if s1[i] != s2[i] {
			break
		}
		prefix++
	}

	return j + float64(prefix)*winklerPrefixScale*(1.0-j)
}

func jaro(s1, s2 []rune) float64 {
	if string(s1) == string(s2) {
		return 1.0
	}

	window := max(len(s1), len(s2))/2 - 1
	if window < 0 {
		window = 0
	}

	matched1 := make([]bool, len(s1))
	matched2 := make([]bool, len(s2))

	matches := 0
	for i := range s1 {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > len(s2) {
			hi = len(s2)
		}
		for j := lo; j < hi; j++ {
			if matched2[j] || s1[i] != s2[j] {
				continue
			}
			matched1[i] = true
			matched2[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	// Count transpositions among matched characters.
	transpositions := 0
	k := 0
	for i := range s1 {
		if !matched1[i] {
			continue
		}
		for !matched2[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}
	transpositions /= 2

	m := float64(matches)
	return (m/float64(len(s1)) + m/float64(len(s2)) + (m-float64(transpositions))/m) / 3.0
}

// FirstToken returns the first whitespace-delimited token of name, or ""
// when name is empty or blank.
func FirstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// LastToken returns the final whitespace-delimited token of name. A bare
// single-word name has no last name, so ok is false unless the name holds
// at least two tokens.
func LastToken(name string) (string, bool) {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return "", false
	}
	return fields[len(fields)-1], true
}
