package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdentical(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("john", "john"))
	assert.Equal(t, 1.0, Similarity("John", "JOHN"), "comparison is case-insensitive")
}

func TestSimilarityEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "john"))
	assert.Equal(t, 0.0, Similarity("john", ""))
	assert.Equal(t, 0.0, Similarity("", ""))
}

func TestSimilarityNoOverlap(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
}

// TestSimilarityKnownValues checks against the standard Jaro-Winkler
// reference pairs.
func TestSimilarityKnownValues(t *testing.T) {
	// jaro(martha, marhta) = 0.9444, shared prefix "mar" -> 0.9611
	assert.InDelta(t, 0.9611, Similarity("martha", "marhta"), 0.001)

	// jaro(dwayne, duane) = 0.8222, shared prefix "d" -> 0.8400
	assert.InDelta(t, 0.8400, Similarity("dwayne", "duane"), 0.001)
}

func TestSimilarityTypicalNameVariants(t *testing.T) {
	assert.Greater(t, Similarity("jon", "john"), 0.9)
	assert.Greater(t, Similarity("sarah", "sara"), 0.9)

	// Different names stay well apart even when they share letters.
	assert.Less(t, Similarity("john", "jane"), 0.75)
}

func TestSimilaritySymmetric(t *testing.T) {
	assert.Equal(t, Similarity("jonathan", "jon"), Similarity("jon", "jonathan"))
}

func TestFirstToken(t *testing.T) {
	assert.Equal(t, "john", FirstToken("john smith"))
	assert.Equal(t, "john", FirstToken("  john  "))
	assert.Equal(t, "", FirstToken(""))
	assert.Equal(t, "", FirstToken("   "))
}

func TestLastToken(t *testing.T) {
	last, ok := LastToken("john smith")
	assert.True(t, ok)
	assert.Equal(t, "smith", last)

	last, ok = LastToken("maria de la cruz")
	assert.True(t, ok)
	assert.Equal(t, "cruz", last)

	_, ok = LastToken("john")
	assert.False(t, ok, "a single-token name has no last name")

	_, ok = LastToken("")
	assert.False(t, ok)
}
