package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestParseNaturalDateEmpty(t *testing.T) {
	assert.Equal(t, base, ParseNaturalDate("", base))
	assert.Equal(t, base, ParseNaturalDate("   ", base))
}

func TestParseNaturalDateUnparseable(t *testing.T) {
	assert.Equal(t, base, ParseNaturalDate("not a date at all xyzzy", base))
}

func TestParseNaturalDateRelative(t *testing.T) {
	got := ParseNaturalDate("yesterday", base)
	assert.Equal(t, base.AddDate(0, 0, -1).Day(), got.Day())

	got = ParseNaturalDate("tomorrow", base)
	assert.Equal(t, base.AddDate(0, 0, 1).Day(), got.Day())
}

func TestFormatDateRoundTrip(t *testing.T) {
	formatted := FormatDate(base)
	assert.Equal(t, "2025-06-15T12:00:00Z", formatted)

	parsed, err := time.Parse(time.RFC3339, formatted)
	assert.NoError(t, err)
	assert.True(t, parsed.Equal(base))
}
