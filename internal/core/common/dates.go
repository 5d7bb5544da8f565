package common

import (
	"log"
	"strings"
	"time"

	"github.com/olebedev/when"
	wcommon "github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// dateParser is configured once at init and only read afterwards.
var dateParser = func() *when.Parser {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(wcommon.All...)
	return p
}()

// ParseNaturalDate parses a natural-language date ("yesterday", "March 31",
// "last Friday") relative to base. Empty or unparseable input falls back to
// base so a vague date never blocks a record from being written.
func ParseNaturalDate(dateStr string, base time.Time) time.Time {
	if strings.TrimSpace(dateStr) == "" {
		return base
	}

	r, err := dateParser.Parse(dateStr, base)
	if err != nil || r == nil {
		log.Printf("Could not parse date '%s', defaulting to reference time", dateStr)
		return base
	}
	return r.Time
}

// FormatDate renders a timestamp for record storage.
func FormatDate(t time.Time) string {
	return t.Format(time.RFC3339)
}
