package transcript

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	whitespace     = regexp.MustCompile(`\s+`)
	leadingPunct   = regexp.MustCompile(`^[,.\-\s]+`)
	defaultFillers = []string{"um", "uh", "you know", "sort of", "kind of", "i mean"}
)

// DefaultSkipMarker tags machine-generated transcript headers.
const DefaultSkipMarker = "Automatisch gegenereerde transcriptie"

// Options configures a Cleaner. Nil slices fall back to the defaults; empty
// non-nil slices disable the feature.
type Options struct {
	MinLength   int
	Fillers     []string
	SkipMarkers []string
}

// Cleaner turns raw transcript lines into sentences fit for alignment.
type Cleaner struct {
	minLength   int
	fillers     []*regexp.Regexp
	skipMarkers []string
}

// NewCleaner compiles the filler patterns.
func NewCleaner(opts Options) *Cleaner {
	fillers := opts.Fillers
	if fillers == nil {
		fillers = defaultFillers
	}
	markers := opts.SkipMarkers
	if markers == nil {
		markers = []string{DefaultSkipMarker}
	}
	c := &Cleaner{minLength: opts.MinLength, skipMarkers: markers}
	for _, f := range fillers {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		c.fillers = append(c.fillers, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(f)+`\b`))
	}
	return c
}

// CleanLine normalizes one line. It reports false for lines that are too
// short or carry a skip marker.
func (c *Cleaner) CleanLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= c.minLength {
		return "", false
	}
	for _, m := range c.skipMarkers {
		if m != "" && strings.Contains(line, m) {
			return "", false
		}
	}

	out := cases.Lower(language.Und).String(line)
	for _, re := range c.fillers {
		out = re.ReplaceAllString(out, "")
	}
	out = whitespace.ReplaceAllString(out, " ")
	out = leadingPunct.ReplaceAllString(strings.TrimSpace(out), "")
	if out == "" {
		out = line
	}
	if utf8.RuneCountInString(out) <= c.minLength {
		return "", false
	}
	return out, true
}

// Clean applies CleanLine to every line and keeps the survivors in order.
func (c *Cleaner) Clean(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if s, ok := c.CleanLine(l); ok {
			out = append(out, s)
		}
	}
	return out
}
