package align

import "strings"

// UnmatchedPage is the page number of a chunk that is not attributed to any slide.
const UnmatchedPage = 0

// Embedder is the subset of an embedding backend the aligner needs.
type Embedder interface {
	Dimension() int
	Embed(text string) ([]float64, error)
}

// Sentence is one cleaned transcript unit at its position in the lecture.
type Sentence struct {
	Text     string
	Position int
}

// NewSentences numbers cleaned transcript lines in order.
func NewSentences(lines []string) []Sentence {
	out := make([]Sentence, len(lines))
	for i, line := range lines {
		out[i] = Sentence{Text: line, Position: i}
	}
	return out
}

// Slide is the extracted text of one deck page.
type Slide struct {
	Page int
	Text string
}

// Deck is an ordered slide list. Order matters: it is the iteration order used
// to break similarity ties.
type Deck []Slide

// Validate rejects non-positive and repeated page numbers.
func (d Deck) Validate() error {
	seen := make(map[int]struct{}, len(d))
	for _, s := range d {
		if s.Page <= 0 {
			return configError("slide page %d is not positive", s.Page)
		}
		if _, ok := seen[s.Page]; ok {
			return configError("duplicate slide page %d", s.Page)
		}
		seen[s.Page] = struct{}{}
	}
	return nil
}

// Texts returns the slide texts in deck order.
func (d Deck) Texts() []string {
	out := make([]string, len(d))
	for i, s := range d {
		out[i] = s.Text
	}
	return out
}

// Chunk is a run of sentences attributed to one slide. Similarities is parallel
// to Sentences and holds the window score recorded when each sentence was added.
type Chunk struct {
	Page         int
	Sentences    []string
	Similarities []float64
}

// Matched reports whether the chunk is attributed to a slide.
func (c Chunk) Matched() bool { return c.Page != UnmatchedPage }

// Window is a contiguous run of sentences scored as one unit.
type Window struct {
	Index     int
	Start     int
	Sentences []Sentence
}

// Text joins the window's sentences with single spaces.
func (w Window) Text() string {
	parts := make([]string, len(w.Sentences))
	for i, s := range w.Sentences {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// End is the position one past the window's last sentence.
func (w Window) End() int { return w.Start + len(w.Sentences) }
