package summarizer

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// DefaultMaxSentences is used when Rank is called with a non-positive limit.
const DefaultMaxSentences = 5

var (
	wordPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

const stopwordList = `a an the and or but if then else for to of in on at by with as is are
was were be been being it its this that these those from up down over under again further
than so such into about between through during before after above below out off own same
too very can will just don should now we you i our your they them there here what which`

// FrequencySummarizer picks the sentences whose content words recur most
// often across the passage.
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

// NewFrequencySummarizer returns a summarizer with the built-in English stopwords.
func NewFrequencySummarizer() *FrequencySummarizer {
	words := strings.Fields(stopwordList)
	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		stop[w] = struct{}{}
	}
	return &FrequencySummarizer{stopwords: stop}
}

// Summarize splits text on sentence punctuation and returns the best
// maxSentences sentences joined in their original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}
	return strings.Join(s.Rank(sentences, maxSentences), " "), nil
}

type scored struct {
	pos   int
	score float64
}

// Rank returns up to maxSentences of the given sentences, kept in input order.
// A sentence scores the sum of its words' relative frequencies divided by the
// square root of its length.
func (s *FrequencySummarizer) Rank(sentences []string, maxSentences int) []string {
	if len(sentences) == 0 {
		return nil
	}
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	maxSentences = min(maxSentences, len(sentences))

	words := make([][]string, len(sentences))
	counts := make(map[string]int)
	peak := 0
	for i, sent := range sentences {
		words[i] = s.contentWords(sent)
		for _, w := range words[i] {
			counts[w]++
			peak = max(peak, counts[w])
		}
	}

	ranked := make([]scored, len(sentences))
	for i, ws := range words {
		ranked[i].pos = i
		if len(ws) == 0 {
			continue
		}
		total := 0.0
		for _, w := range ws {
			total += float64(counts[w]) / float64(peak)
		}
		ranked[i].score = total / math.Sqrt(float64(len(ws)))
	}
	slices.SortStableFunc(ranked, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

	picked := ranked[:maxSentences]
	slices.SortFunc(picked, func(a, b scored) int { return cmp.Compare(a.pos, b.pos) })
	out := make([]string, len(picked))
	for i, p := range picked {
		out[i] = strings.TrimSpace(sentences[p.pos])
	}
	return out
}

func (s *FrequencySummarizer) contentWords(text string) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(cases.Fold().String(text), -1) {
		if _, stop := s.stopwords[w]; !stop {
			out = append(out, w)
		}
	}
	return out
}
