package align

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
)

// lastWordEmbedder represents a text by the vector of its last word.
type lastWordEmbedder struct {
	vectors map[string][]float64
	dim     int
	failOn  string
	calls   []string
}

func (e *lastWordEmbedder) Dimension() int { return e.dim }

func (e *lastWordEmbedder) Embed(text string) ([]float64, error) {
	e.calls = append(e.calls, text)
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, errors.New("backend unavailable")
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, errors.New("empty text")
	}
	vec, ok := e.vectors[fields[len(fields)-1]]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", fields[len(fields)-1])
	}
	return vec, nil
}

func newThreeSlideFixture() (*lastWordEmbedder, Deck, []Sentence) {
	emb := &lastWordEmbedder{
		dim: 2,
		vectors: map[string][]float64{
			"S1": {1, 0}, "S2": {0, 1}, "S3": {-1, 0},
			"one": {1, 0}, "two": {1, 0},
			"three": {0, 1}, "four": {0, 1},
			"five": {-1, 0}, "six": {-1, 0},
		},
	}
	deck := Deck{{Page: 1, Text: "S1"}, {Page: 2, Text: "S2"}, {Page: 3, Text: "S3"}}
	sentences := NewSentences([]string{"one", "two", "three", "four", "five", "six"})
	return emb, deck, sentences
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// bagEmbedder sums a fixed pseudo-random vector per word.
type bagEmbedder struct{}

func (bagEmbedder) Dimension() int { return 8 }

func (bagEmbedder) Embed(text string) ([]float64, error) {
	vec := make([]float64, 8)
	for _, word := range strings.Fields(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		sum := h.Sum32()
		for i := range vec {
			vec[i] += float64((sum>>(uint(i)*4))&0xF) - 7.5
		}
	}
	return vec, nil
}

func lectureFixture() (Deck, []Sentence) {
	deck := Deck{
		{Page: 1, Text: "gradient descent learning rate"},
		{Page: 2, Text: ""},
		{Page: 3, Text: "convolution kernel stride padding"},
		{Page: 5, Text: "recurrent hidden state sequence"},
	}
	sentences := NewSentences([]string{
		"today we talk about gradient descent",
		"the learning rate controls the step",
		"too large a rate diverges",
		"now a convolution slides a kernel",
		"stride and padding change the output",
		"the kernel weights are shared",
		"recurrent networks keep a hidden state",
		"the state carries the sequence forward",
		"any questions so far",
		"the learning rate controls the step",
	})
	return deck, sentences
}
