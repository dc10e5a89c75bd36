package tfidf

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"slidealign/internal/embedding"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Embedder is an unfitted TF-IDF vectorizer. It holds only the tokenizer
// settings; Fit builds a Model over a concrete corpus.
type Embedder struct {
	stopwords map[string]struct{}
}

// NewEmbedder creates a TF-IDF embedder. Extra stopwords are added to the
// built-in English list.
func NewEmbedder(extraStopwords ...string) *Embedder {
	stop := defaultStopwords()
	for _, w := range extraStopwords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Embedder{stopwords: stop}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Dimension is zero until the embedder has been fitted.
func (e *Embedder) Dimension() int { return 0 }

// Embed always fails on an unfitted embedder.
func (e *Embedder) Embed(string) ([]float64, error) {
	return nil, errors.New("tfidf embedder not fitted")
}

// Fit builds the vocabulary and IDF values from corpus.
func (e *Embedder) Fit(corpus []string) (embedding.Embedder, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w: empty corpus for TF-IDF fit", embedding.ErrEmptyCorpus)
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: every text is empty or made of stopwords", embedding.ErrEmptyCorpus)
	}
	sort.Strings(terms)

	m := &Model{
		parent:     e,
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		m.vocabulary[term] = i
		// smoothed IDF
		m.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return m, nil
}

func (e *Embedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Model is a fitted TF-IDF vectorizer. It is read-only and safe for
// concurrent use.
type Model struct {
	parent     *Embedder
	vocabulary map[string]int
	idf        []float64
}

// Name returns the identifier of this embedder implementation.
func (m *Model) Name() string { return "tfidf" }

// Dimension returns the vocabulary size.
func (m *Model) Dimension() int { return len(m.idf) }

// Embed computes the L2-normalized TF-IDF vector of text. Text without any
// known term maps to the zero vector.
func (m *Model) Embed(text string) ([]float64, error) {
	vec := make([]float64, len(m.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range m.parent.tokenize(text) {
		if idx, ok := m.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * m.idf[idx]
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
