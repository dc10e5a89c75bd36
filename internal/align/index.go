package align

import (
	"fmt"
	"strings"
)

// SlideVectors holds one embedding per slide in deck order.
type SlideVectors struct {
	pages     []int
	vectors   [][]float64
	dimension int
}

// Match is the best-scoring slide for a vector.
type Match struct {
	Page       int
	Similarity float64
}

// BuildSlideVectors embeds every slide once, in deck order. Slides whose text is
// blank get the zero vector instead of an embedder call.
func BuildSlideVectors(emb Embedder, deck Deck) (*SlideVectors, error) {
	dim := emb.Dimension()
	sv := &SlideVectors{
		pages:   make([]int, len(deck)),
		vectors: make([][]float64, len(deck)),
	}
	var blank []int
	for i, slide := range deck {
		sv.pages[i] = slide.Page
		text := strings.TrimSpace(slide.Text)
		if text == "" {
			blank = append(blank, i)
			continue
		}
		vec, err := emb.Embed(text)
		if err != nil {
			return nil, &EmbeddingError{Subject: fmt.Sprintf("slide %d", slide.Page), Err: err}
		}
		if !finite(vec) {
			return nil, &EmbeddingError{Subject: fmt.Sprintf("slide %d", slide.Page), Err: errNonFinite}
		}
		// remote embedders only learn their dimension from the first response
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return nil, configError("slide %d embedding has dimension %d, want %d", slide.Page, len(vec), dim)
		}
		sv.vectors[i] = vec
	}
	if len(blank) > 0 && dim == 0 {
		return nil, configError("embedding dimension unknown: every slide is empty")
	}
	for _, i := range blank {
		sv.vectors[i] = make([]float64, dim)
	}
	sv.dimension = dim
	return sv, nil
}

// Len returns the number of slides in the index.
func (sv *SlideVectors) Len() int {
	if sv == nil {
		return 0
	}
	return len(sv.pages)
}

// Dimension returns the vector length shared by every slide.
func (sv *SlideVectors) Dimension() int { return sv.dimension }

// Vector returns the embedding stored for page.
func (sv *SlideVectors) Vector(page int) ([]float64, bool) {
	for i, p := range sv.pages {
		if p == page {
			return sv.vectors[i], true
		}
	}
	return nil, false
}

// BestMatch scans every slide and returns the one most similar to vec. Ties go
// to the slide that comes first in deck order.
func (sv *SlideVectors) BestMatch(vec []float64) (Match, error) {
	if sv.Len() == 0 {
		return Match{}, configError("cannot match against an empty slide set")
	}
	var best Match
	for i, page := range sv.pages {
		sim, err := Cosine(vec, sv.vectors[i])
		if err != nil {
			return Match{}, fmt.Errorf("score slide %d: %w", page, err)
		}
		if i == 0 || sim > best.Similarity {
			best = Match{Page: page, Similarity: sim}
		}
	}
	return best, nil
}
