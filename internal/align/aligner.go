package align

import (
	"fmt"
	"iter"
	"log/slog"
)

// openChunk is the chunk currently accepting sentences.
type openChunk struct {
	page         int
	sentences    *orderedSet
	similarities []float64
}

// alignState is the accumulator threaded through the window fold.
type alignState struct {
	open    *openChunk
	sealed  []Chunk
	claimed map[string]struct{}
}

func (st *alignState) start(page int) {
	st.seal()
	st.open = &openChunk{page: page, sentences: newOrderedSet()}
}

// add attributes text to the open chunk unless the chunk already holds it or a
// sealed chunk claimed it first.
func (st *alignState) add(text string, similarity float64) {
	if _, ok := st.claimed[text]; ok {
		return
	}
	if st.open.sentences.Add(text) {
		st.open.similarities = append(st.open.similarities, similarity)
	}
}

func (st *alignState) seal() {
	if st.open == nil {
		return
	}
	c := st.open
	st.open = nil
	if c.sentences.Len() == 0 {
		return
	}
	for _, text := range c.sentences.Items() {
		st.claimed[text] = struct{}{}
	}
	st.sealed = append(st.sealed, Chunk{
		Page:         c.page,
		Sentences:    c.sentences.Items(),
		Similarities: c.similarities,
	})
}

// Align walks the windows in order, matches each against the slide index and
// stitches runs of windows that agree on a slide into chunks. Windows scoring
// below threshold close the open chunk and attribute nothing. Any embedding or
// scoring failure aborts the whole run and no chunks are returned.
func Align(emb Embedder, windows iter.Seq[Window], index *SlideVectors, threshold float64, logger *slog.Logger) ([]Chunk, error) {
	if index.Len() == 0 {
		return nil, configError("cannot match against an empty slide set")
	}
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	st := &alignState{claimed: make(map[string]struct{})}
	for w := range windows {
		vec, err := emb.Embed(w.Text())
		if err != nil {
			return nil, &EmbeddingError{Subject: fmt.Sprintf("window %d", w.Index), Err: err}
		}
		if !finite(vec) {
			return nil, &EmbeddingError{Subject: fmt.Sprintf("window %d", w.Index), Err: errNonFinite}
		}
		match, err := index.BestMatch(vec)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", w.Index, err)
		}
		logger.Debug("window matched",
			"window", w.Index,
			"start", w.Start,
			"end", w.End(),
			"page", match.Page,
			"similarity", match.Similarity,
			"accepted", match.Similarity >= threshold,
		)

		if match.Similarity < threshold {
			st.seal()
			continue
		}
		if st.open == nil || st.open.page != match.Page {
			st.start(match.Page)
		}
		for _, s := range w.Sentences {
			st.add(s.Text, match.Similarity)
		}
	}
	st.seal()
	return st.sealed, nil
}
