package embedding

import (
	"errors"
	"fmt"
)

// ErrEmptyCorpus is returned by fitters given a corpus they cannot learn from,
// such as texts made only of stopwords.
var ErrEmptyCorpus = errors.New("corpus has no usable tokens")

// Embedder converts free text into a numeric vector representation.
// Implementations must return vectors of the same length for every call.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(text string) ([]float64, error)
}

// CorpusFitter is implemented by embedders that learn from the texts of a run
// before they can embed. Fit returns a ready embedder and leaves the receiver
// untouched, so one fitter can be shared by concurrent runs.
type CorpusFitter interface {
	Fit(corpus []string) (Embedder, error)
}

// Prepare returns the embedder to use for a run over corpus.
func Prepare(e Embedder, corpus []string) (Embedder, error) {
	f, ok := e.(CorpusFitter)
	if !ok {
		return e, nil
	}
	fitted, err := f.Fit(corpus)
	if err != nil {
		return nil, fmt.Errorf("fit %s embedder: %w", e.Name(), err)
	}
	return fitted, nil
}
