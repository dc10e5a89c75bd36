package embedding

import (
	"errors"
	"testing"
)

type staticEmbedder struct{}

func (staticEmbedder) Name() string                    { return "static" }
func (staticEmbedder) Dimension() int                  { return 1 }
func (staticEmbedder) Embed(string) ([]float64, error) { return []float64{1}, nil }

type fittingEmbedder struct {
	staticEmbedder
	err error
}

func (f fittingEmbedder) Fit(corpus []string) (Embedder, error) {
	if f.err != nil {
		return nil, f.err
	}
	return staticEmbedder{}, nil
}

func TestPrepare(t *testing.T) {
	var base Embedder = staticEmbedder{}
	got, err := Prepare(base, nil)
	if err != nil || got != base {
		t.Fatalf("non-fitting embedder should be returned as is, got %v, %v", got, err)
	}

	got, err = Prepare(fittingEmbedder{}, []string{"a"})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, ok := got.(staticEmbedder); !ok {
		t.Fatalf("expected fitted embedder, got %T", got)
	}

	boom := errors.New("boom")
	if _, err := Prepare(fittingEmbedder{err: boom}, nil); !errors.Is(err, boom) {
		t.Fatalf("expected fit error to be wrapped, got %v", err)
	}
}
