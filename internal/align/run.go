package align

import (
	"fmt"
	"log/slog"
)

// Options tunes one alignment run.
type Options struct {
	WindowSize int
	Threshold  float64
	Logger     *slog.Logger
}

// Run aligns sentences against deck. The embedder is called for each non-blank
// slide and then once per window, strictly in that order. Nothing is returned
// on failure, even when some chunks were already sealed.
func Run(emb Embedder, deck Deck, sentences []Sentence, opts Options) (*Result, error) {
	if len(deck) == 0 {
		return nil, fmt.Errorf("%w: no slides", ErrEmptyInput)
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("%w: no transcript sentences", ErrEmptyInput)
	}
	builder, err := NewWindowBuilder(opts.WindowSize)
	if err != nil {
		return nil, err
	}
	if err := checkThreshold(opts.Threshold); err != nil {
		return nil, err
	}
	if err := deck.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	index, err := BuildSlideVectors(emb, deck)
	if err != nil {
		return nil, fmt.Errorf("build slide vectors: %w", err)
	}
	logger.Debug("slide vectors built", "slides", index.Len(), "dimension", index.Dimension())

	chunks, err := Align(emb, builder.Windows(sentences), index, opts.Threshold, logger)
	if err != nil {
		return nil, fmt.Errorf("align windows: %w", err)
	}
	logger.Debug("chunks sealed", "chunks", len(chunks), "window_size", builder.Size(), "step", builder.Step())

	return Assemble(chunks, deck, sentences), nil
}
