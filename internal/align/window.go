package align

import "iter"

// WindowBuilder slices a sentence list into windows that overlap by half.
type WindowBuilder struct {
	size int
}

// NewWindowBuilder validates size before any window is produced.
func NewWindowBuilder(size int) (*WindowBuilder, error) {
	if size <= 0 {
		return nil, configError("window size must be > 0, got %d", size)
	}
	return &WindowBuilder{size: size}, nil
}

// Size returns the maximum number of sentences per window.
func (b *WindowBuilder) Size() int { return b.size }

// Step is the distance between window starts: half the window, at least one.
func (b *WindowBuilder) Step() int {
	return max(1, b.size/2)
}

// Windows lazily yields windows over sentences. The last window may be shorter
// than Size. The sequence can be ranged over any number of times.
func (b *WindowBuilder) Windows(sentences []Sentence) iter.Seq[Window] {
	step := b.Step()
	return func(yield func(Window) bool) {
		idx := 0
		for start := 0; start < len(sentences); start += step {
			end := min(start+b.size, len(sentences))
			if end <= start {
				continue
			}
			w := Window{Index: idx, Start: start, Sentences: sentences[start:end]}
			if !yield(w) {
				return
			}
			idx++
		}
	}
}
