package align

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig reports a bad setting: window size, threshold, deck pages
	// or embedding dimensions that cannot be compared.
	ErrInvalidConfig = errors.New("invalid alignment configuration")
	// ErrEmptyInput reports a run started without slides or without sentences.
	ErrEmptyInput = errors.New("empty alignment input")
	// ErrEmbedding matches every *EmbeddingError via errors.Is.
	ErrEmbedding = errors.New("embedding failed")

	errNonFinite = errors.New("vector has a NaN or infinite component")
)

// EmbeddingError wraps an embedder failure together with what was being embedded.
type EmbeddingError struct {
	Subject string
	Err     error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embed %s: %v", e.Subject, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Is lets callers test for ErrEmbedding without unwrapping to the concrete type.
func (e *EmbeddingError) Is(target error) bool { return target == ErrEmbedding }

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
