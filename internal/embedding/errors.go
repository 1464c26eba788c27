package embedding

import (
	"fmt"

	"github.com/hyperjump/ryori/internal/models"
)

// LoadError describes why an embedding source could not be loaded.
// It matches models.ErrEmbeddingLoad with errors.Is.
type LoadError struct {
	Source string
	Line   int // 1-based line (text) or record (binary) number; 0 when not applicable
	Err    error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s:%d: %v", models.ErrEmbeddingLoad, e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", models.ErrEmbeddingLoad, e.Source, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{models.ErrEmbeddingLoad, e.Err}
}
