package models

import "errors"

var (
	// ErrEmbeddingLoad signals a malformed or unreadable embedding source.
	ErrEmbeddingLoad = errors.New("embedding load failed")
	// ErrEmptyCorpus signals a catalog without documents; ranking over it is undefined.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrNotFitted signals weighted vectorization before the weighter was fitted.
	ErrNotFitted = errors.New("vectorizer not fitted")
)
