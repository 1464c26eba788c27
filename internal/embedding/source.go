package embedding

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is the on-disk layout of an embedding model.
type Format string

const (
	// FormatAuto picks binary for ".bin" files and text otherwise.
	FormatAuto Format = "auto"
	// FormatText is the word2vec text format.
	FormatText Format = "text"
	// FormatBinary is the word2vec binary format.
	FormatBinary Format = "binary"
)

// FileSource loads an embedding table from a word2vec file.
type FileSource struct {
	Path   string
	Format Format
}

// NewFileSource returns a source for path. An empty format means FormatAuto.
func NewFileSource(path string, format string) *FileSource {
	f := Format(strings.ToLower(format))
	if f == "" {
		f = FormatAuto
	}
	return &FileSource{Path: path, Format: f}
}

// Load reads the file. Any failure, including an unreadable file, matches models.ErrEmbeddingLoad.
func (s *FileSource) Load(ctx context.Context) (*MemoryStore, error) {
	format := s.Format
	if format == FormatAuto || format == "" {
		format = DetectFormat(s.Path)
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &LoadError{Source: s.Path, Err: err}
	}
	defer f.Close()

	switch format {
	case FormatText:
		return LoadText(ctx, f, s.Path)
	case FormatBinary:
		return LoadBinary(ctx, f, s.Path)
	default:
		return nil, &LoadError{Source: s.Path, Err: fmt.Errorf("unknown embedding format: %s (supported: auto, text, binary)", s.Format)}
	}
}

// DetectFormat guesses the format from the file extension.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".bin") {
		return FormatBinary
	}
	return FormatText
}
