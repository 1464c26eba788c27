package embedding

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperjump/ryori/internal/fingerprint"
)

const (
	maxLineBytes     = 4 << 20
	ctxCheckInterval = 4096
)

// LoadText reads the word2vec text format: an optional "<count> <dimensions>" header, then
// one "token v1 ... vD" line per word. A token may contain spaces; the last D fields are the vector.
// Without a header, D is taken from the first line. The first occurrence of a token wins.
func LoadText(ctx context.Context, r io.Reader, source string) (*MemoryStore, error) {
	fp := fingerprint.New()
	scanner := bufio.NewScanner(io.TeeReader(r, fp.Writer()))
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var (
		dimensions = 0
		declared   = -1
		vectors    = make(map[string][]float32)
		rows       = 0
		lineNo     = 0
	)
	for scanner.Scan() {
		lineNo++
		if lineNo%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if rows == 0 && declared < 0 && dimensions == 0 {
			if count, dim, ok := parseHeader(fields); ok {
				declared, dimensions = count, dim
				continue
			}
			dimensions = len(fields) - 1
			if dimensions <= 0 {
				return nil, &LoadError{Source: source, Line: lineNo, Err: errors.New("line has no vector values")}
			}
		}
		if len(fields) < dimensions+1 {
			return nil, &LoadError{
				Source: source,
				Line:   lineNo,
				Err:    fmt.Errorf("expected token and %d values, got %d fields", dimensions, len(fields)),
			}
		}
		split := len(fields) - dimensions
		token := strings.Join(fields[:split], " ")
		vec := make([]float32, dimensions)
		for i, f := range fields[split:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, &LoadError{Source: source, Line: lineNo, Err: fmt.Errorf("token %q: %w", token, err)}
			}
			vec[i] = float32(v)
		}
		if err := checkFinite(vec); err != nil {
			return nil, &LoadError{Source: source, Line: lineNo, Err: fmt.Errorf("token %q: %w", token, err)}
		}
		rows++
		if _, dup := vectors[token]; !dup {
			vectors[token] = vec
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Source: source, Line: lineNo + 1, Err: err}
	}
	if declared >= 0 && rows != declared {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("header declares %d vectors, found %d", declared, rows)}
	}
	if len(vectors) == 0 {
		return nil, &LoadError{Source: source, Err: errors.New("no vectors")}
	}
	return newMemoryStore(dimensions, vectors, fp.Sum()), nil
}

// LoadBinary reads the word2vec binary format: a "<count> <dimensions>" header line, then for
// each word the token, a single space and D little-endian float32 values. Whitespace left over
// from the previous record (the C tool writes a newline after each vector) is skipped.
func LoadBinary(ctx context.Context, r io.Reader, source string) (*MemoryStore, error) {
	fp := fingerprint.New()
	br := bufio.NewReader(io.TeeReader(r, fp.Writer()))

	header, err := br.ReadString('\n')
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("read header: %w", err)}
	}
	count, dimensions, ok := parseHeader(strings.Fields(header))
	if !ok {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("invalid header %q", strings.TrimSpace(header))}
	}
	if count == 0 {
		return nil, &LoadError{Source: source, Err: errors.New("no vectors")}
	}

	vectors := make(map[string][]float32, count)
	for i := 0; i < count; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		token, err := readBinaryToken(br)
		if err != nil {
			return nil, &LoadError{Source: source, Line: i + 1, Err: fmt.Errorf("read token: %w", err)}
		}
		vec := make([]float32, dimensions)
		if err := binary.Read(br, binary.LittleEndian, vec); err != nil {
			return nil, &LoadError{Source: source, Line: i + 1, Err: fmt.Errorf("token %q: read vector: %w", token, err)}
		}
		if err := checkFinite(vec); err != nil {
			return nil, &LoadError{Source: source, Line: i + 1, Err: fmt.Errorf("token %q: %w", token, err)}
		}
		if _, dup := vectors[token]; !dup {
			vectors[token] = vec
		}
	}
	return newMemoryStore(dimensions, vectors, fp.Sum()), nil
}

func readBinaryToken(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if b == ' ' {
			if sb.Len() == 0 {
				continue
			}
			return sb.String(), nil
		}
		if b == '\n' && sb.Len() == 0 {
			continue
		}
		sb.WriteByte(b)
	}
}

func parseHeader(fields []string) (count, dimensions int, ok bool) {
	if len(fields) != 2 {
		return 0, 0, false
	}
	c, err := strconv.Atoi(fields[0])
	if err != nil || c < 0 {
		return 0, 0, false
	}
	d, err := strconv.Atoi(fields[1])
	if err != nil || d <= 0 {
		return 0, 0, false
	}
	return c, d, true
}
