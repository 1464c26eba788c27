// Package fingerprint provides stable content identities for catalogs, embedding tables and snapshots.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"
)

// Of returns a hex sha256 over parts. Each part is length-prefixed so that
// ("ab", "c") and ("a", "bc") hash differently.
func Of(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		writePart(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Hasher accumulates parts incrementally, for inputs too large to hold as one slice.
type Hasher struct {
	h hash.Hash
}

// New returns an empty Hasher.
func New() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Add appends one length-prefixed part.
func (f *Hasher) Add(part string) *Hasher {
	writePart(f.h, part)
	return f
}

// Writer exposes the raw hash for streaming bytes (e.g. a file body) into the fingerprint.
func (f *Hasher) Writer() io.Writer {
	return f.h
}

// Sum returns the hex digest.
func (f *Hasher) Sum() string {
	return hex.EncodeToString(f.h.Sum(nil))
}

func writePart(w io.Writer, p string) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
	_, _ = w.Write(n[:])
	_, _ = io.WriteString(w, p)
}
