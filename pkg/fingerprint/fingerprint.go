// Package fingerprint computes content digests of design files.
//
// A fingerprint is the lowercase hex encoding of a 256-bit digest over the
// file's bytes. It identifies the design without revealing it.
package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// Algorithm names a supported digest function
type Algorithm string

const (
	AlgorithmSHA256 Algorithm = "sha256"
	AlgorithmBLAKE3 Algorithm = "blake3"
)

// Size is the digest length in bytes for every supported algorithm
const Size = 32

// chunkSize bounds how much is read between cancellation checks
const chunkSize = 64 * 1024

// Compute returns the SHA-256 fingerprint of b
func Compute(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Hasher computes fingerprints with a fixed algorithm
type Hasher struct {
	alg Algorithm
}

// New returns a Hasher for alg. An empty alg selects SHA-256.
func New(alg Algorithm) (*Hasher, error) {
	switch alg {
	case "":
		alg = AlgorithmSHA256
	case AlgorithmSHA256, AlgorithmBLAKE3:
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", alg)
	}
	return &Hasher{alg: alg}, nil
}

// Algorithm returns the digest function used by h
func (h *Hasher) Algorithm() Algorithm {
	return h.alg
}

func (h *Hasher) newHash() hash.Hash {
	if h.alg == AlgorithmBLAKE3 {
		return blake3.New()
	}
	return sha256.New()
}

// Sum returns the fingerprint of b
func (h *Hasher) Sum(b []byte) string {
	d := h.newHash()
	d.Write(b)
	return hex.EncodeToString(d.Sum(nil))
}

// SumReader streams r through the digest. It returns ctx.Err() as soon as
// ctx is cancelled, abandoning the partial digest. Read failures come back
// unwrapped so callers can attach their own context.
func (h *Hasher) SumReader(ctx context.Context, r io.Reader) (string, error) {
	d := h.newHash()
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := r.Read(buf)
		if n > 0 {
			d.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}

// SumFile fingerprints the file at path on fs. Failures to open or read the
// file are reported as *FileReadError.
func (h *Hasher) SumFile(ctx context.Context, fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.IsDir() {
		return "", &FileReadError{Path: path, Err: ErrIsDirectory}
	}

	sum, err := h.SumReader(ctx, f)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", &FileReadError{Path: path, Err: err}
	}
	return sum, nil
}

// Validate reports whether fp has the shape of a fingerprint: Size*2
// lowercase hex characters.
func (h *Hasher) Validate(fp string) error {
	if len(fp) != Size*2 {
		return fmt.Errorf("fingerprint is %d characters, want %d", len(fp), Size*2)
	}
	for _, c := range fp {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return fmt.Errorf("fingerprint contains %q: want lowercase hex", c)
		}
	}
	return nil
}
