// Package hash computes digests of filter output as it is written.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// Writer wraps an io.Writer and computes the SHA-256 of all data written
// through it.
type Writer struct {
	writer io.Writer
	hash   hash.Hash
	n      int64
}

// NewWriter creates a Writer that writes to w and hashes what w accepted.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		writer: w,
		hash:   sha256.New(),
	}
}

// Write implements io.Writer. Only bytes the underlying writer accepted are
// hashed, so the digest always matches what reached the destination.
func (hw *Writer) Write(p []byte) (int, error) {
	n, err := hw.writer.Write(p)
	hw.hash.Write(p[:n])
	hw.n += int64(n)
	return n, err
}

// Sum returns the hex-encoded SHA-256 of all data written so far.
func (hw *Writer) Sum() string {
	return hex.EncodeToString(hw.hash.Sum(nil))
}

// Count returns the number of bytes written so far.
func (hw *Writer) Count() int64 {
	return hw.n
}

// SumReader hashes everything readable from r.
func SumReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
