package hash

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	hw := NewWriter(&buf)

	testData := "PRAGMA foreign_keys=OFF;\nBEGIN TRANSACTION;\nCREATE TABLE test (id INTEGER);\nINSERT INTO test VALUES(1);\nCOMMIT;\n"

	n, err := hw.Write([]byte(testData))
	require.NoError(t, err)
	assert.Equal(t, len(testData), n)

	assert.Equal(t, testData, buf.String())
	assert.Len(t, hw.Sum(), 64)
	assert.Equal(t, int64(len(testData)), hw.Count())
}

func TestWriterDeterministic(t *testing.T) {
	testData := "CREATE TABLE test (id INTEGER);\n"

	var buf1, buf2 bytes.Buffer
	hw1 := NewWriter(&buf1)
	hw2 := NewWriter(&buf2)

	_, _ = hw1.Write([]byte(testData))
	_, _ = hw2.Write([]byte(testData[:10]))
	_, _ = hw2.Write([]byte(testData[10:]))

	assert.Equal(t, hw1.Sum(), hw2.Sum(), "split writes must hash like a single write")
}

func TestWriterMatchesSumReader(t *testing.T) {
	testData := "INSERT INTO t VALUES(1);\nINSERT INTO t VALUES(2);\n"

	var buf bytes.Buffer
	hw := NewWriter(&buf)
	_, _ = hw.Write([]byte(testData))

	sum, err := SumReader(strings.NewReader(testData))
	require.NoError(t, err)
	assert.Equal(t, sum, hw.Sum())
}

func TestWriterEmpty(t *testing.T) {
	hw := NewWriter(&bytes.Buffer{})
	// SHA-256 of the empty string.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hw.Sum())
	assert.Zero(t, hw.Count())
}

type shortWriter struct{ limit int }

func (s *shortWriter) Write(p []byte) (int, error) {
	if len(p) > s.limit {
		return s.limit, errors.New("disk full")
	}
	return len(p), nil
}

func TestWriterShortWriteHashesAcceptedBytes(t *testing.T) {
	hw := NewWriter(&shortWriter{limit: 3})

	n, err := hw.Write([]byte("abcdef"))
	require.Error(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(3), hw.Count())

	want, _ := SumReader(strings.NewReader("abc"))
	assert.Equal(t, want, hw.Sum())
}
