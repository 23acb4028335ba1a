package filters

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danielsiegl/sqltrim/internal/hash"
)

// ctxCheckEvery is how many lines are read between context checks.
const ctxCheckEvery = 4096

// Stats summarises a filter run.
// Kept + DroppedByPosition + DroppedByPattern + DroppedTail == Read.
type Stats struct {
	Read              int    `json:"read" yaml:"read" toml:"read"`
	Kept              int    `json:"kept" yaml:"kept" toml:"kept"`
	DroppedByPosition int    `json:"droppedByPosition" yaml:"droppedByPosition" toml:"droppedByPosition"`
	DroppedByPattern  int    `json:"droppedByPattern" yaml:"droppedByPattern" toml:"droppedByPattern"`
	DroppedTail       int    `json:"droppedTail" yaml:"droppedTail" toml:"droppedTail"`
	BytesWritten      int64  `json:"bytesWritten" yaml:"bytesWritten" toml:"bytesWritten"`
	SHA256            string `json:"sha256" yaml:"sha256" toml:"sha256"`

	// SourceDeleteErr is set when the input could not be removed after a
	// successful run. The run itself still succeeded.
	SourceDeleteErr error `json:"-" yaml:"-" toml:"-"`
}

// Dropped is the number of lines read but not written.
func (s Stats) Dropped() int { return s.Read - s.Kept }

// Filter streams lines from in to out, dropping excluded positions, lines
// matching the pattern and the last rules.TrailingDrop surviving lines.
// Line terminators are written as read; a kept final line without one gets "\n".
func Filter(ctx context.Context, in io.Reader, out io.Writer, rules Rules) (Stats, error) {
	var st Stats
	if err := rules.Validate(); err != nil {
		return st, err
	}

	hw := hash.NewWriter(out)
	bw := bufio.NewWriter(hw)

	var matcher *Matcher
	if !rules.NoPattern {
		matcher = NewMatcher(rules.Pattern)
	}
	tail := newWindow(rules.TrailingDrop)

	br := bufio.NewReader(in)
	for {
		if st.Read%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return st, err
			}
		}

		line, readErr := br.ReadBytes('\n')
		if len(line) == 0 && readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return st, fmt.Errorf("reading line %d: %w", st.Read+1, readErr)
		}
		st.Read++

		switch {
		case rules.Positions.Excluded(st.Read):
			st.DroppedByPosition++
		case matcher != nil && matcher.Match(trimEOL(line)):
			st.DroppedByPattern++
		default:
			if kept, ok := tail.push(line); ok {
				if err := writeLine(bw, kept); err != nil {
					return st, fmt.Errorf("writing output: %w", err)
				}
				st.Kept++
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return st, fmt.Errorf("reading line %d: %w", st.Read+1, readErr)
		}
	}

	// Whatever is still withheld is the dropped tail.
	st.DroppedTail = tail.len()

	if err := bw.Flush(); err != nil {
		return st, fmt.Errorf("flushing output: %w", err)
	}
	st.BytesWritten = hw.Count()
	st.SHA256 = hw.Sum()
	return st, nil
}

func writeLine(bw *bufio.Writer, line []byte) error {
	if _, err := bw.Write(line); err != nil {
		return err
	}
	if !bytes.HasSuffix(line, []byte{'\n'}) {
		return bw.WriteByte('\n')
	}
	return nil
}

// trimEOL strips a trailing LF or CRLF so matching sees only the line content.
func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'})
}
