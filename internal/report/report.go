// Package report renders the summary of a clean run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/danielsiegl/sqltrim/internal/filters"
	"github.com/danielsiegl/sqltrim/internal/sqlite"
)

// Summary is what a clean run reports on stdout.
type Summary struct {
	Input   string `json:"input" yaml:"input" toml:"input"`
	Output  string `json:"output" yaml:"output" toml:"output"`
	Total   int    `json:"total" yaml:"total" toml:"total"`
	Kept    int    `json:"kept" yaml:"kept" toml:"kept"`
	Dropped int    `json:"dropped" yaml:"dropped" toml:"dropped"`

	Stats filters.Stats `json:"stats" yaml:"stats" toml:"stats"`

	SourceDeleted bool   `json:"sourceDeleted" yaml:"sourceDeleted" toml:"sourceDeleted"`
	Warning       string `json:"warning,omitempty" yaml:"warning,omitempty" toml:"warning,omitempty"`

	Verify *sqlite.Result `json:"verify,omitempty" yaml:"verify,omitempty" toml:"verify,omitempty"`
}

// New builds a Summary from a finished run.
func New(input, output string, st filters.Stats, deleteRequested bool) Summary {
	s := Summary{
		Input:   input,
		Output:  output,
		Total:   st.Read,
		Kept:    st.Kept,
		Dropped: st.Dropped(),
		Stats:   st,
	}
	if deleteRequested {
		if st.SourceDeleteErr != nil {
			s.Warning = fmt.Sprintf("could not delete %s: %v", input, st.SourceDeleteErr)
		} else {
			s.SourceDeleted = true
		}
	}
	return s
}

// Write renders s to w in the given format (text, json, yaml or toml).
func Write(w io.Writer, format string, s Summary) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(s)
	case "text", "":
		_, err := io.WriteString(w, text(s))
		return err
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

func text(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "total: %d, kept: %d, dropped: %d\n", s.Total, s.Kept, s.Dropped)
	fmt.Fprintf(&b, "  by position: %d, by pattern: %d, trailing: %d\n",
		s.Stats.DroppedByPosition, s.Stats.DroppedByPattern, s.Stats.DroppedTail)
	fmt.Fprintf(&b, "output: %s (%d bytes, sha256 %s)\n", s.Output, s.Stats.BytesWritten, s.Stats.SHA256)
	if s.SourceDeleted {
		fmt.Fprintf(&b, "source %s deleted\n", s.Input)
	}
	if s.Warning != "" {
		fmt.Fprintf(&b, "warning: %s\n", s.Warning)
	}
	if s.Verify != nil {
		fmt.Fprintf(&b, "verified: %d statements, tables: %s\n", s.Verify.Statements, strings.Join(s.Verify.Tables, ", "))
	}
	return b.String()
}
