package filters

import (
	"fmt"
	"slices"
	"sort"
)

// Positions is the set of 1-based line ordinals dropped regardless of content.
type Positions map[int]struct{}

// ParsePositions builds a Positions set, rejecting non-positive ordinals.
func ParsePositions(ordinals []int) (Positions, error) {
	p := make(Positions, len(ordinals))
	for _, n := range ordinals {
		if n <= 0 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidPosition, n)
		}
		p[n] = struct{}{}
	}
	return p, nil
}

// Excluded reports whether the line at pos is always dropped.
func (p Positions) Excluded(pos int) bool {
	_, ok := p[pos]
	return ok
}

// Sorted returns the ordinals in ascending order.
func (p Positions) Sorted() []int {
	out := make([]int, 0, len(p))
	for n := range p {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Rules configures a single filter run.
type Rules struct {
	// Positions lists line ordinals dropped before any other check.
	Positions Positions
	// Pattern drops lines containing it, ignoring ASCII case.
	// An empty pattern matches every line.
	Pattern string
	// NoPattern turns content matching off; Pattern is ignored.
	NoPattern bool
	// TrailingDrop is the number of surviving lines withheld at end of input.
	TrailingDrop int
}

// Validate checks that the rules can be applied.
func (r Rules) Validate() error {
	if r.TrailingDrop < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTrailingDrop, r.TrailingDrop)
	}
	for n := range r.Positions {
		if n <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidPosition, n)
		}
	}
	return nil
}

// Named presets for the dump layouts seen in practice. None of them is
// applied unless asked for by name.
const (
	PresetSQLCleaner = "sql-cleaner"
	PresetFixSQLite  = "fix-sqlite"
	PresetHeaderOnly = "header-only"
)

var presets = map[string]func() Rules{
	// Header line plus an unterminated six line footer.
	PresetSQLCleaner: func() Rules {
		return Rules{Positions: Positions{1: {}}, Pattern: DefaultPattern, TrailingDrop: 6}
	},
	// "BEGIN TRANSACTION;" on line 2 and the closing "COMMIT;".
	PresetFixSQLite: func() Rules {
		return Rules{Positions: Positions{2: {}}, Pattern: DefaultPattern, TrailingDrop: 1}
	},
	PresetHeaderOnly: func() Rules {
		return Rules{Positions: Positions{1: {}}, Pattern: DefaultPattern, TrailingDrop: 1}
	},
}

// DefaultRules drops nothing but lines matching DefaultPattern.
func DefaultRules() Rules {
	return Rules{Positions: Positions{}, Pattern: DefaultPattern}
}

// Preset returns a fresh copy of the named rule set.
func Preset(name string) (Rules, error) {
	fn, ok := presets[name]
	if !ok {
		return Rules{}, fmt.Errorf("%w %q (available: %v)", ErrUnknownPreset, name, PresetNames())
	}
	return fn(), nil
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
