package filters

// DefaultPattern is the target removed from dumps unless configured otherwise.
// Lines calling unistr() cannot be replayed by sqlite3.
const DefaultPattern = "unistr("

// Matcher tests lines for a fixed target using ASCII case folding.
type Matcher struct {
	target []byte
}

// NewMatcher lowers target once so Match only folds the line side.
func NewMatcher(target string) *Matcher {
	lowered := make([]byte, len(target))
	for i := 0; i < len(target); i++ {
		lowered[i] = lowerASCII(target[i])
	}
	return &Matcher{target: lowered}
}

// Match reports whether line contains the target anywhere.
func (m *Matcher) Match(line []byte) bool {
	return containsLowered(line, m.target)
}

// ContainsFold reports whether line contains target, comparing bytes after
// lowering ASCII letters only. An empty target always matches.
func ContainsFold(line, target []byte) bool {
	return NewMatcher(string(target)).Match(line)
}

func containsLowered(line, target []byte) bool {
	if len(target) == 0 {
		return true
	}
	if len(target) > len(line) {
		return false
	}
	for i := 0; i+len(target) <= len(line); i++ {
		j := 0
		for ; j < len(target); j++ {
			if lowerASCII(line[i+j]) != target[j] {
				break
			}
		}
		if j == len(target) {
			return true
		}
	}
	return false
}

func lowerASCII(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
