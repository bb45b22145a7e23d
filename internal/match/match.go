// Package match implements path matching for rule and review patterns.
//
// The dialect is small: `**` matches zero or more whole path segments,
// `*` matches within a single segment and never crosses `/`, `{key}`
// captures a correlating key from a single segment, and everything else
// is literal. Matching is case-sensitive and operates on forward-slash,
// repo-relative paths.
//
// Plain patterns (no capture) go through doublestar; capture patterns
// are compiled once into an anchored matcher with identical segment
// semantics. Both are pure functions of (path, pattern).
package match

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob reports whether path matches a plain glob pattern. Invalid
// patterns never match.
func Glob(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}

// GlobAny reports whether path matches any of the given patterns.
func GlobAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if Glob(p, path) {
			return true
		}
	}
	return false
}

// RelativeTo rebases path against a rule's source directory. Files
// outside the directory are excluded (ok=false). An empty sourceDir
// means the project root: every path qualifies unchanged.
func RelativeTo(sourceDir, path string) (string, bool) {
	if sourceDir == "" || sourceDir == "." {
		return path, true
	}
	prefix := strings.TrimSuffix(sourceDir, "/") + "/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	return path[len(prefix):], true
}

// Pattern is a compiled pattern that may carry one {key} capture
// placeholder.
type Pattern struct {
	raw        string
	re         *regexp.Regexp
	hasCapture bool
}

// Compile builds a Pattern. At most one capture placeholder is allowed;
// SET and PAIR patterns require exactly one, which the evaluator checks
// via HasCapture.
func Compile(pattern string) (*Pattern, error) {
	var b strings.Builder
	b.WriteString("^")
	captures := 0
	i := 0
	for i < len(pattern) {
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString(`(?:[^/]+/)*`)
			i += 3
		case strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(`.*`)
			i += 2
		case pattern[i] == '*':
			b.WriteString(`[^/]*`)
			i++
		case pattern[i] == '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("pattern %q: unterminated capture placeholder", pattern)
			}
			captures++
			if captures > 1 {
				return nil, fmt.Errorf("pattern %q: at most one capture placeholder allowed", pattern)
			}
			b.WriteString(`([^/]+)`)
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
			i++
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	return &Pattern{raw: pattern, re: re, hasCapture: captures == 1}, nil
}

// String returns the original pattern text.
func (p *Pattern) String() string { return p.raw }

// HasCapture reports whether the pattern carries a capture placeholder.
func (p *Pattern) HasCapture() bool { return p.hasCapture }

// Match reports whether path matches the pattern.
func (p *Pattern) Match(path string) bool {
	return p.re.MatchString(path)
}

// Capture returns the correlating key extracted from path, if the path
// matches and the pattern has a placeholder.
func (p *Pattern) Capture(path string) (string, bool) {
	if !p.hasCapture {
		return "", false
	}
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}
