// Package promise extracts explicit rule acknowledgments from agent
// transcript text and suppresses already-satisfied rules.
//
// The tag grammar is fixed and narrow: this is a dedicated scanner,
// not an HTML parser:
//
//	<promise rule="Rule Name">…</promise>
//
// Tag and attribute names match case-insensitively; the rule name
// payload is compared byte-exact. Single or double quotes are accepted.
// Unterminated tags are ignored.
package promise

import "strings"

// Block is one role-tagged chunk of transcript text supplied by the
// host platform.
type Block struct {
	Role string
	Text string
}

// Extract scans transcript blocks in order and returns the set of
// promised rule names. Repeated promises are harmless.
func Extract(blocks []Block) map[string]bool {
	promised := make(map[string]bool)
	for _, b := range blocks {
		scanText(b.Text, promised)
	}
	return promised
}

// ExtractText scans a single text, for callers holding a pre-joined
// transcript.
func ExtractText(text string) map[string]bool {
	promised := make(map[string]bool)
	scanText(text, promised)
	return promised
}

const (
	openTag  = "<promise"
	attrName = "rule"
	closeTag = "</promise>"
)

func scanText(text string, promised map[string]bool) {
	lower := strings.ToLower(text)
	pos := 0
	for {
		i := strings.Index(lower[pos:], openTag)
		if i < 0 {
			return
		}
		start := pos + i
		pos = start + len(openTag)

		name, after, ok := parseOpenTag(text, lower, pos)
		if !ok {
			continue
		}
		if !strings.Contains(lower[after:], closeTag) {
			continue
		}
		promised[name] = true
		pos = after
	}
}

// parseOpenTag parses `rule="NAME">` starting just past "<promise",
// returning the captured name and the offset past the closing '>'.
func parseOpenTag(text, lower string, pos int) (name string, after int, ok bool) {
	pos = skipSpace(text, pos)
	if !strings.HasPrefix(lower[pos:], attrName) {
		return "", 0, false
	}
	pos = skipSpace(text, pos+len(attrName))
	if pos >= len(text) || text[pos] != '=' {
		return "", 0, false
	}
	pos = skipSpace(text, pos+1)
	if pos >= len(text) || (text[pos] != '"' && text[pos] != '\'') {
		return "", 0, false
	}
	quote := text[pos]
	pos++
	end := strings.IndexByte(text[pos:], quote)
	if end < 0 {
		return "", 0, false
	}
	name = text[pos : pos+end]
	pos = skipSpace(text, pos+end+1)
	if pos >= len(text) || text[pos] != '>' {
		return "", 0, false
	}
	return name, pos + 1, true
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t' || s[pos] == '\n' || s[pos] == '\r') {
		pos++
	}
	return pos
}
