package parser

import (
	"errors"
	"strings"
)

// ErrUnbalancedScope is returned when a function body never reaches its
// matching closing brace.
var ErrUnbalancedScope = errors.New("unbalanced scope")

// span is the half-open byte interval [start, end) of a function body, from
// just after the opening brace up to the matching closing brace.
type span struct {
	start int
	end   int
}

func (s span) contains(offset int) bool {
	return offset >= s.start && offset < s.end
}

func (s span) text(code string) string {
	return code[s.start:s.end]
}

// ScopeEnd scans code from start, which must sit one byte past an opening
// brace, and returns the offset of the closing brace that balances it.
// It returns false when the text ends before the depth drops to zero.
func ScopeEnd(code string, start int) (int, bool) {
	if start < 0 || start > len(code) {
		return start, false
	}
	depth := 1
	for i := start; i < len(code); i++ {
		switch code[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return start, false
}

// bodySpan locates the body that follows the signature found at offset at.
func bodySpan(code string, at int) (span, bool) {
	if at < 0 || at >= len(code) {
		return span{}, false
	}
	open := strings.IndexByte(code[at:], '{')
	if open < 0 {
		return span{}, false
	}
	start := at + open + 1
	end, ok := ScopeEnd(code, start)
	if !ok {
		return span{}, false
	}
	return span{start: start, end: end}, true
}
