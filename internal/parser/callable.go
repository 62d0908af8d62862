package parser

import "strings"

// Callable reports whether body calls the function called name. It is the
// policy used both for nested-call detection and can be swapped without
// touching the rest of the extraction pipeline.
type Callable func(body, name string) bool

// TextualContainment is the default policy: the literal text "name(" occurs
// anywhere in body. It also matches inside string literals and as the suffix
// of a longer identifier.
func TextualContainment(body, name string) bool {
	return strings.Contains(body, name+"(")
}

// IdentifierBoundary behaves like TextualContainment but requires that the
// byte before the name is not part of an identifier, so "do_init(" does not
// count as a call to "init".
func IdentifierBoundary(body, name string) bool {
	needle := name + "("
	for from := 0; from <= len(body); {
		i := strings.Index(body[from:], needle)
		if i < 0 {
			return false
		}
		at := from + i
		if at == 0 || !isIdentByte(body[at-1]) {
			return true
		}
		from = at + 1
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
