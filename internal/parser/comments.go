package parser

import "regexp"

// commentPattern matches block comments (possibly spanning lines) and line
// comments up to, but not including, the newline.
var commentPattern = regexp.MustCompile(`(/\*([^*]|[\r\n]|(\*+([^*/]|[\r\n])))*\*+/)|(//.*)`)

// StripComments removes every /* ... */ and // ... span from code. All other
// bytes, including the newline that ends a line comment, are kept.
func StripComments(code string) string {
	return commentPattern.ReplaceAllLiteralString(code, "")
}
