package parser

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/cyagen/internal/facts"
)

var (
	// functionPattern matches a definition: a return-type run (or the
	// FUNC(<type>, <class>) macro spelling), a name, a parameter list free of
	// characters that only appear in calls and conditions, then "{".
	functionPattern = regexp.MustCompile(
		`((?P<return>\w+[\w\s\*]*\s+)|FUNC\((?P<return_ex>[^,]+),[^\)]+\)\s*)(?P<name>\w+)\w*\s*\((?P<args>[^=!><>;\(\)-]*)\)\s*\{`)

	whitespacePattern = regexp.MustCompile(`\s+`)

	// trailingConstPattern detects "type const *" so const can be moved in
	// front of the base type.
	trailingConstPattern = regexp.MustCompile(`\w[\s\r\n]+const[\s\r\n]*\*`)

	storageKeywords = []string{"static", "STATIC", "inline", "INLINE"}
)

var (
	fnReturn   = functionPattern.SubexpIndex("return")
	fnReturnEx = functionPattern.SubexpIndex("return_ex")
	fnName     = functionPattern.SubexpIndex("name")
	fnArgs     = functionPattern.SubexpIndex("args")
)

// extractFunctions lists every function definition in code in source order.
func extractFunctions(code string) []facts.Function {
	var result []facts.Function
	for _, loc := range functionPattern.FindAllStringSubmatchIndex(code, -1) {
		name := strings.TrimSpace(group(code, loc, fnName))
		if name == "if" {
			continue
		}

		raw := code[loc[0]:loc[1]]
		captured := strings.TrimSpace(raw)

		rtype := group(code, loc, fnReturnEx)
		if rtype == "" {
			rtype = group(code, loc, fnReturn)
		}
		for _, kw := range storageKeywords {
			rtype = strings.ReplaceAll(rtype, kw, "")
		}

		args := normalizeArgs(group(code, loc, fnArgs))

		result = append(result, facts.Function{
			Captured: captured,
			Name:     name,
			IsLocal:  strings.Contains(strings.ToLower(captured), "static"),
			RType:    strings.TrimSpace(rtype),
			Args:     args,
			ATypes:   argTypes(args),
			ANames:   argNames(args),
			Offset:   loc[0] + len(raw) - len(strings.TrimLeft(raw, " \t\r\n\f\v")),
		})
	}
	return result
}

// normalizeArgs collapses whitespace, drops line-continuation backslashes and
// maps a lone "void" to the empty list.
func normalizeArgs(raw string) string {
	args := strings.ReplaceAll(raw, `\`, "")
	args = whitespacePattern.ReplaceAllLiteralString(strings.TrimSpace(args), " ")
	if args == "void" {
		return ""
	}
	return args
}

// splitArg splits one parameter at the rightmost space or '*'. ok is false
// for parameters without a separator, such as an unnamed "int".
func splitArg(arg string) (typ, name string, ok bool) {
	pos := strings.LastIndexAny(arg, "* ")
	if pos < 0 {
		return "", "", false
	}
	return arg[:pos+1], arg[pos:], true
}

// argTypes derives the comma-joined parameter types. Array brackets on the
// name become trailing '*' on the type.
func argTypes(args string) string {
	var types []string
	for _, arg := range strings.Split(args, ",") {
		typ, tail, ok := splitArg(strings.TrimSpace(arg))
		if !ok {
			continue
		}
		typ = strings.TrimSpace(typ)
		if trailingConstPattern.MatchString(typ) {
			typ = "const " + strings.Replace(typ, "const", "", 1)
			typ = whitespacePattern.ReplaceAllLiteralString(typ, " ")
		}
		typ += strings.Repeat("*", strings.Count(tail, "["))
		types = append(types, typ)
	}
	joined := strings.Join(types, ", ")
	if strings.TrimSpace(joined) == "void" {
		return ""
	}
	return joined
}

// argNames derives the comma-joined parameter names with array suffixes
// removed.
func argNames(args string) string {
	var names []string
	for _, arg := range strings.Split(args, ",") {
		_, tail, ok := splitArg(strings.TrimSpace(arg))
		if !ok {
			continue
		}
		name := strings.TrimLeft(tail, "* ")
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		names = append(names, strings.TrimSpace(name))
	}
	return strings.Join(names, ", ")
}

// group returns the text of capture group idx, or "" when it did not
// participate in the match.
func group(s string, loc []int, idx int) string {
	if idx < 0 || 2*idx+1 >= len(loc) || loc[2*idx] < 0 {
		return ""
	}
	return s[loc[2*idx]:loc[2*idx+1]]
}
