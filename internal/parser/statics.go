package parser

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/mvp-joe/cyagen/internal/facts"
)

// staticPattern matches a static declaration: the storage keyword run
// (static, optionally with const in either order), a type prefix, the
// identifier, an optional [size] and an optional initializer.
var staticPattern = regexp.MustCompile(
	`(?i)(?P<keyword>static\s+const\s+|const\s+static\s+|static\s+)+(?P<dtype>.*?)(?P<name>\w+)\s*(?:\[(?P<array_size>.*?)\])?\s*(?:=\s*(?P<value>\{.*?\}|.*?))?;`)

var (
	svKeyword   = staticPattern.SubexpIndex("keyword")
	svDType     = staticPattern.SubexpIndex("dtype")
	svName      = staticPattern.SubexpIndex("name")
	svArraySize = staticPattern.SubexpIndex("array_size")
)

// macroPatterns caches the compiled declaration pattern per macro name.
var macroPatterns sync.Map

// macroPattern returns the pattern for MACRO(func, type, name[size], init);
func macroPattern(macro string) *regexp.Regexp {
	if re, ok := macroPatterns.Load(macro); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(macro) +
		`\s*\(\s*(?P<func>\w+)\s*,\s*(?P<dtype>[^,;]+?)\s*,\s*(?P<name>\w+)\s*(?:\[(?P<array_size>[^\]]*)\])?\s*,\s*(?P<value>[^;\n]*?)\s*\)\s*;`)
	actual, _ := macroPatterns.LoadOrStore(macro, re)
	return actual.(*regexp.Regexp)
}

// extractStaticVars lists the static declarations in code. Ownership is left
// unresolved; see (*Parser).attributeStaticVars.
func extractStaticVars(code string) []facts.StaticVariable {
	var result []facts.StaticVariable
	for _, loc := range staticPattern.FindAllStringSubmatchIndex(code, -1) {
		raw := code[loc[0]:loc[1]]
		name := strings.TrimSpace(group(code, loc, svName))

		v := facts.StaticVariable{
			Captured: strings.TrimSpace(raw),
			Name:     name,
			NameExpr: name,
			DType:    strings.TrimSpace(group(code, loc, svDType)),
			IsConst:  strings.Contains(strings.ToLower(group(code, loc, svKeyword)), "const"),
			Init:     "0",
			Offset:   loc[0],
		}
		if loc[2*svArraySize] >= 0 {
			size := strings.TrimSpace(group(code, loc, svArraySize))
			v.NameExpr = name + "[" + size + "]"
			v.Init = size
			v.ArraySize = parseArraySize(size)
		}
		result = append(result, v)
	}
	return result
}

// extractMacroStaticVars lists declarations written with the local static
// variable helper macro. The owning function is taken from the first macro
// argument instead of being inferred from body containment.
func extractMacroStaticVars(code, macro string) []facts.StaticVariable {
	if macro == "" {
		return nil
	}
	re := macroPattern(macro)
	var (
		fn    = re.SubexpIndex("func")
		dtype = re.SubexpIndex("dtype")
		nm    = re.SubexpIndex("name")
		size  = re.SubexpIndex("array_size")
		value = re.SubexpIndex("value")
	)

	var result []facts.StaticVariable
	for _, loc := range re.FindAllStringSubmatchIndex(code, -1) {
		if isDirectiveLine(code, loc[0]) {
			continue
		}
		name := group(code, loc, nm)
		typ := strings.TrimSpace(group(code, loc, dtype))

		v := facts.StaticVariable{
			Captured: strings.TrimSpace(code[loc[0]:loc[1]]),
			Name:     name,
			NameExpr: name,
			DType:    typ,
			IsLocal:  true,
			FuncName: group(code, loc, fn),
			Init:     strings.TrimSpace(group(code, loc, value)),
			IsConst:  strings.Contains(strings.ToLower(typ), "const"),
			Offset:   loc[0],
		}
		if loc[2*size] >= 0 {
			s := strings.TrimSpace(group(code, loc, size))
			v.NameExpr = name + "[" + s + "]"
			v.ArraySize = parseArraySize(s)
		}
		result = append(result, v)
	}
	return result
}

func parseArraySize(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// isDirectiveLine reports whether the line holding offset is a preprocessor
// directive, e.g. the #define of the helper macro itself.
func isDirectiveLine(code string, offset int) bool {
	lineStart := strings.LastIndexByte(code[:offset], '\n') + 1
	return strings.HasPrefix(strings.TrimSpace(code[lineStart:offset]), "#")
}
