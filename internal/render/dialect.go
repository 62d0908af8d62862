package render

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// Jinja and Tera templates are compiled by pongo2, whose Django dialect
// differs in two places: loop state lives in forloop, and filters take one
// ":"-argument instead of a call with positional or keyword arguments.
// jinjaDialect rewrites both inside {{ }} and {% %} blocks before compiling.

// filterArgsFunc is the context function multi-argument filter calls are
// rewritten to. It packs key/value pairs into a filterArgs.
const filterArgsFunc = "_cyagen_filter_args"

var (
	jinjaBlockPattern = regexp.MustCompile(`(?s)(\{\{-?|\{%-?)(.*?)(-?\}\}|-?%\})`)
	loopAttrPattern   = regexp.MustCompile(`\bloop\.(index0|index|first|last|revindex0|revindex|length)\b`)
	filterCallPattern = regexp.MustCompile(`\|(\s*)([A-Za-z_]\w*)\(([^()]*)\)`)
	namedArgPattern   = regexp.MustCompile(`^([A-Za-z_]\w*)\s*=\s*([^=].*)$`)
)

var loopAttrs = map[string]string{
	"index":     "forloop.Counter",
	"index0":    "forloop.Counter0",
	"first":     "forloop.First",
	"last":      "forloop.Last",
	"revindex":  "forloop.Revcounter",
	"revindex0": "forloop.Revcounter0",
	"length":    "(forloop.Counter0 + forloop.Revcounter)",
}

// jinjaDialect rewrites a Jinja/Tera template into the pongo2 dialect.
// Text outside tags is left untouched.
func jinjaDialect(template string) string {
	return replaceAllSubmatchFunc(jinjaBlockPattern, template, func(g []string) string {
		inner := replaceAllSubmatchFunc(loopAttrPattern, g[2], func(a []string) string {
			return loopAttrs[a[1]]
		})
		inner = replaceAllSubmatchFunc(filterCallPattern, inner, rewriteFilterCall)
		return g[1] + inner + g[3]
	})
}

// rewriteFilterCall turns |name(args) into |name, |name:value, or
// |name:_cyagen_filter_args("key", value, ...) for several arguments.
// Positional arguments get an empty key.
func rewriteFilterCall(g []string) string {
	head := "|" + g[1] + g[2]
	args := splitArgs(g[3])

	switch len(args) {
	case 0:
		return head
	case 1:
		_, value := splitNamedArg(args[0])
		return head + ":" + value
	}

	parts := make([]string, 0, 2*len(args))
	for _, arg := range args {
		key, value := splitNamedArg(arg)
		parts = append(parts, strconv.Quote(key), value)
	}
	return head + ":" + filterArgsFunc + "(" + strings.Join(parts, ", ") + ")"
}

// splitArgs splits a call's argument list on commas outside string literals.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var args []string
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ',':
			args = append(args, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(args, strings.TrimSpace(s[start:]))
}

func splitNamedArg(arg string) (key, value string) {
	if m := namedArgPattern.FindStringSubmatch(arg); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return "", arg
}

// filterArgs holds the arguments of a multi-argument filter call.
type filterArgs struct {
	named      map[string]*pongo2.Value
	positional []*pongo2.Value
}

// get returns the argument called name, falling back to the positional
// argument at pos.
func (a filterArgs) get(name string, pos int) (*pongo2.Value, bool) {
	if v, ok := a.named[name]; ok {
		return v, true
	}
	if pos < len(a.positional) {
		return a.positional[pos], true
	}
	return nil, false
}

func packFilterArgs(pairs ...*pongo2.Value) (filterArgs, error) {
	if len(pairs)%2 != 0 {
		return filterArgs{}, errors.New("filter arguments must come in key/value pairs")
	}
	args := filterArgs{named: make(map[string]*pongo2.Value)}
	for i := 0; i < len(pairs); i += 2 {
		if key := pairs[i].String(); key != "" {
			args.named[key] = pairs[i+1]
		} else {
			args.positional = append(args.positional, pairs[i+1])
		}
	}
	return args, nil
}

// filterReplace is Tera's replace(from, to).
func filterReplace(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	args, ok := param.Interface().(filterArgs)
	if !ok {
		return nil, &pongo2.Error{
			Sender:    "filter:replace",
			OrigError: errors.New("expected two arguments: from and to"),
		}
	}
	from, okFrom := args.get("from", 0)
	to, okTo := args.get("to", 1)
	if !okFrom || !okTo {
		return nil, &pongo2.Error{
			Sender:    "filter:replace",
			OrigError: errors.New("expected two arguments: from and to"),
		}
	}
	return pongo2.AsValue(strings.ReplaceAll(in.String(), from.String(), to.String())), nil
}
