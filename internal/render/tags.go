package render

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/cyagen/internal/facts"
)

// binding is one inline field token and the value it renders as.
type binding struct {
	token string
	value string
}

// item is the rendering scope of one block repetition.
type item struct {
	bindings []binding
	// callee is set inside nested-call blocks and enables the directives.
	callee *facts.Function
}

// blockKind is one of the closed set of block tags. Each kind owns the Fact
// Model collection it repeats over.
type blockKind struct {
	tag   string
	items func(m *facts.Model) []item
}

func (b blockKind) open() string  { return "@" + b.tag + "@" }
func (b blockKind) close() string { return "@end-" + b.tag + "@" }

// blockKinds is processed in order. Each kind is expanded over the output of
// the previous ones.
var blockKinds = []blockKind{
	{tag: "incs", items: includeItems},
	{tag: "static-vars", items: staticItems(func(m *facts.Model) []facts.StaticVariable { return m.StaticVars })},
	{tag: "static-global-vars", items: staticItems((*facts.Model).GlobalStaticVars)},
	{tag: "static-local-vars", items: staticItems((*facts.Model).LocalStaticVars)},
	{tag: "fncs", items: functionItems(func(m *facts.Model) []facts.Function { return m.Fncs })},
	{tag: "fncs0", items: functionItems(func(m *facts.Model) []facts.Function { return m.Fncs })},
	{tag: "local-fncs", items: functionItems((*facts.Model).LocalFunctions)},
	{tag: "ncls", items: func(m *facts.Model) []item { return callItems(m.Ncls) }},
	{tag: "ncls-once", items: func(m *facts.Model) []item { return callItems(m.UniqueCalls()) }},
}

func includeItems(m *facts.Model) []item {
	items := make([]item, 0, len(m.Incs))
	for _, inc := range m.Incs {
		items = append(items, item{bindings: []binding{{"@captured@", inc.Captured}}})
	}
	return items
}

func staticItems(vars func(*facts.Model) []facts.StaticVariable) func(*facts.Model) []item {
	return func(m *facts.Model) []item {
		var items []item
		for _, v := range vars(m) {
			items = append(items, item{bindings: []binding{
				{"@captured@", v.Captured},
				{"@name@", v.Name},
				{"@name-expr@", v.NameExpr},
				{"@dtype@", v.DType},
				{"@func-name@", v.FuncName},
			}})
		}
		return items
	}
}

func functionItems(fncs func(*facts.Model) []facts.Function) func(*facts.Model) []item {
	return func(m *facts.Model) []item {
		var items []item
		for _, fn := range fncs(m) {
			items = append(items, item{bindings: []binding{
				{"@captured@", fn.Captured},
				{"@name@", fn.Name},
				{"@rtype@", fn.RType},
				{"@args@", fn.Args},
				{"@atypes@", fn.ATypes},
				{"@anames@", fn.ANames},
			}})
		}
		return items
	}
}

func callItems(ncls []facts.NestedCall) []item {
	items := make([]item, 0, len(ncls))
	for i := range ncls {
		callee, caller := ncls[i].Callee, ncls[i].Caller
		items = append(items, item{
			bindings: append(functionBindings("callee", callee), functionBindings("caller", caller)...),
			callee:   &callee,
		})
	}
	return items
}

func functionBindings(prefix string, fn facts.Function) []binding {
	return []binding{
		{"@" + prefix + ".name@", fn.Name},
		{"@" + prefix + ".rtype@", fn.RType},
		{"@" + prefix + ".args@", fn.Args},
		{"@" + prefix + ".atypes@", fn.ATypes},
		{"@" + prefix + ".anames@", fn.ANames},
	}
}

// directive is a conditional rewrite keyed on the current callee. Directives
// run after the field tokens have been substituted.
type directive struct {
	pattern *regexp.Regexp
	apply   func(callee facts.Function, groups []string) string
}

var directives = []directive{
	{
		// @callee.rtype.change(<from>=<to>)@
		pattern: regexp.MustCompile(`@callee\.rtype\.change\(([^=()@]+)=([^()@]+)\)@`),
		apply: func(callee facts.Function, groups []string) string {
			if callee.RType == groups[1] {
				return groups[2]
			}
			return callee.RType
		},
	},
	{
		// @callee.rtype.remove(<text>)@ and @callee.rtype.remove0(<text>)@
		pattern: regexp.MustCompile(`@callee\.rtype\.remove0?\(([^)]+)\)@`),
		apply: func(callee facts.Function, groups []string) string {
			if callee.RType == "void" {
				return ""
			}
			return groups[1]
		},
	},
	{
		// @callee.args.remove(<text>)@
		pattern: regexp.MustCompile(`@callee\.args\.remove\(([^)]+)\)@`),
		apply: func(callee facts.Function, groups []string) string {
			if callee.Args == "" || callee.Args == "void" {
				return ""
			}
			return groups[1]
		},
	},
}

// expand renders fragment once for it.
func (it item) expand(fragment string) string {
	pairs := make([]string, 0, 2*len(it.bindings))
	for _, b := range it.bindings {
		pairs = append(pairs, b.token, b.value)
	}
	out := strings.NewReplacer(pairs...).Replace(fragment)

	if it.callee == nil {
		return out
	}
	for _, d := range directives {
		out = replaceAllSubmatchFunc(d.pattern, out, func(groups []string) string {
			return d.apply(*it.callee, groups)
		})
	}
	return out
}

// replaceAllSubmatchFunc is regexp.ReplaceAllStringFunc with access to the
// capture groups. The replacement is inserted literally.
func replaceAllSubmatchFunc(re *regexp.Regexp, s string, repl func(groups []string) string) string {
	locs := re.FindAllStringSubmatchIndex(s, -1)
	if locs == nil {
		return s
	}

	var sb strings.Builder
	last := 0
	for _, loc := range locs {
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = s[loc[2*i]:loc[2*i+1]]
			}
		}
		sb.WriteString(s[last:loc[0]])
		sb.WriteString(repl(groups))
		last = loc[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// expandBlocks replaces every @tag@ ... @end-tag@ pair of kind in text. Each
// opening tag pairs with the next closing tag; an opening tag without one is
// left as-is, along with the rest of the text.
func expandBlocks(text string, kind blockKind, m *facts.Model) string {
	open, closing := kind.open(), kind.close()

	var items []item
	for from := 0; ; {
		i := strings.Index(text[from:], open)
		if i < 0 {
			return text
		}
		start := from + i
		j := strings.Index(text[start+len(open):], closing)
		if j < 0 {
			return text
		}
		fragStart := start + len(open)
		fragEnd := fragStart + j
		fragment := text[fragStart:fragEnd]

		if items == nil {
			items = kind.items(m)
		}
		var sb strings.Builder
		for _, it := range items {
			sb.WriteString(it.expand(fragment))
		}
		repl := sb.String()

		text = text[:start] + repl + text[fragEnd+len(closing):]
		from = start + len(repl)
	}
}
