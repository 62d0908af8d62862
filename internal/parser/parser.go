// Package parser mines structural facts out of C source text with lexical
// pattern matching. It is a best-effort miner, not a C front end: there is no
// macro expansion, no preprocessor evaluation and no symbol table.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/mvp-joe/cyagen/internal/facts"
)

// Attribution selects how a function body is located for a captured
// signature, and therefore which function owns a static declaration.
type Attribution int

const (
	// FirstOccurrence locates each body at the first textual occurrence of the
	// function's captured signature. Byte-identical signatures share a body.
	FirstOccurrence Attribution = iota
	// ByPosition uses the byte offset recorded when the signature was matched.
	ByPosition
)

var (
	includePattern = regexp.MustCompile(`#include[\s]+["<].+[">]`)
	typedefPattern = regexp.MustCompile(`typedef\s+(?:.*?\{[.\s\S]*?\}.*?;|[.\s\S]+?;)`)
)

// Options configures a Parser. The zero value is valid.
type Options struct {
	// MacroName is the local static variable helper macro. Empty means
	// facts.DefaultLocalStaticVarMacroName.
	MacroName string

	// Callable decides whether a body calls a function. Nil means
	// TextualContainment.
	Callable Callable

	Attribution Attribution

	Logger *zap.Logger
}

// Parser extracts a facts.Model from source text.
type Parser struct {
	macro       string
	callable    Callable
	attribution Attribution
	logger      *zap.Logger
}

// New creates a Parser from opts, filling in defaults.
func New(opts Options) *Parser {
	p := &Parser{
		macro:       opts.MacroName,
		callable:    opts.Callable,
		attribution: opts.Attribution,
		logger:      opts.Logger,
	}
	if p.macro == "" {
		p.macro = facts.DefaultLocalStaticVarMacroName
	}
	if p.callable == nil {
		p.callable = TextualContainment
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Parse is a convenience wrapper around New(Options{}).Parse.
func Parse(text string) (*facts.Model, error) {
	return New(Options{}).Parse(text)
}

// Parse builds the Fact Model for text. Comments are stripped once up front;
// every other step works on the stripped text. An error is returned only when
// a function body is not brace balanced.
func (p *Parser) Parse(text string) (*facts.Model, error) {
	code := StripComments(text)

	fncs := extractFunctions(code)
	spans, err := p.bodySpans(code, fncs)
	if err != nil {
		return nil, err
	}

	statics := p.attributeStaticVars(code, extractStaticVars(code), fncs, spans)
	statics = append(statics, extractMacroStaticVars(code, p.macro)...)

	ncls := p.nestedCalls(code, fncs, spans)

	m := &facts.Model{
		LocalStaticVarMacroName: p.macro,
		Incs:                    orEmpty(extractIncludes(code)),
		Typedefs:                orEmpty(extractTypedefs(code)),
		StaticVars:              orEmpty(statics),
		Fncs:                    orEmpty(fncs),
		Ncls:                    orEmpty(ncls),
		Callees:                 orEmpty(callees(ncls)),
	}

	p.logger.Debug("Extracted facts",
		zap.Int("includes", len(m.Incs)),
		zap.Int("typedefs", len(m.Typedefs)),
		zap.Int("static_vars", len(m.StaticVars)),
		zap.Int("functions", len(m.Fncs)),
		zap.Int("nested_calls", len(m.Ncls)))

	return m, nil
}

// orEmpty keeps collections with no elements non-nil so they export as [].
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// bodySpans computes the body interval of every function once.
func (p *Parser) bodySpans(code string, fncs []facts.Function) ([]span, error) {
	spans := make([]span, len(fncs))
	for i, fn := range fncs {
		at := fn.Offset
		if p.attribution == FirstOccurrence {
			at = strings.Index(code, fn.Captured)
		}
		s, ok := bodySpan(code, at)
		if !ok {
			return nil, fmt.Errorf("%w: body of function %q", ErrUnbalancedScope, fn.Name)
		}
		spans[i] = s
	}
	return spans, nil
}

// attributeStaticVars marks each declaration found inside a function body as
// local to the first such function.
func (p *Parser) attributeStaticVars(code string, vars []facts.StaticVariable, fncs []facts.Function, spans []span) []facts.StaticVariable {
	for i := range vars {
		for j, s := range spans {
			var inside bool
			if p.attribution == ByPosition {
				inside = s.contains(vars[i].Offset)
			} else {
				inside = strings.Contains(s.text(code), vars[i].Captured)
			}
			if inside {
				vars[i].IsLocal = true
				vars[i].FuncName = fncs[j].Name
				break
			}
		}
	}
	return vars
}

// nestedCalls emits one (callee, caller) pair for every caller body in which
// the policy detects a call to callee. Recursion is included.
func (p *Parser) nestedCalls(code string, fncs []facts.Function, spans []span) []facts.NestedCall {
	var result []facts.NestedCall
	for i, caller := range fncs {
		body := spans[i].text(code)
		for _, callee := range fncs {
			if p.callable(body, callee.Name) {
				result = append(result, facts.NestedCall{Callee: callee, Caller: caller})
			}
		}
	}
	return result
}

func extractIncludes(code string) []facts.Include {
	var result []facts.Include
	for _, captured := range dedup(includePattern.FindAllString(code, -1)) {
		result = append(result, facts.Include{Captured: captured})
	}
	return result
}

func extractTypedefs(code string) []facts.Typedef {
	var result []facts.Typedef
	for _, captured := range dedup(typedefPattern.FindAllString(code, -1)) {
		result = append(result, facts.Typedef{Captured: captured})
	}
	return result
}

// callees keeps the first Function seen per distinct callee name.
func callees(ncls []facts.NestedCall) []facts.Function {
	seen := make(map[string]bool)
	var result []facts.Function
	for _, ncl := range ncls {
		if seen[ncl.Callee.Name] {
			continue
		}
		seen[ncl.Callee.Name] = true
		result = append(result, ncl.Callee)
	}
	return result
}

// dedup trims every match and drops repeats, keeping first-seen order.
func dedup(matches []string) []string {
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
