package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallablePolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		callee     string
		textual    bool
		boundary   bool
		syntaxOnly bool
	}{
		{name: "plain call", body: "x = init(1);", callee: "init", textual: true, boundary: true, syntaxOnly: true},
		{name: "call at body start", body: "init();", callee: "init", textual: true, boundary: true, syntaxOnly: true},
		{name: "identifier suffix", body: "do_init();", callee: "init", textual: true, boundary: false, syntaxOnly: false},
		{name: "inside string literal", body: `printf("init(");`, callee: "init", textual: true, boundary: true, syntaxOnly: false},
		{name: "space before paren", body: "init (1);", callee: "init", textual: false, boundary: false, syntaxOnly: true},
		{name: "not mentioned", body: "return 0;", callee: "init", textual: false, boundary: false, syntaxOnly: false},
	}

	syntax := SyntaxAware()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.textual, TextualContainment(tt.body, tt.callee), "textual")
			assert.Equal(t, tt.boundary, IdentifierBoundary(tt.body, tt.callee), "boundary")
			assert.Equal(t, tt.syntaxOnly, syntax(tt.body, tt.callee), "syntax")
		})
	}
}

func TestSyntaxAware_MemoHoldsOneBody(t *testing.T) {
	t.Parallel()

	memo := &callMemo{}
	for i := 0; i < 3; i++ {
		assert.True(t, memo.called("a(); b();", "a"))
		assert.True(t, memo.called("a(); b();", "b"))
		assert.False(t, memo.called("c();", "a"))
		assert.True(t, memo.called("c();", "c"))
	}

	assert.Equal(t, "c();", memo.body)
	assert.Equal(t, map[string]bool{"c": true}, memo.names)
}

func TestIdentifierBoundary_LaterOccurrence(t *testing.T) {
	t.Parallel()

	assert.True(t, IdentifierBoundary("do_init(); init();", "init"))
}

func TestScopeEnd(t *testing.T) {
	t.Parallel()

	code := "{ a { b } c }"
	end, ok := ScopeEnd(code, 1)
	assert.True(t, ok)
	assert.Equal(t, len(code)-1, end)

	_, ok = ScopeEnd("{ a { b }", 1)
	assert.False(t, ok)

	_, ok = ScopeEnd("x", 5)
	assert.False(t, ok)
}
