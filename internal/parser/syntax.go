package parser

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

// bodyWrapper turns a bare function body into a translation unit tree-sitter
// can parse.
const (
	bodyPrefix = "void __cyagen_body(void) {"
	bodySuffix = "}"
)

var cLanguage = sitter.NewLanguage(c.Language())

// SyntaxAware returns a token-aware policy: name is called from body when a
// tree-sitter-c call_expression in body has name as its callee identifier.
// Calls inside string literals and comments are not counted. The call set of
// the most recent body is memoized, which matches the parser's body-major
// iteration, so the returned policy should be reused across a parse.
func SyntaxAware() Callable {
	return (&callMemo{}).called
}

// callMemo holds the call set of one body at a time.
type callMemo struct {
	mu    sync.Mutex
	body  string
	names map[string]bool
}

func (m *callMemo) called(body, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.names == nil || m.body != body {
		m.body = body
		m.names = callNames(body)
	}
	return m.names[name]
}

// callNames collects the identifiers that appear in call position in body.
func callNames(body string) map[string]bool {
	names := make(map[string]bool)

	source := []byte(bodyPrefix + body + bodySuffix)

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(cLanguage); err != nil {
		return names
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return names
	}
	defer tree.Close()

	walkTree(tree.RootNode(), func(n *sitter.Node) bool {
		if n.Kind() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn != nil && fn.Kind() == "identifier" {
			names[nodeText(fn, source)] = true
		}
		return true
	})

	return names
}

// nodeText extracts the text content of a tree-sitter node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}
