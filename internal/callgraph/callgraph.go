// Package callgraph builds a directed call graph from the nested calls of a
// Fact Model and answers caller/callee queries over it.
package callgraph

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/mvp-joe/cyagen/internal/facts"
)

// Graph is the call graph of one source file. Vertices are function names;
// an edge caller -> callee carries the number of (caller, callee) nested
// calls as its weight.
type Graph struct {
	g graph.Graph[string, facts.Function]
}

// Build creates the call graph of m. Every function becomes a vertex, even
// when it neither calls nor is called. Recursive functions get a self loop.
func Build(m *facts.Model) (*Graph, error) {
	g := graph.New(func(f facts.Function) string { return f.Name }, graph.Directed())

	for _, fn := range m.Fncs {
		shape := "box"
		if fn.IsLocal {
			shape = "ellipse"
		}
		err := g.AddVertex(fn, graph.VertexAttribute("shape", shape))
		if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("failed to add function %s: %w", fn.Name, err)
		}
	}

	type pair struct{ from, to string }
	counts := make(map[pair]int)
	var order []pair
	for _, ncl := range m.Ncls {
		p := pair{from: ncl.Caller.Name, to: ncl.Callee.Name}
		if counts[p] == 0 {
			order = append(order, p)
		}
		counts[p]++
	}

	for _, p := range order {
		n := counts[p]
		opts := []func(*graph.EdgeProperties){graph.EdgeWeight(n)}
		if n > 1 {
			opts = append(opts, graph.EdgeAttribute("label", strconv.Itoa(n)))
		}
		if err := g.AddEdge(p.from, p.to, opts...); err != nil {
			return nil, fmt.Errorf("failed to add call %s -> %s: %w", p.from, p.to, err)
		}
	}

	return &Graph{g: g}, nil
}

// Functions returns the names of all functions, sorted.
func (c *Graph) Functions() ([]string, error) {
	adj, err := c.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(adj))
	for name := range adj {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Callees returns the functions reachable from name within depth calls,
// sorted. A depth below 1 means direct callees only.
func (c *Graph) Callees(name string, depth int) ([]string, error) {
	adj, err := c.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	return reach(adj, name, depth)
}

// Callers returns the functions that reach name within depth calls, sorted.
// A depth below 1 means direct callers only.
func (c *Graph) Callers(name string, depth int) ([]string, error) {
	pred, err := c.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	return reach(pred, name, depth)
}

// Weight returns the number of nested calls recorded from caller to callee,
// or 0 when there is none.
func (c *Graph) Weight(caller, callee string) int {
	e, err := c.g.Edge(caller, callee)
	if err != nil {
		return 0
	}
	return e.Properties.Weight
}

// Recursive returns the groups of mutually recursive functions, including
// single functions that call themselves. Each group is sorted and the groups
// are ordered by their first name.
func (c *Graph) Recursive() ([][]string, error) {
	sccs, err := graph.StronglyConnectedComponents(c.g)
	if err != nil {
		return nil, err
	}

	var groups [][]string
	for _, scc := range sccs {
		if len(scc) == 1 && c.Weight(scc[0], scc[0]) == 0 {
			continue
		}
		group := append([]string(nil), scc...)
		sort.Strings(group)
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups, nil
}

// WriteDOT writes the graph in Graphviz DOT format.
func (c *Graph) WriteDOT(w io.Writer) error {
	return draw.DOT(c.g, w)
}

// reach walks edges breadth first from start up to depth hops.
func reach(edges map[string]map[string]graph.Edge[string], start string, depth int) ([]string, error) {
	if _, ok := edges[start]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, start)
	}
	if depth < 1 {
		depth = 1
	}

	visited := map[string]bool{}
	frontier := []string{start}
	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, name := range frontier {
			for target := range edges[name] {
				if visited[target] {
					continue
				}
				visited[target] = true
				next = append(next, target)
			}
		}
		frontier = next
	}

	result := make([]string, 0, len(visited))
	for name := range visited {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

// ErrUnknownFunction is returned when a query names a function that is not
// defined in the source.
var ErrUnknownFunction = errors.New("unknown function")
