package graph

import (
	"fmt"
	"sort"

	"github.com/fbkclanna/featlint/internal/model"
)

// PackageGraph is the depends-on graph over package names.
type PackageGraph struct {
	names []string
	index map[string]int
	out   [][]int
}

// BuildPackageGraph derives the package dependency graph. Every dependency
// kind contributes an edge; parallel edges collapse.
func BuildPackageGraph(ws *model.Workspace) *PackageGraph {
	g := &PackageGraph{index: make(map[string]int)}
	for _, p := range ws.All() {
		g.index[p.Name] = len(g.names)
		g.names = append(g.names, p.Name)
	}
	g.out = make([][]int, len(g.names))

	for _, p := range ws.Members() {
		from := g.index[p.Name]
		seen := make(map[int]bool, len(p.Dependencies))
		for _, d := range p.Dependencies {
			to := g.index[ws.Resolve(d).Name]
			if seen[to] {
				continue
			}
			seen[to] = true
			g.out[from] = append(g.out[from], to)
		}
	}
	return g
}

// Names returns every package name in declaration order.
func (g *PackageGraph) Names() []string { return g.names }

// Dependencies returns the direct dependencies of a package.
func (g *PackageGraph) Dependencies(name string) ([]string, error) {
	i, err := g.lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(g.out[i]))
	for k, j := range g.out[i] {
		out[k] = g.names[j]
	}
	return out, nil
}

func (g *PackageGraph) lookup(name string) (int, error) {
	i, ok := g.index[name]
	if !ok {
		return 0, NewQueryError(ErrUnknownPackage, name, g.names)
	}
	return i, nil
}

// ShortestPath returns one shortest path from -> to, both ends included, or
// nil when to is unreachable. Ties break by dependency declaration order.
func (g *PackageGraph) ShortestPath(from, to string) ([]string, error) {
	src, err := g.lookup(from)
	if err != nil {
		return nil, err
	}
	dst, err := g.lookup(to)
	if err != nil {
		return nil, err
	}
	if src == dst {
		return []string{from}, nil
	}

	parent := make([]int, len(g.names))
	for i := range parent {
		parent[i] = -1
	}
	parent[src] = src
	queue := []int{src}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.out[cur] {
			if parent[next] != -1 {
				continue
			}
			parent[next] = cur
			if next == dst {
				return g.walkBack(parent, src, dst), nil
			}
			queue = append(queue, next)
		}
	}
	return nil, nil
}

func (g *PackageGraph) walkBack(parent []int, src, dst int) []string {
	var rev []int
	for cur := dst; cur != src; cur = parent[cur] {
		rev = append(rev, cur)
	}
	rev = append(rev, src)

	path := make([]string, len(rev))
	for i, j := range rev {
		path[len(rev)-1-i] = g.names[j]
	}
	return path
}

// AllPaths enumerates simple paths from -> to in depth-first order, stops
// after limit paths and returns them shortest first. A limit of zero or less
// means no bound.
func (g *PackageGraph) AllPaths(from, to string, limit int) ([][]string, error) {
	src, err := g.lookup(from)
	if err != nil {
		return nil, err
	}
	dst, err := g.lookup(to)
	if err != nil {
		return nil, err
	}
	if src == dst {
		return [][]string{{from}}, nil
	}

	type frame struct {
		node int
		next int
	}
	var (
		found   [][]int
		onPath  = make([]bool, len(g.names))
		stack   = []frame{{node: src}}
		current = []int{src}
	)
	onPath[src] = true

	// Iterative DFS; each frame remembers which edge to try next.
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(g.out[top.node]) {
			onPath[top.node] = false
			stack = stack[:len(stack)-1]
			current = current[:len(current)-1]
			continue
		}
		next := g.out[top.node][top.next]
		top.next++

		if next == dst {
			p := append(append([]int(nil), current...), dst)
			found = append(found, p)
			if limit > 0 && len(found) == limit {
				break
			}
			continue
		}
		if onPath[next] {
			continue
		}
		onPath[next] = true
		stack = append(stack, frame{node: next})
		current = append(current, next)
	}

	sort.SliceStable(found, func(i, j int) bool { return len(found[i]) < len(found[j]) })

	paths := make([][]string, len(found))
	for i, p := range found {
		paths[i] = make([]string, len(p))
		for k, j := range p {
			paths[i][k] = g.names[j]
		}
	}
	return paths, nil
}

// String summarizes the graph size.
func (g *PackageGraph) String() string {
	edges := 0
	for _, o := range g.out {
		edges += len(o)
	}
	return fmt.Sprintf("%d packages, %d edges", len(g.names), edges)
}
