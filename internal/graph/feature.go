package graph

import (
	"fmt"
	"sort"

	"github.com/fbkclanna/featlint/internal/model"
)

// NodeID is a handle into the feature graph's node arena.
type NodeID int32

// NodeKind distinguishes feature nodes from synthetic activated nodes.
type NodeKind int

const (
	FeatureNode NodeKind = iota
	// ActivatedNode stands for "this package is enabled".
	ActivatedNode
)

// Strength of an edge.
type Strength int

const (
	Weak Strength = iota
	Strong
)

func (s Strength) String() string {
	if s == Weak {
		return "weak"
	}
	return "strong"
}

// Edge is a directed activation relationship.
type Edge struct {
	To       NodeID
	Strength Strength
	Kind     model.DepKind
	// Local edges stay within one package.
	Local bool
	// Implicit edges come from dependency declarations rather than from an
	// entry of a feature's activation list.
	Implicit bool
}

// Node is one vertex of the feature graph.
type Node struct {
	ID      NodeID
	Package string
	// Feature is empty for activated nodes.
	Feature string
	Kind    NodeKind
	Out     []Edge
}

func (n *Node) String() string {
	if n.Kind == ActivatedNode {
		return "dep:" + n.Package
	}
	return n.Package + "/" + n.Feature
}

type nodeKey struct {
	pkg     string
	feature string
	kind    NodeKind
}

// FeatureGraph is the compiled activation graph of a workspace.
type FeatureGraph struct {
	ws    *model.Workspace
	nodes []Node
	index map[nodeKey]NodeID
	// byFeature lists feature nodes per feature name in package order.
	byFeature map[string][]NodeID
	// exposes is the reverse index package -> feature names.
	exposes map[string]map[string]struct{}
	// deps maps package -> local dependency name -> declaration.
	deps  map[string]map[string]*model.Dependency
	edges int
}

// Build compiles the feature graph. It fails with a *model.ModelError if an
// activation targets a feature the dependency does not declare.
func Build(ws *model.Workspace) (*FeatureGraph, error) {
	g := &FeatureGraph{
		ws:        ws,
		index:     make(map[nodeKey]NodeID),
		byFeature: make(map[string][]NodeID),
		exposes:   make(map[string]map[string]struct{}),
		deps:      make(map[string]map[string]*model.Dependency),
	}

	all := ws.All()
	for _, p := range all {
		set := make(map[string]struct{}, len(p.Features))
		for _, f := range p.Features {
			set[f.Name] = struct{}{}
			g.addNode(p.Name, f.Name, FeatureNode)
		}
		g.exposes[p.Name] = set
		g.addNode(p.Name, "", ActivatedNode)
	}

	for _, p := range ws.Members() {
		locals := make(map[string]*model.Dependency, len(p.Dependencies))
		for i := range p.Dependencies {
			d := &p.Dependencies[i]
			if cur, ok := locals[d.LocalName()]; !ok || (d.Kind == model.Normal && cur.Kind != model.Normal) {
				locals[d.LocalName()] = d
			}
		}
		g.deps[p.Name] = locals

		for _, f := range p.Features {
			from := g.index[nodeKey{p.Name, f.Name, FeatureNode}]
			for _, a := range f.Activations {
				if err := g.addActivation(p, f.Name, from, a); err != nil {
					return nil, err
				}
			}
		}
		if err := g.addDeclarations(p); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *FeatureGraph) addNode(pkg, feature string, kind NodeKind) NodeID {
	key := nodeKey{pkg, feature, kind}
	if id, ok := g.index[key]; ok {
		return id
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Package: pkg, Feature: feature, Kind: kind})
	g.index[key] = id
	if kind == FeatureNode {
		g.byFeature[feature] = append(g.byFeature[feature], id)
	}
	return id
}

func (g *FeatureGraph) addEdge(from NodeID, e Edge) {
	n := &g.nodes[from]
	for _, cur := range n.Out {
		if cur.To == e.To && cur.Strength == e.Strength {
			return
		}
	}
	n.Out = append(n.Out, e)
	g.edges++
}

// featureNode returns the node for feature on target, creating it for opaque
// packages.
func (g *FeatureGraph) featureNode(target *model.Package, feature string) (NodeID, bool) {
	if id, ok := g.index[nodeKey{target.Name, feature, FeatureNode}]; ok {
		return id, true
	}
	if !target.Opaque {
		return 0, false
	}
	return g.addNode(target.Name, feature, FeatureNode), true
}

func (g *FeatureGraph) addActivation(p *model.Package, feature string, from NodeID, a model.Activation) error {
	modelErr := func(err error) error {
		return &model.ModelError{Package: p.Name, Feature: feature, Entry: a.Raw, Err: err}
	}

	if a.Kind == model.Local {
		to, ok := g.index[nodeKey{p.Name, a.Feature, FeatureNode}]
		if !ok {
			return modelErr(fmt.Errorf("%w: %q", model.ErrUnknownFeature, a.Feature))
		}
		g.addEdge(from, Edge{To: to, Strength: Strong, Local: true})
		return nil
	}

	d, ok := p.Dependency(a.Dep)
	if !ok {
		return modelErr(fmt.Errorf("%w: %q", model.ErrUnknownDependency, a.Dep))
	}
	target := g.ws.Resolve(*d)
	activated := g.index[nodeKey{target.Name, "", ActivatedNode}]

	switch a.Kind {
	case model.Bare:
		g.addEdge(from, Edge{To: activated, Strength: Strong, Kind: d.Kind})
	case model.Strong, model.Weak:
		to, ok := g.featureNode(target, a.Feature)
		if !ok {
			return modelErr(fmt.Errorf("%w: %q does not declare %q", model.ErrUnknownFeature, target.Name, a.Feature))
		}
		strength := Strong
		if a.Kind == model.Weak {
			strength = Weak
		}
		g.addEdge(from, Edge{To: to, Strength: strength, Kind: d.Kind})
		if a.Kind == model.Strong && d.Optional {
			g.addEdge(from, Edge{To: activated, Strength: Strong, Kind: d.Kind})
		}
	}
	return nil
}

func (g *FeatureGraph) addDeclarations(p *model.Package) error {
	from := g.index[nodeKey{p.Name, "", ActivatedNode}]
	for _, d := range p.Dependencies {
		target := g.ws.Resolve(d)
		if d.DefaultFeatures && g.Exposes(target.Name, "default") {
			to, _ := g.featureNode(target, "default")
			g.addEdge(from, Edge{To: to, Strength: Strong, Kind: d.Kind, Implicit: true})
		}
		for _, f := range d.Features {
			to, ok := g.featureNode(target, f)
			if !ok {
				return &model.ModelError{
					Package: p.Name,
					Entry:   d.LocalName(),
					Err:     fmt.Errorf("%w: %q does not declare %q", model.ErrUnknownFeature, target.Name, f),
				}
			}
			g.addEdge(from, Edge{To: to, Strength: Strong, Kind: d.Kind, Implicit: true})
		}
		if !d.Optional {
			to := g.index[nodeKey{target.Name, "", ActivatedNode}]
			g.addEdge(from, Edge{To: to, Strength: Strong, Kind: d.Kind, Implicit: true})
		}
	}
	return nil
}

// Workspace returns the model the graph was built from.
func (g *FeatureGraph) Workspace() *model.Workspace { return g.ws }

// Node returns the node with the given handle.
func (g *FeatureGraph) Node(id NodeID) *Node { return &g.nodes[id] }

// NumNodes returns the number of nodes in the arena.
func (g *FeatureGraph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of distinct edges.
func (g *FeatureGraph) NumEdges() int { return g.edges }

// Lookup returns the feature node for (pkg, feature).
func (g *FeatureGraph) Lookup(pkg, feature string) (NodeID, bool) {
	id, ok := g.index[nodeKey{pkg, feature, FeatureNode}]
	return id, ok
}

// Activated returns the activated node of a package.
func (g *FeatureGraph) Activated(pkg string) (NodeID, bool) {
	id, ok := g.index[nodeKey{pkg, "", ActivatedNode}]
	return id, ok
}

// NodesNamed returns the feature nodes carrying the given feature name, in
// package declaration order.
func (g *FeatureGraph) NodesNamed(feature string) []NodeID {
	return g.byFeature[feature]
}

// Exposes reports in O(1) whether pkg exposes feature. Opaque external
// packages expose every feature.
func (g *FeatureGraph) Exposes(pkg, feature string) bool {
	if p, ok := g.ws.Package(pkg); ok && p.Opaque {
		return true
	}
	_, ok := g.exposes[pkg][feature]
	return ok
}

// DependencyExposes reports whether the dependency pkg addresses as local
// exposes feature, regardless of renames.
func (g *FeatureGraph) DependencyExposes(pkg, local, feature string) bool {
	d, ok := g.deps[pkg][local]
	if !ok {
		return false
	}
	return g.Exposes(d.Name, feature)
}

// Adjacent reports whether an edge from -> to exists.
func (g *FeatureGraph) Adjacent(from, to NodeID) bool {
	for _, e := range g.nodes[from].Out {
		if e.To == to {
			return true
		}
	}
	return false
}

// Predecessors returns the nodes with an edge into id, sorted by handle.
func (g *FeatureGraph) Predecessors(id NodeID) []NodeID {
	var out []NodeID
	for i := range g.nodes {
		if g.Adjacent(NodeID(i), id) {
			out = append(out, NodeID(i))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// FeatureNames returns every feature name present in the graph, sorted.
func (g *FeatureGraph) FeatureNames() []string {
	names := make([]string, 0, len(g.byFeature))
	for name := range g.byFeature {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path is a sequence of node handles.
type Path []NodeID

// Strings renders each node of the path.
func (g *FeatureGraph) Strings(p Path) []string {
	out := make([]string, len(p))
	for i, id := range p {
		out[i] = g.nodes[id].String()
	}
	return out
}

// FindPath runs a breadth-first search from start and returns the first path
// to a node (other than start itself) matching target. Edges rejected by
// follow are not traversed; a nil follow accepts every edge. The visited set
// keeps the search finite on cyclic graphs.
func (g *FeatureGraph) FindPath(start NodeID, target func(*Node) bool, follow func(from *Node, e Edge) bool) Path {
	parent := map[NodeID]NodeID{start: start}
	queue := []NodeID{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n := &g.nodes[cur]

		for _, e := range n.Out {
			if follow != nil && !follow(n, e) {
				continue
			}
			if _, seen := parent[e.To]; seen {
				continue
			}
			parent[e.To] = cur
			if target(&g.nodes[e.To]) {
				return g.unwind(parent, start, e.To)
			}
			queue = append(queue, e.To)
		}
	}
	return nil
}

func (g *FeatureGraph) unwind(parent map[NodeID]NodeID, start, end NodeID) Path {
	path := Path{end}
	for cur := end; cur != start; {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Reachable reports whether to can be reached from from following only edges
// accepted by follow.
func (g *FeatureGraph) Reachable(from, to NodeID, follow func(from *Node, e Edge) bool) bool {
	if from == to {
		return true
	}
	return g.FindPath(from, func(n *Node) bool { return n.ID == to }, follow) != nil
}
