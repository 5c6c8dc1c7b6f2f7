package discovery

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// NextUINode - Node in the NeXt UI topology format.
type NextUINode struct {
	ID   int       `json:"id"`
	Name DeviceKey `json:"name"`
}

// NextUILink - Link in the NeXt UI topology format.
type NextUILink struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// NextUITopology - Topology in the format expected by the NeXt UI toolkit.
type NextUITopology struct {
	Nodes []NextUINode `json:"nodes"`
	Links []NextUILink `json:"links"`
}

// NextUI - Convert to NeXt UI format, with node IDs in node order.
func (topology Topology) NextUI() NextUITopology {
	ids := topology.nodeIDs()
	next := NextUITopology{
		Nodes: make([]NextUINode, 0, len(topology.Nodes)),
		Links: make([]NextUILink, 0, len(topology.Links)),
	}
	for i, node := range topology.Nodes {
		next.Nodes = append(next.Nodes, NextUINode{ID: i, Name: node})
	}
	for _, link := range topology.Links {
		next.Links = append(next.Links, NextUILink{
			Source: int(ids[link.SourceNode]),
			Target: int(ids[link.TargetNode]),
		})
	}
	return next
}

// Components - Connected components (islands) of the topology, each sorted, largest first.
func (topology Topology) Components() [][]DeviceKey {
	ids := topology.nodeIDs()
	undirected := simple.NewUndirectedGraph()
	for i := range topology.Nodes {
		undirected.AddNode(simple.Node(i))
	}
	for _, link := range topology.Links {
		from, to := ids[link.SourceNode], ids[link.TargetNode]
		if from == to {
			continue
		}
		undirected.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	var components [][]DeviceKey
	for _, nodes := range topo.ConnectedComponents(undirected) {
		component := make([]DeviceKey, 0, len(nodes))
		for _, node := range nodes {
			component = append(component, topology.Nodes[node.ID()])
		}
		sort.Slice(component, func(i, j int) bool { return component[i] < component[j] })
		components = append(components, component)
	}
	sort.SliceStable(components, func(i, j int) bool {
		if len(components[i]) != len(components[j]) {
			return len(components[i]) > len(components[j])
		}
		return components[i][0] < components[j][0]
	})
	return components
}

// DOT - Render the topology as an undirected Graphviz graph, labelling link ends with interfaces.
func (topology Topology) DOT() ([]byte, error) {
	ids := topology.nodeIDs()
	g := dotGraph{
		UndirectedGraph: multi.NewUndirectedGraph(),
		graphAttrs:      dotAttributes{{Key: "overlap", Value: "false"}, {Key: "splines", Value: "true"}},
		nodeAttrs:       dotAttributes{{Key: "shape", Value: "box"}, {Key: "fontname", Value: "Helvetica"}},
		edgeAttrs:       dotAttributes{{Key: "fontname", Value: "Helvetica"}, {Key: "fontsize", Value: "9"}},
	}
	for i, node := range topology.Nodes {
		g.AddNode(dotNode{id: int64(i), name: node})
	}
	for i, link := range topology.Links {
		g.SetLine(dotLine{
			from: dotNode{id: ids[link.SourceNode], name: link.SourceNode},
			to:   dotNode{id: ids[link.TargetNode], name: link.TargetNode},
			id:   int64(i),
			link: link,
		})
	}
	data, err := dot.MarshalMulti(g, "topology", "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render topology as DOT: %w", err)
	}
	return data, nil
}

func (topology Topology) nodeIDs() map[DeviceKey]int64 {
	ids := make(map[DeviceKey]int64, len(topology.Nodes))
	for i, node := range topology.Nodes {
		ids[node] = int64(i)
	}
	return ids
}

type dotAttributes []encoding.Attribute

func (attributes dotAttributes) Attributes() []encoding.Attribute { return attributes }

type dotGraph struct {
	*multi.UndirectedGraph
	graphAttrs, nodeAttrs, edgeAttrs dotAttributes
}

func (g dotGraph) DOTID() string { return "topology" }
func (g dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return g.graphAttrs, g.nodeAttrs, g.edgeAttrs
}

type dotNode struct {
	id   int64
	name DeviceKey
}

func (n dotNode) ID() int64      { return n.id }
func (n dotNode) DOTID() string { return string(n.name) }

type dotLine struct {
	from, to dotNode
	id       int64
	link     Link
}

func (l dotLine) From() graph.Node         { return l.from }
func (l dotLine) To() graph.Node           { return l.to }
func (l dotLine) ID() int64                { return l.id }
func (l dotLine) ReversedLine() graph.Line { return dotLine{from: l.to, to: l.from, id: l.id, link: l.link.Reverse()} }
func (l dotLine) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "taillabel", Value: l.link.SourceInterface},
		{Key: "headlabel", Value: l.link.TargetInterface},
	}
}
