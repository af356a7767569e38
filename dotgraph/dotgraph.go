// Package dotgraph renders a network snapshot as a Graphviz digraph: one
// vertex per node labelled with its bias and last output, one edge per weight.
package dotgraph

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"nodenet/nn"
)

type vertex struct {
	id     int64
	layer  int
	index  int
	bias   float64
	output float64
}

func (v vertex) ID() int64 { return v.id }

func (v vertex) DOTID() string { return fmt.Sprintf("nl%dn%d", v.layer, v.index) }

func (v vertex) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{
		Key:   "label",
		Value: fmt.Sprintf("bias=%.4g, output=%.4g", v.bias, v.output),
	}}
}

type edge struct {
	from, to vertex
	weight   float64
}

func (e edge) From() graph.Node         { return e.from }
func (e edge) To() graph.Node           { return e.to }
func (e edge) ReversedEdge() graph.Edge { return edge{from: e.to, to: e.from, weight: e.weight} }

func (e edge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: fmt.Sprintf("%.2f", e.weight)}}
}

type attributes []encoding.Attribute

func (a attributes) Attributes() []encoding.Attribute { return a }

// network adds the graph level layout attributes to the plain digraph.
type network struct {
	*simple.DirectedGraph
}

func (network) DOTAttributers() (g, n, e encoding.Attributer) {
	return attributes{{Key: "splines", Value: "true"}, {Key: "overlap", Value: "false"}},
		attributes{},
		attributes{}
}

// Build converts the current parameters and activations of net into a graph.
// Activations come from the most recent forward pass.
func Build(net *nn.Network) graph.Directed {
	g := network{simple.NewDirectedGraph()}
	var (
		previous []vertex
		id       int64
	)
	for l := 0; l < net.ConfiguredLayers(); l++ {
		outputs := net.Activations(l)
		current := make([]vertex, net.LayerSize(l))
		for j := range current {
			current[j] = vertex{id: id, layer: l, index: j, bias: net.Bias(l, j), output: outputs[j]}
			id++
			g.AddNode(current[j])
			for k, src := range previous {
				g.SetEdge(edge{from: src, to: current[j], weight: net.Weight(l, j, k)})
			}
		}
		previous = current
	}
	return g
}

// Write renders net in DOT format to w.
func Write(w io.Writer, net *nn.Network) error {
	b, err := dot.Marshal(Build(net), "ANN", "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshalling network graph")
	}
	if _, err := w.Write(b); err != nil {
		return errors.Wrap(err, "writing network graph")
	}
	return nil
}
