package nn

import "gonum.org/v1/gonum/mat"

// The accessors below are read-only views for reporting and rendering. Layer
// and node indices must refer to configured layers; out of range indices panic
// like slice indexing does.

// ConfiguredLayers counts the layers registered so far, the input layer included.
func (n *Network) ConfiguredLayers() int { return len(n.layers) }

func (n *Network) LayerSize(l int) int { return len(n.layers[l]) }

// Node returns node j of layer l.
func (n *Network) Node(l, j int) Node { return n.layers[l][j] }

// Bias is the committed bias of node j in layer l. Input nodes report 0.
func (n *Network) Bias(l, j int) float64 { return n.layers[l][j].CommittedBias() }

// Weight is the committed weight of the edge from node k of layer l-1 to
// node j of layer l.
func (n *Network) Weight(l, j, k int) float64 {
	return n.layers[l][j].WeightFromInput(k)
}

// Activations returns a copy of the activations of layer l from the last
// forward pass.
func (n *Network) Activations(l int) []float64 {
	return append([]float64(nil), n.activations[l]...)
}

// Errors returns a copy of the error terms of layer l from the last backward
// pass. It is nil for layers that have not been through one.
func (n *Network) Errors(l int) []float64 {
	if n.errors[l] == nil {
		return nil
	}
	return append([]float64(nil), n.errors[l]...)
}

// WeightMatrix returns the committed weights of layer l as a matrix with one
// row per node of l and one column per node of l-1. l must be at least 1.
func (n *Network) WeightMatrix(l int) *mat.Dense {
	rows, cols := len(n.layers[l]), len(n.layers[l-1])
	w := mat.NewDense(rows, cols, nil)
	for j, node := range n.layers[l] {
		for k := 0; k < cols; k++ {
			w.Set(j, k, node.WeightFromInput(k))
		}
	}
	return w
}

// Biases returns the committed biases of layer l, matching WeightMatrix.
func (n *Network) Biases(l int) []float64 {
	biases := make([]float64, len(n.layers[l]))
	for j, node := range n.layers[l] {
		biases[j] = node.CommittedBias()
	}
	return biases
}
