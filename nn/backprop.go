package nn

import "github.com/pkg/errors"

// computeErrorsOfLastLayer sets error[L-1][j] = dL/da * f'(z) for every output
// node, using the activations of the last forward pass.
func (n *Network) computeErrorsOfLastLayer(labels []float64) error {
	last := n.numberOfLayers - 1
	output := n.layers[last]
	if len(labels) != len(output) {
		return &DimensionMismatchError{Expected: len(output), Given: len(labels)}
	}

	errs := n.errorsAt(last)
	previous := n.activations[last-1]
	for j, node := range output {
		z, err := node.PreActivation(previous)
		if err != nil {
			return errors.Wrapf(err, "output node %d", j)
		}
		f := node.Activation()
		a := f.Value(z)
		errs[j] = n.lossFunction.Derivative(a, labels[j]) * f.Derivative(z)
	}
	return nil
}

// backpropagateError walks from L-2 down to layer 1 applying the generalized
// delta rule.
func (n *Network) backpropagateError() error {
	for l := n.numberOfLayers - 2; l > 0; l-- {
		errs := n.errorsAt(l)
		next := n.layers[l+1]
		nextErrs := n.errors[l+1]
		for j, node := range n.layers[l] {
			fPrime, err := node.ComputeDerivativeValue(n.activations[l-1])
			if err != nil {
				return errors.Wrapf(err, "layer %d, node %d", l, j)
			}
			var contribution float64
			for k, nextNode := range next {
				contribution += nextNode.W(j) * nextErrs[k]
			}
			errs[j] = fPrime * contribution
		}
	}
	return nil
}

// updateWeights accumulates the gradients of the current instance into the
// pending buffers of every non-input node.
func (n *Network) updateWeights() {
	for l := n.numberOfLayers - 1; l > 0; l-- {
		previous := n.activations[l-1]
		for j, node := range n.layers[l] {
			e := n.errors[l][j]
			node.UpdateB(e)
			for k, a := range previous {
				node.UpdateW(k, a*e)
			}
		}
	}
}

// backpropagate runs the three backward stages for the instance whose forward
// pass has just completed.
func (n *Network) backpropagate(labels []float64) error {
	if err := n.computeErrorsOfLastLayer(labels); err != nil {
		return err
	}
	if err := n.backpropagateError(); err != nil {
		return err
	}
	n.updateWeights()
	return nil
}
