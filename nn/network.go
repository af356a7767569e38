package nn

import (
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"nodenet/m"
)

const (
	defaultLearningRate                = 0.1
	defaultLearningRateIterationAmount = 100
	defaultLearningRateIterationDecay  = 0.995
)

// Network is a fully connected feed-forward network. Layer 0 holds the input
// nodes; every following layer is registered once, bottom to top, through
// ConfigureLayer.
//
// A Network is not safe for concurrent use.
type Network struct {
	numberOfInputs int
	numberOfLayers int

	layers      [][]Node
	activations [][]float64
	errors      [][]float64

	learningRate                float64
	lossFunction                m.LossFunction
	learningRateIterationAmount int
	learningRateIterationDecay  float64
	intelligentLearningRate     bool

	// lambda is applied to layers configured after SetLambda.
	lambda    float64
	lambdaSet bool

	epochHook func(epoch int)
}

// New creates a network with numberOfInputs input nodes and room for
// numberOfLayers further layers (hidden layers plus the output layer).
func New(numberOfInputs, numberOfLayers int) *Network {
	total := numberOfLayers + 1
	n := &Network{
		numberOfInputs:              numberOfInputs,
		numberOfLayers:              total,
		layers:                      make([][]Node, 0, total),
		activations:                 make([][]float64, total),
		errors:                      make([][]float64, total),
		learningRate:                defaultLearningRate,
		lossFunction:                m.Placeholder{},
		learningRateIterationAmount: defaultLearningRateIterationAmount,
		learningRateIterationDecay:  defaultLearningRateIterationDecay,
	}

	inputLayer := make([]Node, numberOfInputs)
	for i := range inputLayer {
		inputLayer[i] = NewInputNode(0)
	}
	n.layers = append(n.layers, inputLayer)
	n.activations[0] = make([]float64, numberOfInputs)
	return n
}

// ConfigureLayer registers nodes as layer index. Layers must be registered in
// order and exactly once; the network is left unchanged on error.
func (n *Network) ConfigureLayer(index int, nodes []Node) error {
	switch {
	case index > len(n.layers):
		return &LayerConfigurationError{Layer: index, Reason: fmt.Sprintf("layer %d has not been configured yet", len(n.layers))}
	case index < len(n.layers):
		return &LayerConfigurationError{Layer: index, Reason: "layer already configured"}
	case index >= n.numberOfLayers:
		return &LayerConfigurationError{Layer: index, Reason: fmt.Sprintf("network has only %d layers", n.numberOfLayers)}
	case len(nodes) == 0:
		return &LayerConfigurationError{Layer: index, Reason: "no nodes given"}
	}
	previous := len(n.layers[index-1])
	for j, node := range nodes {
		if node == nil {
			return &LayerConfigurationError{Layer: index, Reason: fmt.Sprintf("node %d is nil", j)}
		}
		if node.NumInputs() != previous {
			return &LayerConfigurationError{
				Layer:  index,
				Reason: fmt.Sprintf("node %d accepts %d inputs, previous layer has %d nodes", j, node.NumInputs(), previous),
			}
		}
	}

	n.layers = append(n.layers, append([]Node(nil), nodes...))
	if n.lambdaSet {
		n.applyLambda(n.layers[index])
	}
	n.activations[index] = make([]float64, len(nodes))
	klog.V(1).Infof("configured layer %d with %d nodes", index, len(nodes))
	return nil
}

// Configured reports whether every layer has been registered.
func (n *Network) Configured() bool {
	return n.ConfiguredLayers() == n.numberOfLayers
}

func (n *Network) checkConfigured() error {
	if n.Configured() {
		return nil
	}
	return &LayerConfigurationError{Layer: len(n.layers), Reason: "layer not configured"}
}

// FeedForward runs input through every layer and returns the output layer
// activations. The returned slice is owned by the network and is overwritten
// by the next pass.
func (n *Network) FeedForward(input []float64) ([]float64, error) {
	if len(input) != n.numberOfInputs {
		return nil, &DimensionMismatchError{Expected: n.numberOfInputs, Given: len(input)}
	}
	return n.FeedForwardFrom(0, input)
}

// FeedForwardFrom resumes a forward pass using activations as the output of
// layer. FeedForwardFrom(0, x) is equivalent to FeedForward(x).
func (n *Network) FeedForwardFrom(layer int, activations []float64) ([]float64, error) {
	if err := n.checkConfigured(); err != nil {
		return nil, err
	}
	if layer < 0 || layer >= n.numberOfLayers {
		return nil, errors.Errorf("layer %d out of range [0, %d)", layer, n.numberOfLayers)
	}
	if len(activations) != len(n.layers[layer]) {
		return nil, &DimensionMismatchError{Expected: len(n.layers[layer]), Given: len(activations)}
	}

	copy(n.activations[layer], activations)
	for l := layer + 1; l < n.numberOfLayers; l++ {
		for j, node := range n.layers[l] {
			out, err := node.ComputeOutput(n.activations[l-1])
			if err != nil {
				return nil, errors.Wrapf(err, "layer %d, node %d", l, j)
			}
			n.activations[l][j] = out
		}
	}
	return n.activations[n.numberOfLayers-1], nil
}

// errorsAt returns the error buffer of layer l, reallocating it when the
// layer size does not match.
func (n *Network) errorsAt(l int) []float64 {
	if len(n.errors[l]) != len(n.layers[l]) {
		n.errors[l] = make([]float64, len(n.layers[l]))
	}
	return n.errors[l]
}

func (n *Network) NumberOfInputs() int { return n.numberOfInputs }

// NumberOfLayers counts every layer, the input layer included.
func (n *Network) NumberOfLayers() int { return n.numberOfLayers }

func (n *Network) SetLearningRate(learningRate float64) {
	n.learningRate = learningRate
}

func (n *Network) LearningRate() float64 { return n.learningRate }

// SetLossFunction selects the loss used for the output layer error. A nil
// loss restores the placeholder default.
func (n *Network) SetLossFunction(lf m.LossFunction) {
	if lf == nil {
		lf = m.Placeholder{}
	}
	n.lossFunction = lf
}

func (n *Network) LossFunction() m.LossFunction { return n.lossFunction }

// SetLearningRateMultiplier makes TrainBatch multiply the learning rate by
// factor after every `every` epochs. A non-positive every disables decay.
func (n *Network) SetLearningRateMultiplier(every int, factor float64) {
	n.learningRateIterationAmount = every
	n.learningRateIterationDecay = factor
}

func (n *Network) LearningRateIterationAmount() int { return n.learningRateIterationAmount }
func (n *Network) LearningRateIterationDecay() float64 { return n.learningRateIterationDecay }
func (n *Network) SetIntelligentLearningRate(enabled bool) { n.intelligentLearningRate = enabled }
func (n *Network) IntelligentLearningRate() bool { return n.intelligentLearningRate }

// SetEpochHook registers fn to be called by TrainBatch after every completed
// epoch. A nil fn removes the hook.
func (n *Network) SetEpochHook(fn func(epoch int)) {
	n.epochHook = fn
}

// SetLambda sets the L2 coefficient on every node that supports it, including
// the nodes of layers configured afterwards.
func (n *Network) SetLambda(lambda float64) {
	n.lambda, n.lambdaSet = lambda, true
	for _, layer := range n.layers {
		n.applyLambda(layer)
	}
}

func (n *Network) applyLambda(layer []Node) {
	for _, node := range layer {
		if r, ok := node.(Regularized); ok {
			r.SetLambda(n.lambda)
		}
	}
}

func (n *Network) eachNode(fn func(Node)) {
	for _, layer := range n.layers {
		for _, node := range layer {
			fn(node)
		}
	}
}
