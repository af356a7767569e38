package nn

import "nodenet/m"

const (
	initializationMinimum = -1
	initializationMaximum = 1
)

// Neuron is a weighted-sum unit followed by an activation function. All
// updates are staged: gradients accumulate in pending buffers and only
// CommitUpdate writes the committed weights and bias.
type Neuron struct {
	weights []float64
	bias    float64

	pendingWeights []float64
	pendingBias    float64

	state            UpdateState
	trialRate        float64
	trialDatasetSize int

	// lambda is the L2 weight-decay coefficient; 0 disables it.
	lambda     float64
	activation m.Activation
}

// NewNeuron draws numberOfInputs weights and then the bias from init.
func NewNeuron(numberOfInputs int, init m.Initializer, activation m.Activation) *Neuron {
	n := &Neuron{
		weights:        make([]float64, numberOfInputs),
		pendingWeights: make([]float64, numberOfInputs),
		activation:     activation,
	}
	for i := range n.weights {
		n.weights[i] = init.Next(initializationMinimum, initializationMaximum)
	}
	n.bias = init.Next(initializationMinimum, initializationMaximum)
	return n
}

func NewSigmoidNeuron(numberOfInputs int, init m.Initializer) *Neuron {
	return NewNeuron(numberOfInputs, init, m.Sigmoid{})
}

func (n *Neuron) Activation() m.Activation { return n.activation }
func (n *Neuron) NumInputs() int { return len(n.weights) }
func (n *Neuron) State() UpdateState { return n.state }
func (n *Neuron) Lambda() float64 { return n.lambda }

func (n *Neuron) SetLambda(lambda float64) {
	n.lambda = lambda
}

// Weights returns a copy of the committed weights.
func (n *Neuron) Weights() []float64 {
	return append([]float64(nil), n.weights...)
}

func (n *Neuron) PreActivation(input []float64) (float64, error) {
	if len(input) != len(n.weights) {
		return 0, &DimensionMismatchError{Expected: len(n.weights), Given: len(input)}
	}
	if n.state != TrialConfigured {
		return m.Dot(n.weights, input) + n.bias, nil
	}
	var z float64
	for k, x := range input {
		z += n.W(k) * x
	}
	return z + n.B(), nil
}

func (n *Neuron) ComputeOutput(input []float64) (float64, error) {
	z, err := n.PreActivation(input)
	if err != nil {
		return 0, err
	}
	return n.activation.Value(z), nil
}

func (n *Neuron) ComputeDerivativeValue(input []float64) (float64, error) {
	z, err := n.PreActivation(input)
	if err != nil {
		return 0, err
	}
	return n.activation.Derivative(z), nil
}

func (n *Neuron) WeightFromInput(k int) float64 {
	return n.weights[k]
}

func (n *Neuron) CommittedBias() float64 { return n.bias }

func (n *Neuron) W(k int) float64 {
	if n.state != TrialConfigured {
		return n.weights[k]
	}
	return n.updatedWeight(k, n.trialRate, n.trialDatasetSize)
}

func (n *Neuron) B() float64 {
	if n.state != TrialConfigured {
		return n.bias
	}
	return n.bias - n.trialRate*n.pendingBias
}

// updatedWeight is the value weight k takes once the pending gradient is
// committed at the given rate, including L2 decay of the old value.
func (n *Neuron) updatedWeight(k int, learningRate float64, datasetSize int) float64 {
	old := n.weights[k]
	w := old - learningRate*n.pendingWeights[k]
	if n.lambda <= 0 || datasetSize <= 0 {
		return w
	}
	return w - ((learningRate*n.lambda)/float64(datasetSize))*old
}

func (n *Neuron) UpdateW(k int, gradient float64) {
	n.startAccumulating()
	n.pendingWeights[k] += gradient
}

func (n *Neuron) UpdateB(gradient float64) {
	n.startAccumulating()
	n.pendingBias += gradient
}

// startAccumulating moves a node with nothing pending into Prepared. Its
// accumulators are already zero in Idle and Committed.
func (n *Neuron) startAccumulating() {
	if n.state == Idle || n.state == Committed {
		n.state = Prepared
	}
}

func (n *Neuron) PrepareUpdate() {
	n.clearPending()
	n.state = Prepared
}

func (n *Neuron) ConfigureUpdate(learningRate float64, datasetSize int) {
	if n.state != Prepared && n.state != TrialConfigured {
		return
	}
	n.trialRate = learningRate
	n.trialDatasetSize = datasetSize
	n.state = TrialConfigured
}

func (n *Neuron) CommitUpdate(learningRate float64, datasetSize int) {
	if n.state != Prepared && n.state != TrialConfigured {
		return
	}
	for k := range n.weights {
		n.weights[k] = n.updatedWeight(k, learningRate, datasetSize)
	}
	n.bias -= learningRate * n.pendingBias
	n.clearPending()
	n.state = Committed
}

func (n *Neuron) ResetUpdate() {
	n.clearPending()
	n.state = Idle
}

func (n *Neuron) clearPending() {
	for k := range n.pendingWeights {
		n.pendingWeights[k] = 0
	}
	n.pendingBias = 0
	n.trialRate = 0
	n.trialDatasetSize = 0
}
