package nn

import "nodenet/m"

// UpdateState tracks where a node is in the staged update protocol:
//
//	Idle -> Prepared -> (TrialConfigured) -> Committed -> Prepared ...
//
// ResetUpdate returns to Idle from any state.
type UpdateState int

const (
	Idle UpdateState = iota
	Prepared
	TrialConfigured
	Committed
)

func (s UpdateState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Prepared:
		return "prepared"
	case TrialConfigured:
		return "trial-configured"
	case Committed:
		return "committed"
	}
	return "unknown"
}

// Node is one unit of a layer. It consumes the activation vector of the
// previous layer and produces a single scalar.
type Node interface {
	// ComputeOutput returns f(z) for the given input.
	ComputeOutput(input []float64) (float64, error)
	// PreActivation returns z = w·input + b.
	PreActivation(input []float64) (float64, error)
	// ComputeDerivativeValue returns f'(z) for the given input.
	ComputeDerivativeValue(input []float64) (float64, error)
	Activation() m.Activation
	// NumInputs is the length of the input vector the node accepts.
	NumInputs() int

	// WeightFromInput is the committed weight from source unit k and
	// CommittedBias the committed bias; neither includes a trial overlay.
	WeightFromInput(k int) float64
	CommittedBias() float64
	// W and B are the effective parameters: while a trial is configured
	// they include the pending update, otherwise they are the committed ones.
	W(k int) float64
	B() float64

	// UpdateW and UpdateB accumulate gradients; they never touch the
	// committed parameters.
	UpdateW(k int, gradient float64)
	UpdateB(gradient float64)

	PrepareUpdate()
	ConfigureUpdate(learningRate float64, datasetSize int)
	CommitUpdate(learningRate float64, datasetSize int)
	ResetUpdate()
	State() UpdateState
}

// Regularized is implemented by nodes that support L2 weight decay.
type Regularized interface {
	SetLambda(lambda float64)
	Lambda() float64
}
