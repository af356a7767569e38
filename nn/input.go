package nn

import "nodenet/m"

// InputNode is the pass-through unit of layer 0. The network copies input
// vectors straight into the layer 0 activations, so the stored value is only
// reported through the read-only accessors.
type InputNode struct {
	value float64
}

func NewInputNode(value float64) *InputNode {
	return &InputNode{value: value}
}

// passThrough is the activation of an input node: its output never depends
// on trainable parameters.
type passThrough struct{}

func (passThrough) Value(z float64) float64 { return z }
func (passThrough) Derivative(float64) float64 { return 0 }
func (passThrough) String() string { return "input" }

func (n *InputNode) ComputeOutput([]float64) (float64, error) { return n.value, nil }
func (n *InputNode) PreActivation([]float64) (float64, error) { return n.value, nil }
func (n *InputNode) ComputeDerivativeValue([]float64) (float64, error) { return 0, nil }
func (n *InputNode) Activation() m.Activation { return passThrough{} }
func (n *InputNode) NumInputs() int { return 0 }

func (n *InputNode) WeightFromInput(int) float64 { return 1 }
func (n *InputNode) CommittedBias() float64 { return 0 }
func (n *InputNode) W(int) float64 { return 0 }
func (n *InputNode) B() float64 { return 0 }

func (n *InputNode) UpdateW(int, float64) {}
func (n *InputNode) UpdateB(float64) {}
func (n *InputNode) PrepareUpdate() {}
func (n *InputNode) ConfigureUpdate(float64, int) {}
func (n *InputNode) CommitUpdate(float64, int) {}
func (n *InputNode) ResetUpdate() {}
func (n *InputNode) State() UpdateState { return Idle }
