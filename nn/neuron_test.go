package nn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodenet/m"
)

func TestNeuronZeroWeightsOutputsSigmoidOfBias(t *testing.T) {
	n := NewSigmoidNeuron(3, m.Cyclic(0, 0, 0, 0.7))
	for _, input := range [][]float64{{0, 0, 0}, {1, 2, 3}, {-5, 0.5, 100}} {
		out, err := n.ComputeOutput(input)
		require.NoError(t, err)
		assert.InDelta(t, m.Logistic(0.7), out, 1e-12, "input %v", input)
	}
}

func TestNeuronDimensionMismatch(t *testing.T) {
	n := NewSigmoidNeuron(2, m.Constant(0.5))

	_, err := n.ComputeOutput([]float64{1, 2, 3})
	var dim *DimensionMismatchError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 2, dim.Expected)
	assert.Equal(t, 3, dim.Given)
	assert.Equal(t, "given dimensionality (3) does not match the expected one (2)", err.Error())

	_, err = n.ComputeDerivativeValue([]float64{1})
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 1, dim.Given)
}

func TestNeuronDerivativeIsSigmoidPrime(t *testing.T) {
	n := NewSigmoidNeuron(2, m.Cyclic(0.4, -0.2, 0.1))
	input := []float64{1.5, 2}
	z := 0.4*1.5 - 0.2*2 + 0.1

	d, err := n.ComputeDerivativeValue(input)
	require.NoError(t, err)
	s := m.Logistic(z)
	assert.InDelta(t, s*(1-s), d, 1e-12)
}

func TestNeuronResetThenCommitIsNoOp(t *testing.T) {
	n := NewSigmoidNeuron(2, m.Cyclic(0.3, -0.4, 0.2))
	n.SetLambda(0.5)
	weights, bias := n.Weights(), n.B()

	n.PrepareUpdate()
	n.UpdateW(0, 0.8)
	n.UpdateW(1, -0.3)
	n.UpdateB(1.1)
	n.ResetUpdate()
	assert.Equal(t, Idle, n.State())

	n.CommitUpdate(0.7, 4)
	assert.Equal(t, weights, n.Weights())
	assert.Equal(t, bias, n.B())
	assert.Equal(t, Idle, n.State())
}

func TestNeuronTrialOverlayMatchesCommit(t *testing.T) {
	n := NewSigmoidNeuron(2, m.Cyclic(0.5, -0.3, 0.1))
	n.SetLambda(0.2)
	input := []float64{1, 2}

	n.PrepareUpdate()
	n.UpdateW(0, 0.4)
	n.UpdateW(1, -0.2)
	n.UpdateB(0.6)
	n.ConfigureUpdate(0.25, 2)
	require.Equal(t, TrialConfigured, n.State())

	// 0.5 - 0.25*0.4 - (0.25*0.2/2)*0.5
	assert.InDelta(t, 0.3875, n.W(0), 1e-12)
	assert.InDelta(t, 0.5, n.WeightFromInput(0), 1e-12, "committed weight must not move during a trial")
	assert.InDelta(t, 0.1-0.25*0.6, n.B(), 1e-12)

	overlay := []float64{n.W(0), n.W(1)}
	overlayBias := n.B()
	overlayOut, err := n.ComputeOutput(input)
	require.NoError(t, err)

	n.CommitUpdate(0.25, 2)
	assert.Equal(t, Committed, n.State())
	assert.InDeltaSlice(t, overlay, n.Weights(), 1e-15)
	assert.InDelta(t, overlayBias, n.B(), 1e-15)
	out, err := n.ComputeOutput(input)
	require.NoError(t, err)
	assert.InDelta(t, overlayOut, out, 1e-15)
}

func TestNeuronUpdateStates(t *testing.T) {
	tests := []struct {
		name  string
		steps func(n *Neuron)
		want  UpdateState
	}{
		{"new", func(*Neuron) {}, Idle},
		{"prepare", func(n *Neuron) { n.PrepareUpdate() }, Prepared},
		{"accumulate from idle", func(n *Neuron) { n.UpdateB(1) }, Prepared},
		{"configure from idle", func(n *Neuron) { n.ConfigureUpdate(1, 1) }, Idle},
		{"configure", func(n *Neuron) { n.PrepareUpdate(); n.ConfigureUpdate(1, 1) }, TrialConfigured},
		{"commit", func(n *Neuron) { n.PrepareUpdate(); n.CommitUpdate(1, 1) }, Committed},
		{"commit trial", func(n *Neuron) { n.PrepareUpdate(); n.ConfigureUpdate(1, 1); n.CommitUpdate(1, 1) }, Committed},
		{"reset trial", func(n *Neuron) { n.PrepareUpdate(); n.ConfigureUpdate(1, 1); n.ResetUpdate() }, Idle},
		{"accumulate after commit", func(n *Neuron) { n.PrepareUpdate(); n.CommitUpdate(1, 1); n.UpdateW(0, 1) }, Prepared},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewSigmoidNeuron(1, m.Constant(0.1))
			tt.steps(n)
			assert.Equal(t, tt.want, n.State())
		})
	}
}

func TestNeuronCommitAppliesPendingOnce(t *testing.T) {
	n := NewSigmoidNeuron(1, m.Cyclic(1, 0))
	n.PrepareUpdate()
	n.UpdateW(0, 2)
	n.UpdateB(-1)
	n.CommitUpdate(0.5, 1)
	assert.Equal(t, []float64{0}, n.Weights())
	assert.InDelta(t, 0.5, n.B(), 1e-12)

	n.CommitUpdate(0.5, 1)
	assert.Equal(t, []float64{0}, n.Weights())
	assert.InDelta(t, 0.5, n.B(), 1e-12)
}

func TestInputNode(t *testing.T) {
	in := NewInputNode(0.25)
	out, err := in.ComputeOutput(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.25, out)
	assert.Equal(t, 1.0, in.WeightFromInput(3))
	d, err := in.ComputeDerivativeValue(nil)
	require.NoError(t, err)
	assert.Zero(t, d)

	in.PrepareUpdate()
	in.UpdateB(4)
	in.CommitUpdate(1, 1)
	assert.Equal(t, Idle, in.State())
	out, _ = in.ComputeOutput(nil)
	assert.Equal(t, 0.25, out)
}
