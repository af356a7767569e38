package nn

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodenet/m"
)

// The output error uses f'(z) at the true pre-activation, so the gentler
// losses need more steps than cross-entropy to pull one neuron from
// sigmoid(1.5) down to 0.05.
func TestTrainSingleNeuronConverges(t *testing.T) {
	for _, tc := range []struct {
		loss  m.LossFunction
		steps int
	}{
		{m.CrossEntropy{}, 300},
		{m.MSE{}, 500},
		{m.Placeholder{}, 1000},
	} {
		t.Run(tc.loss.String(), func(t *testing.T) {
			net := New(1, 1)
			require.NoError(t, net.ConfigureLayer(1, sigmoidLayer(1, m.Cyclic(0.6, 0.9))))
			net.SetLearningRate(0.15)
			net.SetLossFunction(tc.loss)

			for i := 0; i < tc.steps; i++ {
				require.NoError(t, net.Train([]float64{1}, []float64{0}))
			}
			out, err := net.FeedForward([]float64{1})
			require.NoError(t, err)
			assert.InDelta(t, 0, out[0], 0.05)
		})
	}
}

func TestTrainSingleNeuronDefaultLossAfter300Steps(t *testing.T) {
	net := New(1, 1)
	require.NoError(t, net.ConfigureLayer(1, sigmoidLayer(1, m.Cyclic(0.6, 0.9))))
	net.SetLearningRate(0.15)

	for i := 0; i < 300; i++ {
		require.NoError(t, net.Train([]float64{1}, []float64{0}))
	}
	out, err := net.FeedForward([]float64{1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0940, out[0], 1e-3)
}

func TestTrainOneLayer(t *testing.T) {
	for _, lf := range []m.LossFunction{m.MSE{}, m.CrossEntropy{}} {
		t.Run(lf.String(), func(t *testing.T) {
			net := New(2, 1)
			require.NoError(t, net.ConfigureLayer(1, sigmoidLayer(2, m.Cyclic(1, -2, -1), m.Cyclic(1, 1, 0))))
			net.SetLearningRate(1)
			net.SetLossFunction(lf)

			for i := 0; i < 30; i++ {
				require.NoError(t, net.Train([]float64{1, 1}, []float64{1, 0}))
			}
			out, err := net.FeedForward([]float64{1, 1})
			require.NoError(t, err)
			assert.InDeltaSlice(t, []float64{1, 0}, out, 0.07)
		})
	}
}

func TestTrainTwoLayers(t *testing.T) {
	net := newNetwork2x2x1(t)
	net.SetLearningRate(1)
	net.SetLossFunction(m.CrossEntropy{})

	for i := 0; i < 50; i++ {
		require.NoError(t, net.Train([]float64{1, 1}, []float64{1}))
	}
	out, err := net.FeedForward([]float64{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1, out[0], 0.02)
}

func TestTrainLabelMismatch(t *testing.T) {
	net := newNetwork2x2x1(t)
	err := net.Train([]float64{1, 1}, []float64{1, 0})
	var dim *DimensionMismatchError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 1, dim.Expected)
	assert.Equal(t, 2, dim.Given)
}

func TestTrainBatchConverges(t *testing.T) {
	net := newNetwork2x2x1(t)
	net.SetLearningRate(1)
	net.SetLearningRateMultiplier(100, 0.995)
	instances := [][]float64{{1, 0}, {1, 1}, {2, 1}}
	labels := [][]float64{{1}, {0}, {1}}

	epochs, err := net.TrainBatch(instances, labels, 5000)
	require.NoError(t, err)
	assert.Equal(t, 5000, epochs)
	assert.InDelta(t, math.Pow(0.995, 50), net.LearningRate(), 1e-9)

	for i, instance := range instances {
		out, err := net.FeedForward(instance)
		require.NoError(t, err)
		assert.InDelta(t, labels[i][0], out[0], 0.05, "instance %v", instance)
	}
}

func newIntelligentNetwork(t *testing.T) *Network {
	t.Helper()
	net := New(2, 2)
	require.NoError(t, net.ConfigureLayer(1, sigmoidLayer(2, m.Cyclic(1, -1, 0), m.Cyclic(0, -1, 0))))
	require.NoError(t, net.ConfigureLayer(2, sigmoidLayer(2, m.Cyclic(2, -2, 0), m.Cyclic(-1, 1, 0))))
	net.SetLearningRate(0.75)
	net.SetIntelligentLearningRate(true)
	return net
}

var (
	intelligentInstances = [][]float64{{1, 0}, {0, 1}, {-1, -1}}
	intelligentLabels    = [][]float64{{1, 0}, {1, 0}, {0, 0}}
)

func TestTrainBatchIntelligentLearningRate(t *testing.T) {
	net := newIntelligentNetwork(t)
	before, err := net.ComputeError(intelligentInstances, intelligentLabels)
	require.NoError(t, err)

	epochs, err := net.TrainBatch(intelligentInstances, intelligentLabels, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, epochs)

	after, err := net.ComputeError(intelligentInstances, intelligentLabels)
	require.NoError(t, err)
	assert.Less(t, after, before)

	for i, instance := range intelligentInstances {
		out, err := net.FeedForward(instance)
		require.NoError(t, err)
		got := append([]float64(nil), out...)
		m.Discretize(got)
		assert.Equal(t, intelligentLabels[i], got, "instance %v", instance)
	}
}

func TestIntelligentLearningRateNeverIncreasesError(t *testing.T) {
	net := newIntelligentNetwork(t)
	previous, err := net.ComputeError(intelligentInstances, intelligentLabels)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		err := net.TrainIterationBatch(intelligentInstances, intelligentLabels)
		var stop *IterationError
		if errors.As(err, &stop) {
			break
		}
		require.NoError(t, err)
		current, err := net.ComputeError(intelligentInstances, intelligentLabels)
		require.NoError(t, err)
		assert.LessOrEqual(t, current, previous, "iteration %d", i)
		previous = current
	}
}

func TestIntelligentLearningRateFailureLeavesParameters(t *testing.T) {
	net := newIntelligentNetwork(t)
	net.SetLearningRate(0)
	w1, b1 := net.WeightMatrix(1), net.Biases(1)
	w2, b2 := net.WeightMatrix(2), net.Biases(2)

	err := net.TrainIterationBatch(intelligentInstances, intelligentLabels)
	var stop *IterationError
	require.True(t, errors.As(err, &stop), "expected IterationError, got %v", err)

	assert.Equal(t, w1.RawMatrix().Data, net.WeightMatrix(1).RawMatrix().Data)
	assert.Equal(t, b1, net.Biases(1))
	assert.Equal(t, w2.RawMatrix().Data, net.WeightMatrix(2).RawMatrix().Data)
	assert.Equal(t, b2, net.Biases(2))
	for l := 1; l < net.NumberOfLayers(); l++ {
		for j := 0; j < net.LayerSize(l); j++ {
			assert.Equal(t, Idle, net.Node(l, j).State())
		}
	}

	epochs, err := net.TrainBatch(intelligentInstances, intelligentLabels, 10)
	require.NoError(t, err, "TrainBatch treats IterationError as a stop condition")
	assert.Zero(t, epochs)
}

func TestRegularizationShrinksWeights(t *testing.T) {
	train := func(lambda float64) float64 {
		net := New(1, 1)
		require.NoError(t, net.ConfigureLayer(1, sigmoidLayer(1, m.Cyclic(0.6, 0.9))))
		net.SetLearningRate(0.5)
		net.SetLambda(lambda)
		_, err := net.TrainBatch([][]float64{{1}, {2}}, [][]float64{{1}, {1}}, 500)
		require.NoError(t, err)
		return net.Weight(1, 0, 0)
	}

	plain := train(0)
	regularized := train(0.1)
	assert.Less(t, math.Abs(regularized), math.Abs(plain))
}

func TestTrainIterationBatchRejectsBadBatches(t *testing.T) {
	net := newNetwork2x2x1(t)
	assert.Error(t, net.TrainIterationBatch(nil, nil))
	assert.Error(t, net.TrainIterationBatch([][]float64{{1, 0}}, [][]float64{{1}, {0}}))

	err := net.TrainIterationBatch([][]float64{{1, 0, 1}}, [][]float64{{1}})
	var dim *DimensionMismatchError
	assert.True(t, errors.As(err, &dim))
}

func TestComputeLoss(t *testing.T) {
	net := New(1, 1)
	require.NoError(t, net.ConfigureLayer(1, sigmoidLayer(1, m.Cyclic(0, 0))))
	net.SetLossFunction(m.MSE{})

	loss, err := net.ComputeLoss([][]float64{{1}, {5}}, [][]float64{{1}, {0}})
	require.NoError(t, err)
	assert.InDelta(t, 0.25+0.25, loss, 1e-12)

	sq, err := net.ComputeError([][]float64{{1}, {5}}, [][]float64{{1}, {0}})
	require.NoError(t, err)
	assert.InDelta(t, loss, sq, 1e-12)
}

func TestTrainBatchEpochHookAndDecay(t *testing.T) {
	net := newNetwork2x2x1(t)
	net.SetLearningRate(2)
	net.SetLearningRateMultiplier(3, 0.5)
	var seen []int
	net.SetEpochHook(func(epoch int) { seen = append(seen, epoch) })

	epochs, err := net.TrainBatch([][]float64{{1, 0}}, [][]float64{{1}}, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, epochs)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, seen)
	assert.InDelta(t, 0.5, net.LearningRate(), 1e-12)
}
