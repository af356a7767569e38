package m

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("1,0,1\n1,1,0\n2,1,1\n"), 2, 1, false)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, []float64{1, 1}, lines[1].Inputs)
	assert.Equal(t, []float64{0}, lines[1].Targets)

	instances, labels := lines.Split()
	assert.Equal(t, [][]float64{{1, 0}, {1, 1}, {2, 1}}, instances)
	assert.Equal(t, [][]float64{{1}, {0}, {1}}, labels)
}

func TestReadLinesHeader(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("x,y,label\n0.5,-1,1\n"), 2, 1, true)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, []float64{0.5, -1}, lines[0].Inputs)
}

func TestReadLinesErrors(t *testing.T) {
	_, err := ReadLines(strings.NewReader("1,0\n1,1\n"), 2, 1, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 3 values, got 2")

	_, err = ReadLines(strings.NewReader("1,abc,0\n"), 2, 1, false)
	require.Error(t, err)
}

func TestNormalizeLines(t *testing.T) {
	lines := Lines{
		{Inputs: []float64{1, 5}, Targets: []float64{1}},
		{Inputs: []float64{3, 5}, Targets: []float64{0}},
	}
	mean, std := CalculateMeanStdDev(lines)
	assert.InDeltaSlice(t, []float64{2, 5}, mean, 1e-12)
	assert.InDelta(t, 1.4142135, std[0], 1e-6)
	assert.Equal(t, 0.0, std[1])

	normalized := NormalizeLines(lines, std, mean)
	assert.InDelta(t, -0.7071067, normalized[0].Inputs[0], 1e-6)
	assert.InDelta(t, 0.7071067, normalized[1].Inputs[0], 1e-6)
	// A constant column is only centered.
	assert.Equal(t, 0.0, normalized[0].Inputs[1])
	assert.Equal(t, []float64{0}, normalized[1].Targets)

	mean, std = CalculateMeanStdDev(nil)
	assert.Nil(t, mean)
	assert.Nil(t, std)
}
