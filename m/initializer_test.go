package m

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstant(t *testing.T) {
	c := Constant(1)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, c.Next(-1, 1))
	}
}

func TestCyclic(t *testing.T) {
	c := Cyclic(0.6, 0.9, 0)
	var got []float64
	for i := 0; i < 7; i++ {
		got = append(got, c.Next(-1, 1))
	}
	assert.Equal(t, []float64{0.6, 0.9, 0, 0.6, 0.9, 0, 0.6}, got)
	assert.Equal(t, 0.0, Cyclic().Next(-1, 1))
}

func TestGaussianIsSeeded(t *testing.T) {
	a, b := Gaussian(0, 1, 42), Gaussian(0, 1, 42)
	var sum float64
	const n = 2000
	for i := 0; i < n; i++ {
		va, vb := a.Next(-1, 1), b.Next(-1, 1)
		require.Equal(t, va, vb)
		sum += va
	}
	assert.InDelta(t, 0, sum/n, 0.1)
}

func TestUniformBounds(t *testing.T) {
	u := Uniform(7)
	for i := 0; i < 1000; i++ {
		v := u.Next(-1, 1)
		require.GreaterOrEqual(t, v, -1.0)
		require.Less(t, v, 1.0)
	}
}

func TestInitializerFor(t *testing.T) {
	for _, name := range []string{"gaussian", "uniform", "zero"} {
		init, ok := InitializerFor(name, 1)
		assert.True(t, ok, name)
		assert.NotNil(t, init, name)
	}
	_, ok := InitializerFor("glorot", 1)
	assert.False(t, ok)
}
