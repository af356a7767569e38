package m

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Initializer supplies initial parameter values. Neurons draw every weight
// first and then the bias, each within [min, max].
type Initializer interface {
	Next(min, max float64) float64
}

type constant float64

// Constant always returns v.
func Constant(v float64) Initializer {
	c := constant(v)
	return &c
}

func (c *constant) Next(_, _ float64) float64 {
	return float64(*c)
}

type cyclic struct {
	values []float64
	idx    int
}

// Cyclic returns values in order, wrapping around after the last one.
func Cyclic(values ...float64) Initializer {
	return &cyclic{values: append([]float64(nil), values...)}
}

func (c *cyclic) Next(_, _ float64) float64 {
	if len(c.values) == 0 {
		return 0
	}
	v := c.values[c.idx]
	c.idx = (c.idx + 1) % len(c.values)
	return v
}

type gaussian struct {
	dist distuv.Normal
}

// Gaussian draws from N(mean, stddev) and ignores the bounds.
func Gaussian(mean, stddev float64, seed uint64) Initializer {
	return &gaussian{dist: distuv.Normal{
		Mu:    mean,
		Sigma: stddev,
		Src:   rand.NewSource(seed),
	}}
}

func (g *gaussian) Next(_, _ float64) float64 {
	return g.dist.Rand()
}

type uniform struct {
	src rand.Source
}

// Uniform draws uniformly from [min, max).
func Uniform(seed uint64) Initializer {
	return &uniform{src: rand.NewSource(seed)}
}

func (u *uniform) Next(min, max float64) float64 {
	return distuv.Uniform{Min: min, Max: max, Src: u.src}.Rand()
}

// InitializerFor maps a command-line name to an initializer.
func InitializerFor(name string, seed uint64) (Initializer, bool) {
	switch name {
	case "gaussian":
		return Gaussian(0, 1, seed), true
	case "uniform":
		return Uniform(seed), true
	case "zero":
		return Constant(0), true
	}
	return nil, false
}
