package m

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
)

// Activation is the function a node applies to its pre-activation z.
type Activation interface {
	Value(z float64) float64
	Derivative(z float64) float64
	fmt.Stringer
}

var ActivationLookup = map[string]Activation{
	"sigmoid":  Sigmoid{},
	"tanh":     Tanh{},
	"identity": Identity{},
}

type Sigmoid struct{}

func (s Sigmoid) Value(z float64) float64 {
	return Logistic(z)
}

func (s Sigmoid) Derivative(z float64) float64 {
	a := Logistic(z)
	return a * (1 - a)
}

func (s Sigmoid) String() string {
	return "sigmoid"
}

type Tanh struct{}

func (t Tanh) Value(z float64) float64 {
	return math.Tanh(z)
}

func (t Tanh) Derivative(z float64) float64 {
	return 1.0 - (math.Tanh(z) * math.Tanh(z))
}

func (t Tanh) String() string {
	return "tanh"
}

type Identity struct{}

func (i Identity) Value(z float64) float64 {
	return z
}

func (i Identity) Derivative(float64) float64 {
	return 1
}

func (i Identity) String() string {
	return "identity"
}

// Numeric turns any scalar function into an Activation. The derivative is
// estimated with a central finite difference.
type Numeric struct {
	Name string
	Fn   func(float64) float64
}

func (n Numeric) Value(z float64) float64 {
	return n.Fn(z)
}

func (n Numeric) Derivative(z float64) float64 {
	return fd.Derivative(n.Fn, z, &fd.Settings{Formula: fd.Central})
}

func (n Numeric) String() string {
	if n.Name == "" {
		return "numeric"
	}
	return n.Name
}
