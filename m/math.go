package m

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Dot returns the dot product of a and b. Both must have the same length.
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// Logistic is the sigmoid function 1/(1+e^-z).
func Logistic(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Discretize rounds sigmoid outputs in place to the nearest binary label.
func Discretize(values []float64) {
	for i, v := range values {
		if v >= 0.5 {
			values[i] = 1
		} else {
			values[i] = 0
		}
	}
}
