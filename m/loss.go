package m

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// LossFunction scores one predicted output against its target.
//
// Derivative returns dL/dp with the sign of (predicted - target): gradient
// descent subtracts it from the parameters.
type LossFunction interface {
	Value(predicted, target float64) float64
	Derivative(predicted, target float64) float64
	fmt.Stringer
}

var LossLookup = map[string]LossFunction{
	"placeholder":   Placeholder{},
	"mse":           MSE{},
	"cross-entropy": CrossEntropy{},
}

// Placeholder is the default loss: its derivative is the raw difference
// predicted - target, i.e. half the squared error.
type Placeholder struct{}

func (Placeholder) Value(predicted, target float64) float64 {
	diff := predicted - target
	return 0.5 * diff * diff
}

func (Placeholder) Derivative(predicted, target float64) float64 {
	return predicted - target
}

func (Placeholder) String() string {
	return "placeholder"
}

type MSE struct{}

func (MSE) Value(predicted, target float64) float64 {
	diff := predicted - target
	return diff * diff
}

func (MSE) Derivative(predicted, target float64) float64 {
	return 2 * (predicted - target)
}

func (MSE) String() string {
	return "mse"
}

// crossEntropyEpsilon keeps log and the derivative finite for saturated outputs.
const crossEntropyEpsilon = 1e-12

// CrossEntropy is the binary cross-entropy for outputs in (0, 1).
type CrossEntropy struct{}

func clampProbability(p float64) float64 {
	return math.Min(math.Max(p, crossEntropyEpsilon), 1-crossEntropyEpsilon)
}

func (CrossEntropy) Value(predicted, target float64) float64 {
	p := clampProbability(predicted)
	return -(target*math.Log(p) + (1-target)*math.Log(1-p))
}

func (CrossEntropy) Derivative(predicted, target float64) float64 {
	p := clampProbability(predicted)
	return (p - target) / (p * (1 - p))
}

func (CrossEntropy) String() string {
	return "cross-entropy"
}

// InstanceLoss returns the per-output loss vector of one instance.
func InstanceLoss(lf LossFunction, predicted, target []float64) ([]float64, error) {
	if len(predicted) != len(target) {
		return nil, errors.Errorf("loss %s: %d predictions for %d targets", lf, len(predicted), len(target))
	}
	losses := make([]float64, len(predicted))
	for i := range predicted {
		losses[i] = lf.Value(predicted[i], target[i])
	}
	return losses, nil
}

// DatasetLoss sums the loss over every output of every instance.
func DatasetLoss(lf LossFunction, predictions, targets [][]float64) (float64, error) {
	if len(predictions) != len(targets) {
		return 0, errors.Errorf("loss %s: %d prediction rows for %d target rows", lf, len(predictions), len(targets))
	}
	var sum float64
	for i := range predictions {
		losses, err := InstanceLoss(lf, predictions[i], targets[i])
		if err != nil {
			return 0, errors.Wrapf(err, "instance %d", i)
		}
		for _, l := range losses {
			sum += l
		}
	}
	return sum, nil
}
