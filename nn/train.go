package nn

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"nodenet/m"
)

// learningRateDivisors scale the candidate rates of the intelligent search,
// largest step first. Each is further divided by the batch size.
var learningRateDivisors = []float64{1, 10, 100}

// Train performs one step of online gradient descent on a single instance.
func (n *Network) Train(instance, label []float64) error {
	n.prepareUpdate()
	if _, err := n.FeedForward(instance); err != nil {
		return err
	}
	if err := n.backpropagate(label); err != nil {
		return err
	}
	n.commitUpdate(n.learningRate, 1)
	return nil
}

// TrainIterationBatch accumulates the gradients of every instance and applies
// them as one update. With the intelligent learning rate enabled it commits
// only a candidate rate that lowers the total squared error; if none does the
// pending update is discarded and an *IterationError is returned.
func (n *Network) TrainIterationBatch(instances, labels [][]float64) error {
	if err := checkBatch(instances, labels); err != nil {
		return err
	}

	n.prepareUpdate()
	var iterationError float64
	for i, instance := range instances {
		predicted, err := n.FeedForward(instance)
		if err != nil {
			return errors.Wrapf(err, "instance %d", i)
		}
		e, err := squaredError(predicted, labels[i])
		if err != nil {
			return errors.Wrapf(err, "instance %d", i)
		}
		iterationError += e
		if err := n.backpropagate(labels[i]); err != nil {
			return errors.Wrapf(err, "instance %d", i)
		}
	}
	klog.V(1).Infof("iteration error before update: %g", iterationError)

	datasetSize := len(instances)
	if !n.intelligentLearningRate {
		n.commitUpdate(n.learningRate, datasetSize)
		return nil
	}

	bestError, bestRate := math.Inf(1), 0.0
	for _, divisor := range learningRateDivisors {
		rate := n.learningRate / (divisor * float64(datasetSize))
		n.configureUpdate(rate, datasetSize)
		e, err := n.ComputeError(instances, labels)
		if err != nil {
			n.resetUpdate()
			return err
		}
		klog.V(1).Infof("candidate learning rate %g: error %g", rate, e)
		if e < bestError {
			bestError, bestRate = e, rate
		}
	}
	if !(bestError < iterationError) {
		n.resetUpdate()
		return &IterationError{
			Reason: fmt.Sprintf("no candidate learning rate reduces the error %g (best %g)", iterationError, bestError),
		}
	}
	n.commitUpdate(bestRate, datasetSize)
	return nil
}

// TrainBatch runs up to epochs batch iterations and returns how many
// completed. An *IterationError ends training early without error. After
// every LearningRateIterationAmount epochs the learning rate is multiplied by
// LearningRateIterationDecay.
func (n *Network) TrainBatch(instances, labels [][]float64, epochs int) (int, error) {
	for epoch := 1; epoch <= epochs; epoch++ {
		if err := n.TrainIterationBatch(instances, labels); err != nil {
			var stop *IterationError
			if errors.As(err, &stop) {
				klog.Infof("training stopped after %d epochs: %v", epoch-1, stop)
				return epoch - 1, nil
			}
			return epoch - 1, errors.Wrapf(err, "epoch %d", epoch)
		}
		if n.learningRateIterationAmount > 0 && epoch%n.learningRateIterationAmount == 0 {
			n.learningRate *= n.learningRateIterationDecay
			klog.V(1).Infof("epoch %d: learning rate decayed to %g", epoch, n.learningRate)
		}
		if n.epochHook != nil {
			n.epochHook(epoch)
		}
	}
	return epochs, nil
}

// ComputeError returns the total squared error of the network over the batch.
// Nodes in trial mode contribute their overlaid parameters.
func (n *Network) ComputeError(instances, labels [][]float64) (float64, error) {
	if err := checkBatch(instances, labels); err != nil {
		return 0, err
	}
	var total float64
	for i, instance := range instances {
		predicted, err := n.FeedForward(instance)
		if err != nil {
			return 0, errors.Wrapf(err, "instance %d", i)
		}
		e, err := squaredError(predicted, labels[i])
		if err != nil {
			return 0, errors.Wrapf(err, "instance %d", i)
		}
		total += e
	}
	return total, nil
}

// ComputeLoss returns the configured loss summed over the batch.
func (n *Network) ComputeLoss(instances, labels [][]float64) (float64, error) {
	if err := checkBatch(instances, labels); err != nil {
		return 0, err
	}
	predictions := make([][]float64, len(instances))
	for i, instance := range instances {
		predicted, err := n.FeedForward(instance)
		if err != nil {
			return 0, errors.Wrapf(err, "instance %d", i)
		}
		predictions[i] = append([]float64(nil), predicted...)
	}
	return m.DatasetLoss(n.lossFunction, predictions, labels)
}

func checkBatch(instances, labels [][]float64) error {
	if len(instances) == 0 {
		return errors.New("empty batch")
	}
	if len(instances) != len(labels) {
		return errors.Errorf("%d instances but %d labels", len(instances), len(labels))
	}
	return nil
}

func squaredError(predicted, label []float64) (float64, error) {
	if len(predicted) != len(label) {
		return 0, &DimensionMismatchError{Expected: len(predicted), Given: len(label)}
	}
	var sum float64
	for j, p := range predicted {
		d := label[j] - p
		sum += d * d
	}
	return sum, nil
}

func (n *Network) prepareUpdate() {
	n.eachNode(func(node Node) { node.PrepareUpdate() })
}

func (n *Network) configureUpdate(learningRate float64, datasetSize int) {
	n.eachNode(func(node Node) { node.ConfigureUpdate(learningRate, datasetSize) })
}

func (n *Network) commitUpdate(learningRate float64, datasetSize int) {
	n.eachNode(func(node Node) { node.CommitUpdate(learningRate, datasetSize) })
}

func (n *Network) resetUpdate() {
	n.eachNode(func(node Node) { node.ResetUpdate() })
}
