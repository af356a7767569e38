package nn

import "fmt"

// DimensionMismatchError reports an input vector whose length differs from
// what the network or node expects. Activation state after it is undefined.
type DimensionMismatchError struct {
	Expected int
	Given    int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("given dimensionality (%d) does not match the expected one (%d)", e.Given, e.Expected)
}

// LayerConfigurationError is returned when a layer is registered out of
// sequence, twice, or with nodes that do not fit the layer below it. The
// network is left untouched.
type LayerConfigurationError struct {
	Layer  int
	Reason string
}

func (e *LayerConfigurationError) Error() string {
	return fmt.Sprintf("layer %d: %s", e.Layer, e.Reason)
}

// IterationError signals that no candidate learning rate reduced the batch
// error. It is a stop condition, not a defect.
type IterationError struct {
	Reason string
}

func (e *IterationError) Error() string {
	return e.Reason
}
