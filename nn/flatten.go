package nn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Flatten reshapes (N, ...) into (N, features). The output shares the input
// backing.
type Flatten struct{}

func (Flatten) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	shape := x.Shape()
	if len(shape) < 2 {
		return nil, errors.Errorf("flatten expects a batched input, got shape %v", shape)
	}
	n := shape[0]
	features := 1
	for _, dim := range shape[1:] {
		features *= dim
	}
	return tensor.New(tensor.WithShape(n, features), tensor.WithBacking(x.Data().([]float32))), nil
}
