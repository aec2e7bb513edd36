package nn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Linear computes x @ W + b over (N, in) inputs.
type Linear struct {
	Weight *tensor.Dense // (in, out)
	Bias   *tensor.Dense // (out)
}

// NewLinear creates a fully-connected layer with Glorot-initialized weights
// and zero bias.
func NewLinear(in, out int) *Linear {
	weights := make([]float32, in*out)
	for i := range weights {
		weights[i] = xavierInit(in, out)
	}
	return &Linear{
		Weight: tensor.New(tensor.WithShape(in, out), tensor.WithBacking(weights)),
		Bias:   tensor.New(tensor.WithShape(out), tensor.WithBacking(make([]float32, out))),
	}
}

func (l *Linear) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	shape := x.Shape()
	if len(shape) != 2 {
		return nil, errors.Errorf("linear expects (batch, features) input, got shape %v", shape)
	}
	in := l.Weight.Shape()[0]
	out := l.Weight.Shape()[1]
	if shape[1] != in {
		return nil, errors.Errorf("linear input has %d features, want %d", shape[1], in)
	}

	prod, err := tensor.MatMul(x, l.Weight)
	if err != nil {
		return nil, errors.Wrap(err, "linear matmul")
	}
	result := prod.(*tensor.Dense)
	data := result.Data().([]float32)
	bias := l.Bias.Data().([]float32)
	for row := 0; row < shape[0]; row++ {
		for col := 0; col < out; col++ {
			data[row*out+col] += bias[col]
		}
	}
	return result, nil
}
