// Package nn defines the forward-only layers of the leaf classifier, the
// fixed network architecture, and its loss and metric functions. All layers
// operate on dense float32 tensors in NCHW layout.
package nn

import (
	"math"
	"math/rand"

	"gorgonia.org/tensor"
)

// Layer is a forward-only network stage.
type Layer interface {
	Forward(x *tensor.Dense) (*tensor.Dense, error)
}

// ReLU applies max(x, 0) elementwise.
type ReLU struct{}

func (ReLU) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	in := x.Data().([]float32)
	out := make([]float32, len(in))
	for i, v := range in {
		if v > 0 {
			out[i] = v
		}
	}
	return tensor.New(tensor.WithShape(x.Shape()...), tensor.WithBacking(out)), nil
}

// xavierInit draws one weight from the Glorot uniform range for the given
// fan-in and fan-out.
func xavierInit(fanIn, fanOut int) float32 {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return float32(2*rand.Float64()*limit - limit)
}
