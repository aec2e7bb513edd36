package nn

import (
	"math"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// BatchNorm2D normalizes every channel with the statistics of the current
// batch, then applies the learnable scale and shift. Running statistics are
// not tracked.
type BatchNorm2D struct {
	Gamma []float32
	Beta  []float32
	Eps   float32
}

// NewBatchNorm2D creates a batch normalization layer with unit scale and
// zero shift.
func NewBatchNorm2D(channels int) *BatchNorm2D {
	gamma := make([]float32, channels)
	for i := range gamma {
		gamma[i] = 1
	}
	return &BatchNorm2D{
		Gamma: gamma,
		Beta:  make([]float32, channels),
		Eps:   1e-5,
	}
}

func (b *BatchNorm2D) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	shape := x.Shape()
	if len(shape) != 4 {
		return nil, errors.Errorf("batchnorm2d expects NCHW input, got shape %v", shape)
	}
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	if c != len(b.Gamma) {
		return nil, errors.Errorf("batchnorm2d input has %d channels, want %d", c, len(b.Gamma))
	}

	data := x.Data().([]float32)
	out := make([]float32, len(data))
	plane := h * w
	perChannel := float64(n * plane)

	for ch := 0; ch < c; ch++ {
		var sum, sqSum float64
		for img := 0; img < n; img++ {
			base := img*c*plane + ch*plane
			for i := 0; i < plane; i++ {
				v := float64(data[base+i])
				sum += v
				sqSum += v * v
			}
		}
		mean := sum / perChannel
		variance := sqSum/perChannel - mean*mean
		if variance < 0 {
			variance = 0
		}
		invStd := 1 / math.Sqrt(variance+float64(b.Eps))
		gamma := float64(b.Gamma[ch])
		beta := float64(b.Beta[ch])
		for img := 0; img < n; img++ {
			base := img*c*plane + ch*plane
			for i := 0; i < plane; i++ {
				out[base+i] = float32((float64(data[base+i])-mean)*invStd*gamma + beta)
			}
		}
	}
	return tensor.New(tensor.WithShape(n, c, h, w), tensor.WithBacking(out)), nil
}
