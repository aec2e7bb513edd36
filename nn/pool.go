package nn

import (
	"math"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// MaxPool2D takes the maximum over kernel-sized windows of each channel.
type MaxPool2D struct {
	Kernel int
	Stride int
}

func NewMaxPool2D(kernel, stride int) *MaxPool2D {
	return &MaxPool2D{Kernel: kernel, Stride: stride}
}

func (p *MaxPool2D) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	shape := x.Shape()
	if len(shape) != 4 {
		return nil, errors.Errorf("maxpool2d expects NCHW input, got shape %v", shape)
	}
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	outH := (h-p.Kernel)/p.Stride + 1
	outW := (w-p.Kernel)/p.Stride + 1
	if outH <= 0 || outW <= 0 {
		return nil, errors.Errorf("maxpool2d input %dx%d too small for kernel %d", h, w, p.Kernel)
	}

	data := x.Data().([]float32)
	out := make([]float32, n*c*outH*outW)
	negInf := float32(math.Inf(-1))

	for img := 0; img < n; img++ {
		for ch := 0; ch < c; ch++ {
			src := data[(img*c+ch)*h*w:]
			dst := out[(img*c+ch)*outH*outW:]
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					maxVal := negInf
					for ky := 0; ky < p.Kernel; ky++ {
						for kx := 0; kx < p.Kernel; kx++ {
							v := src[(oy*p.Stride+ky)*w+ox*p.Stride+kx]
							if v > maxVal {
								maxVal = v
							}
						}
					}
					dst[oy*outW+ox] = maxVal
				}
			}
		}
	}
	return tensor.New(tensor.WithShape(n, c, outH, outW), tensor.WithBacking(out)), nil
}
