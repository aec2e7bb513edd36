package nn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Conv2D is a 2D convolution over NCHW tensors.
type Conv2D struct {
	Weight  *tensor.Dense // (outChannels, inChannels, kernel, kernel)
	Bias    *tensor.Dense // (outChannels)
	Stride  int
	Padding int
}

// NewConv2D creates a convolution layer with Glorot-initialized weights and
// zero bias.
func NewConv2D(inChannels, outChannels, kernel, stride, padding int) *Conv2D {
	fanIn := inChannels * kernel * kernel
	weights := make([]float32, outChannels*fanIn)
	for i := range weights {
		weights[i] = xavierInit(fanIn, outChannels)
	}
	return &Conv2D{
		Weight:  tensor.New(tensor.WithShape(outChannels, inChannels, kernel, kernel), tensor.WithBacking(weights)),
		Bias:    tensor.New(tensor.WithShape(outChannels), tensor.WithBacking(make([]float32, outChannels))),
		Stride:  stride,
		Padding: padding,
	}
}

// Forward convolves x (N, C, H, W) with the layer's kernels. Each image is
// unrolled with im2col so the convolution reduces to one matrix multiply per
// image.
func (c *Conv2D) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	shape := x.Shape()
	if len(shape) != 4 {
		return nil, errors.Errorf("conv2d expects NCHW input, got shape %v", shape)
	}
	n, in, h, w := shape[0], shape[1], shape[2], shape[3]

	wShape := c.Weight.Shape()
	out, kernel := wShape[0], wShape[2]
	if in != wShape[1] {
		return nil, errors.Errorf("conv2d input has %d channels, want %d", in, wShape[1])
	}
	outH := (h+2*c.Padding-kernel)/c.Stride + 1
	outW := (w+2*c.Padding-kernel)/c.Stride + 1
	if outH <= 0 || outW <= 0 {
		return nil, errors.Errorf("conv2d input %dx%d too small for kernel %d stride %d", h, w, kernel, c.Stride)
	}

	// The kernel bank viewed as a (out, in*k*k) matrix shares the weight
	// backing, no copy.
	kernelMatrix := tensor.New(tensor.WithShape(out, in*kernel*kernel), tensor.WithBacking(c.Weight.Data().([]float32)))
	bias := c.Bias.Data().([]float32)

	xData := x.Data().([]float32)
	imageLen := in * h * w
	plane := outH * outW
	backing := make([]float32, n*out*plane)

	for img := 0; img < n; img++ {
		cols := im2col(xData[img*imageLen:(img+1)*imageLen], in, h, w, kernel, c.Stride, c.Padding)
		prod, err := tensor.MatMul(kernelMatrix, cols)
		if err != nil {
			return nil, errors.Wrap(err, "conv2d matmul")
		}
		prodData := prod.(*tensor.Dense).Data().([]float32)
		dst := backing[img*out*plane:]
		for oc := 0; oc < out; oc++ {
			b := bias[oc]
			for i := 0; i < plane; i++ {
				dst[oc*plane+i] = prodData[oc*plane+i] + b
			}
		}
	}
	return tensor.New(tensor.WithShape(n, out, outH, outW), tensor.WithBacking(backing)), nil
}

// im2col unrolls one CHW image into a (C*k*k, outH*outW) matrix. Positions
// that fall into the padding contribute zeros.
func im2col(img []float32, channels, h, w, kernel, stride, pad int) *tensor.Dense {
	outH := (h+2*pad-kernel)/stride + 1
	outW := (w+2*pad-kernel)/stride + 1
	cols := outH * outW
	data := make([]float32, channels*kernel*kernel*cols)

	row := 0
	for ch := 0; ch < channels; ch++ {
		for ky := 0; ky < kernel; ky++ {
			for kx := 0; kx < kernel; kx++ {
				base := row * cols
				for oy := 0; oy < outH; oy++ {
					srcY := oy*stride + ky - pad
					for ox := 0; ox < outW; ox++ {
						srcX := ox*stride + kx - pad
						if srcY >= 0 && srcY < h && srcX >= 0 && srcX < w {
							data[base+oy*outW+ox] = img[ch*h*w+srcY*w+srcX]
						}
					}
				}
				row++
			}
		}
	}
	return tensor.New(tensor.WithShape(channels*kernel*kernel, cols), tensor.WithBacking(data))
}
