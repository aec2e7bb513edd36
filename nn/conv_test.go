package nn

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func denseOf(shape []int, data []float32) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
}

func TestConv2DKnownValues(t *testing.T) {
	c := NewConv2D(1, 1, 2, 1, 0)
	copy(c.Weight.Data().([]float32), []float32{1, 0, 0, 1})
	copy(c.Bias.Data().([]float32), []float32{0.5})

	x := denseOf([]int{1, 1, 3, 3}, []float32{
		0, 1, 2,
		3, 4, 5,
		6, 7, 8,
	})
	out, err := c.Forward(x)
	require.NoError(t, err)
	require.Equal(t, []int{1, 1, 2, 2}, []int(out.Shape()))
	require.Equal(t, []float32{4.5, 6.5, 10.5, 12.5}, out.Data().([]float32))
}

func TestConv2DPaddingKeepsSize(t *testing.T) {
	c := NewConv2D(3, 8, 3, 1, 1)
	x := denseOf([]int{2, 3, 5, 5}, make([]float32, 2*3*5*5))

	out, err := c.Forward(x)
	require.NoError(t, err)
	require.Equal(t, []int{2, 8, 5, 5}, []int(out.Shape()))
}

func TestConv2DStride(t *testing.T) {
	c := NewConv2D(1, 4, 3, 2, 1)
	x := denseOf([]int{1, 1, 8, 8}, make([]float32, 64))

	out, err := c.Forward(x)
	require.NoError(t, err)
	require.Equal(t, []int{1, 4, 4, 4}, []int(out.Shape()))
}

func TestConv2DChannelMismatch(t *testing.T) {
	c := NewConv2D(3, 8, 3, 1, 1)
	x := denseOf([]int{1, 1, 5, 5}, make([]float32, 25))

	_, err := c.Forward(x)
	require.Error(t, err)
}

func TestConv2DRejectsNonBatchedInput(t *testing.T) {
	c := NewConv2D(1, 1, 2, 1, 0)
	x := denseOf([]int{3, 3}, make([]float32, 9))

	_, err := c.Forward(x)
	require.Error(t, err)
}
