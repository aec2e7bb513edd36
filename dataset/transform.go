package dataset

import (
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"
)

// Fixed per-channel normalization constants (ImageNet statistics).
var (
	normMean = [3]float32{0.485, 0.456, 0.406}
	normStd  = [3]float32{0.229, 0.224, 0.225}
)

// padMargin is the black border added around the center crop before resizing.
const padMargin = 10

// Transformer converts a raw decoded image into a fixed-shape CHW tensor:
// center-crop to twice the target size, pad, resize to the target size,
// optionally flip horizontally, then normalize each channel.
//
// A single Transformer is shared by all loader workers, so Apply is safe for
// concurrent use.
type Transformer struct {
	size int
	flip bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTrainTransformer returns the training pipeline, which flips images
// horizontally with probability 0.5.
func NewTrainTransformer(size int) *Transformer {
	return &Transformer{
		size: size,
		flip: true,
		rng:  rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
}

// NewEvalTransformer returns the deterministic pipeline used for the
// validation and test splits. It differs from the training pipeline only by
// the missing flip.
func NewEvalTransformer(size int) *Transformer {
	return &Transformer{size: size}
}

// WithSeed reseeds the flip RNG. It returns the receiver for chaining.
func (t *Transformer) WithSeed(seed uint64) *Transformer {
	t.mu.Lock()
	t.rng = rand.New(rand.NewSource(seed))
	t.mu.Unlock()
	return t
}

// Size returns the target side length of the output tensor.
func (t *Transformer) Size() int { return t.size }

// Apply runs the pipeline on img and returns a (3, size, size) float32
// tensor. The final resize pins the output shape no matter how large or
// small the input is.
func (t *Transformer) Apply(img image.Image) *tensor.Dense {
	out := imaging.CropCenter(img, 2*t.size, 2*t.size)

	bounds := out.Bounds().Size()
	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.X+2*padMargin, bounds.Y+2*padMargin))
	out = imaging.PasteCenter(canvas, out)

	out = imaging.Resize(out, t.size, t.size, imaging.Lanczos)

	if t.flip {
		t.mu.Lock()
		flipped := t.rng.Float64() < 0.5
		t.mu.Unlock()
		if flipped {
			out = imaging.FlipH(out)
		}
	}

	return t.toTensor(out)
}

// toTensor converts the size x size NRGBA image into a normalized CHW
// float32 tensor. Alpha is discarded.
func (t *Transformer) toTensor(img *image.NRGBA) *tensor.Dense {
	plane := t.size * t.size
	data := make([]float32, 3*plane)
	for y := 0; y < t.size; y++ {
		for x := 0; x < t.size; x++ {
			px := img.NRGBAAt(x, y)
			chans := [3]uint8{px.R, px.G, px.B}
			for c := 0; c < 3; c++ {
				v := float32(chans[c]) / 255.0
				data[c*plane+y*t.size+x] = (v - normMean[c]) / normStd[c]
			}
		}
	}
	return tensor.New(tensor.WithShape(3, t.size, t.size), tensor.WithBacking(data))
}
