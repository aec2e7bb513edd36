package nn

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"
)

// Dropout zeroes activations with probability Rate and rescales the
// survivors by 1/(1-Rate) so the expected activation is unchanged. Outside
// of training it is the identity.
type Dropout struct {
	Rate float32

	mu  sync.Mutex
	rng *rand.Rand
}

func NewDropout(rate float64) *Dropout {
	return &Dropout{
		Rate: float32(rate),
		rng:  rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
}

// WithSeed reseeds the mask RNG. It returns the receiver for chaining.
func (d *Dropout) WithSeed(seed uint64) *Dropout {
	d.mu.Lock()
	d.rng = rand.New(rand.NewSource(seed))
	d.mu.Unlock()
	return d
}

func (d *Dropout) Forward(x *tensor.Dense, training bool) (*tensor.Dense, error) {
	if !training || d.Rate == 0 {
		return x, nil
	}
	in := x.Data().([]float32)
	out := make([]float32, len(in))
	scale := 1 / (1 - d.Rate)
	d.mu.Lock()
	for i, v := range in {
		if float32(d.rng.Float64()) >= d.Rate {
			out[i] = v * scale
		}
	}
	d.mu.Unlock()
	return tensor.New(tensor.WithShape(x.Shape()...), tensor.WithBacking(out)), nil
}
