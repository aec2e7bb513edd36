// Package params holds the flat hyperparameter surface consumed by the
// dataset, loader and network packages. Values are read from a JSON file of
// the same shape the project has always used (params.json).
package params

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Params is the full set of named hyperparameters.
type Params struct {
	// BatchSize is the number of samples grouped into one mini-batch.
	BatchSize int `json:"batch_size"`
	// NumWorkers is the parallel decode degree used by the loader.
	NumWorkers int `json:"num_workers"`
	// ImgDimension is the side length images are resized to.
	ImgDimension int `json:"img_dimension"`
	// DropoutRate is applied after the second fully-connected layer.
	DropoutRate float64 `json:"dropout_rate"`
	// Cuda requests pinned batch memory. It is a passthrough execution hint
	// and has no effect without accelerator support.
	Cuda bool `json:"cuda"`
	// WeighedSampling selects the class-weighted training loader instead of
	// the uniform shuffled one.
	WeighedSampling bool `json:"weighed_sampling"`
}

// Default returns the parameter values used when no file is given.
func Default() Params {
	return Params{
		BatchSize:    32,
		NumWorkers:   4,
		ImgDimension: 224,
		DropoutRate:  0.5,
	}
}

// Load reads params from a JSON file, starting from Default so that absent
// keys keep their default values.
func Load(path string) (Params, error) {
	p := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, errors.Wrapf(err, "reading params file %q", path)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, errors.Wrapf(err, "parsing params file %q", path)
	}
	if err := p.Validate(); err != nil {
		return p, errors.Wrapf(err, "invalid params in %q", path)
	}
	return p, nil
}

// Validate rejects values the rest of the stack cannot work with.
func (p Params) Validate() error {
	if p.BatchSize <= 0 {
		return errors.Errorf("batch_size must be positive, got %d", p.BatchSize)
	}
	if p.NumWorkers < 0 {
		return errors.Errorf("num_workers must not be negative, got %d", p.NumWorkers)
	}
	if p.ImgDimension <= 0 {
		return errors.Errorf("img_dimension must be positive, got %d", p.ImgDimension)
	}
	if p.DropoutRate < 0 || p.DropoutRate >= 1 {
		return errors.Errorf("dropout_rate must be in [0, 1), got %g", p.DropoutRate)
	}
	return nil
}
