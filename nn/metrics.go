package nn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Metric scores a batch of logits against its labels.
type Metric func(logits *tensor.Dense, labels []int) (float64, error)

// Metrics maps metric names to scoring functions; evaluation loops iterate
// this table. More metrics (e.g. per-class accuracy) can be registered by
// callers.
var Metrics = map[string]Metric{
	"accuracy": Accuracy,
}

// Accuracy is the fraction of samples whose argmax logit matches the label,
// in [0, 1].
func Accuracy(logits *tensor.Dense, labels []int) (float64, error) {
	shape := logits.Shape()
	if len(shape) != 2 {
		return 0, errors.Errorf("accuracy expects (batch, classes) logits, got shape %v", shape)
	}
	n, classes := shape[0], shape[1]
	if n != len(labels) {
		return 0, errors.Errorf("accuracy got %d logit rows for %d labels", n, len(labels))
	}
	if n == 0 {
		return 0, errors.New("accuracy of an empty batch")
	}

	data := logits.Data().([]float32)
	correct := 0
	for i := 0; i < n; i++ {
		row := data[i*classes : (i+1)*classes]
		argmax := 0
		for j, v := range row {
			if v > row[argmax] {
				argmax = j
			}
		}
		if argmax == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}
