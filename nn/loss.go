package nn

import (
	"math"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// CrossEntropyLoss returns the mean cross-entropy between logits (N, C) and
// integer labels in [0, C). The softmax is folded into the loss with the
// usual log-sum-exp shift for numerical stability.
func CrossEntropyLoss(logits *tensor.Dense, labels []int) (float32, error) {
	shape := logits.Shape()
	if len(shape) != 2 {
		return 0, errors.Errorf("cross entropy expects (batch, classes) logits, got shape %v", shape)
	}
	n, classes := shape[0], shape[1]
	if n != len(labels) {
		return 0, errors.Errorf("cross entropy got %d logit rows for %d labels", n, len(labels))
	}
	if n == 0 {
		return 0, errors.New("cross entropy of an empty batch")
	}

	data := logits.Data().([]float32)
	var sum float64
	for i := 0; i < n; i++ {
		label := labels[i]
		if label < 0 || label >= classes {
			return 0, errors.Errorf("label %d out of range [0, %d)", label, classes)
		}
		row := data[i*classes : (i+1)*classes]
		maxVal := row[0]
		for _, v := range row {
			if v > maxVal {
				maxVal = v
			}
		}
		var expSum float64
		for _, v := range row {
			expSum += math.Exp(float64(v - maxVal))
		}
		sum += math.Log(expSum) - float64(row[label]-maxVal)
	}
	return float32(sum / float64(n)), nil
}
