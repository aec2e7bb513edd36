package nn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// NumClasses is the number of leaf categories the network scores.
const NumClasses = 6

// flattenWidth is the classifier input width: 148 channels over a 3x3 map,
// which the convolutional stack produces for 224x224 inputs.
const flattenWidth = 1332

// Net is the fixed four-block convolutional classifier. Forward keeps no
// state between calls apart from the layer parameters; only the dropout
// behavior depends on the train/eval mode.
type Net struct {
	conv0, conv1, conv2, conv3 *Conv2D
	bn0, bn1, bn2, bn3         *BatchNorm2D
	pool0, pool1, pool2, pool3 *MaxPool2D
	fc1, fc2, fc3              *Linear
	dropout                    *Dropout

	relu    ReLU
	flatten Flatten

	training bool
}

// NewNet builds the network with freshly initialized parameters.
func NewNet(dropoutRate float64) *Net {
	return &Net{
		conv0: NewConv2D(3, 96, 11, 4, 2),
		bn0:   NewBatchNorm2D(96),
		pool0: NewMaxPool2D(2, 2),

		conv1: NewConv2D(96, 42, 5, 2, 2),
		bn1:   NewBatchNorm2D(42),
		pool1: NewMaxPool2D(2, 2),

		conv2: NewConv2D(42, 74, 3, 1, 2),
		bn2:   NewBatchNorm2D(74),
		pool2: NewMaxPool2D(2, 2),

		conv3: NewConv2D(74, 148, 3, 1, 2),
		bn3:   NewBatchNorm2D(148),
		pool3: NewMaxPool2D(2, 2),

		fc1: NewLinear(flattenWidth, 600),
		fc2: NewLinear(600, 200),
		fc3: NewLinear(200, NumClasses),

		dropout: NewDropout(dropoutRate),
	}
}

// Train enables dropout.
func (n *Net) Train() { n.training = true }

// Eval disables dropout.
func (n *Net) Eval() { n.training = false }

// block runs one conv -> batchnorm -> pool -> relu stage.
func (n *Net) block(conv *Conv2D, bn *BatchNorm2D, pool *MaxPool2D, x *tensor.Dense) (*tensor.Dense, error) {
	s, err := conv.Forward(x)
	if err != nil {
		return nil, err
	}
	if s, err = bn.Forward(s); err != nil {
		return nil, err
	}
	if s, err = pool.Forward(s); err != nil {
		return nil, err
	}
	return n.relu.Forward(s)
}

// Forward maps a batch of images (N, 3, 224, 224) to per-class logits
// (N, NumClasses).
func (n *Net) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	s, err := n.block(n.conv0, n.bn0, n.pool0, x)
	if err != nil {
		return nil, err
	}

	// Block 1 has historically been written out step by step; kept that way
	// for architecture compatibility.
	if s, err = n.conv1.Forward(s); err != nil {
		return nil, err
	}
	if s, err = n.bn1.Forward(s); err != nil {
		return nil, err
	}
	if s, err = n.pool1.Forward(s); err != nil {
		return nil, err
	}
	if s, err = n.relu.Forward(s); err != nil {
		return nil, err
	}

	if s, err = n.block(n.conv2, n.bn2, n.pool2, s); err != nil {
		return nil, err
	}
	if s, err = n.block(n.conv3, n.bn3, n.pool3, s); err != nil {
		return nil, err
	}

	if s, err = n.flatten.Forward(s); err != nil {
		return nil, err
	}
	if got := s.Shape()[1]; got != flattenWidth {
		return nil, errors.Errorf("flattened width %d does not match classifier width %d; the network expects 224x224 inputs", got, flattenWidth)
	}

	if s, err = n.fc1.Forward(s); err != nil {
		return nil, err
	}
	if s, err = n.relu.Forward(s); err != nil {
		return nil, err
	}
	if s, err = n.fc2.Forward(s); err != nil {
		return nil, err
	}
	if s, err = n.relu.Forward(s); err != nil {
		return nil, err
	}
	if s, err = n.dropout.Forward(s, n.training); err != nil {
		return nil, err
	}
	return n.fc3.Forward(s)
}
