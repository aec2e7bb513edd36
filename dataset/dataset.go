// Package dataset reads labeled leaf images from split directories and
// serves them in mini-batches, optionally with class-weighted sampling.
package dataset

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// LeafDataset indexes one split directory of jpeg images. The label of each
// image is the leading character of its filename ("3_0bf21a.jpg" is class 3).
// The file listing happens eagerly at construction and the dataset is
// immutable afterwards; images are decoded on every access.
type LeafDataset struct {
	filenames []string
	labels    []int
	transform *Transformer
}

// NewLeafDataset lists every *.jpg under dataDir in directory order and
// parses the labels. A filename without a numeric leading character is an
// error rather than a silently broken sample.
func NewLeafDataset(dataDir string, transform *Transformer) (*LeafDataset, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing dataset dir %q", dataDir)
	}

	ds := &LeafDataset{transform: transform}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jpg") {
			continue
		}
		if name[0] < '0' || name[0] > '9' {
			return nil, errors.Errorf("filename %q does not start with a numeric label", name)
		}
		ds.filenames = append(ds.filenames, filepath.Join(dataDir, name))
		ds.labels = append(ds.labels, int(name[0]-'0'))
	}
	return ds, nil
}

// Len returns the number of samples.
func (d *LeafDataset) Len() int { return len(d.labels) }

// Labels returns a copy of the per-sample labels in dataset order.
func (d *LeafDataset) Labels() []int {
	out := make([]int, len(d.labels))
	copy(out, d.labels)
	return out
}

// ClassCounts returns the label histogram. The counts always sum to Len.
func (d *LeafDataset) ClassCounts() map[int]int {
	counts := make(map[int]int)
	for _, label := range d.labels {
		counts[label]++
	}
	return counts
}

// At decodes and transforms the idx-th image, returning the (3, size, size)
// tensor and its label.
func (d *LeafDataset) At(idx int) (*tensor.Dense, int, error) {
	if idx < 0 || idx >= len(d.filenames) {
		return nil, 0, errors.Errorf("index %d out of range [0, %d)", idx, len(d.filenames))
	}
	f, err := os.Open(d.filenames[idx])
	if err != nil {
		return nil, 0, errors.Wrapf(err, "opening image %q", d.filenames[idx])
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return nil, 0, errors.Wrapf(err, "decoding image %q", d.filenames[idx])
	}
	return d.transform.Apply(img), d.labels[idx], nil
}
