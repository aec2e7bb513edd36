package dataset

import (
	"io"
	"sync"

	"gorgonia.org/tensor"
)

// Batch is one mini-batch of transformed images and their labels.
type Batch struct {
	// Images has shape (N, 3, size, size).
	Images *tensor.Dense
	Labels []int
}

// Len returns the number of samples in the batch.
func (b *Batch) Len() int { return len(b.Labels) }

// Loader iterates a dataset in the order produced by a batch sampler,
// decoding the images of each batch across a pool of worker goroutines.
// Next returns io.EOF once the epoch is exhausted; Reset starts a new epoch.
type Loader struct {
	ds         *LeafDataset
	batcher    *BatchSampler
	numWorkers int
	pinMemory  bool

	batches [][]int
	pos     int
}

// NewLoader builds a Loader over ds with the given batching strategy.
// numWorkers is the parallel decode degree (values below 1 mean serial).
// pinMemory is a passthrough execution hint for accelerator consumers and
// changes nothing here.
func NewLoader(ds *LeafDataset, batcher *BatchSampler, numWorkers int, pinMemory bool) *Loader {
	l := &Loader{
		ds:         ds,
		batcher:    batcher,
		numWorkers: numWorkers,
		pinMemory:  pinMemory,
	}
	l.Reset()
	return l
}

// Dataset returns the wrapped dataset.
func (l *Loader) Dataset() *LeafDataset { return l.ds }

// PinMemory reports the stored memory-pinning hint.
func (l *Loader) PinMemory() bool { return l.pinMemory }

// Len returns the number of batches in the current epoch.
func (l *Loader) Len() int { return len(l.batches) }

// Reset re-runs the batch sampler for a new epoch. Sequential loaders keep
// their order; shuffled and weighted loaders get fresh draws.
func (l *Loader) Reset() {
	l.batches = l.batcher.Batches()
	l.pos = 0
}

// Next returns the next batch of the epoch, or io.EOF when it is over.
func (l *Loader) Next() (*Batch, error) {
	if l.pos >= len(l.batches) {
		return nil, io.EOF
	}
	indices := l.batches[l.pos]
	l.pos++
	return l.collate(indices)
}

// collate decodes the samples at the given dataset indices in parallel and
// assembles them into one batch tensor. Each worker writes into a disjoint
// region of the backing slice, so no synchronization beyond the wait group
// is needed.
func (l *Loader) collate(indices []int) (*Batch, error) {
	n := len(indices)
	size := l.ds.transform.Size()
	sampleLen := 3 * size * size
	backing := make([]float32, n*sampleLen)
	labels := make([]int, n)

	workers := l.numWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	errc := make(chan error, 1)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				img, label, err := l.ds.At(indices[pos])
				if err != nil {
					select {
					case errc <- err:
					default:
					}
					continue
				}
				copy(backing[pos*sampleLen:(pos+1)*sampleLen], img.Data().([]float32))
				labels[pos] = label
			}
		}()
	}
	for pos := 0; pos < n; pos++ {
		jobs <- pos
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errc:
		return nil, err
	default:
	}

	images := tensor.New(tensor.WithShape(n, 3, size, size), tensor.WithBacking(backing))
	return &Batch{Images: images, Labels: labels}, nil
}
