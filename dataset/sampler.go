package dataset

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler produces the index order for one epoch over a dataset. Calling
// Indices again starts a new epoch, so shuffled and weighted samplers yield
// fresh draws each time.
type Sampler interface {
	Indices() []int
	Len() int
}

// SequentialSampler visits every index in dataset order. Used for the
// validation and test splits, where traversal must be reproducible.
type SequentialSampler struct {
	n int
}

func NewSequentialSampler(n int) *SequentialSampler { return &SequentialSampler{n: n} }

func (s *SequentialSampler) Indices() []int {
	out := make([]int, s.n)
	for i := range out {
		out[i] = i
	}
	return out
}

func (s *SequentialSampler) Len() int { return s.n }

// ShuffleSampler visits every index exactly once in a fresh uniform
// permutation per epoch.
type ShuffleSampler struct {
	n   int
	rng *rand.Rand
}

func NewShuffleSampler(n int, seed uint64) *ShuffleSampler {
	return &ShuffleSampler{n: n, rng: rand.New(rand.NewSource(seed))}
}

func (s *ShuffleSampler) Indices() []int { return s.rng.Perm(s.n) }

func (s *ShuffleSampler) Len() int { return s.n }

// ClassWeights maps each label to total/count, so rarer classes weigh
// proportionally more. The weights are relative; the sampler does not need
// them normalized to sum to 1.
func ClassWeights(labels []int) map[int]float64 {
	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}
	total := float64(len(labels))
	weights := make(map[int]float64, len(counts))
	for label, count := range counts {
		weights[label] = total / float64(count)
	}
	return weights
}

// SampleWeights expands the class weight table into one weight per sample.
func SampleWeights(labels []int) []float64 {
	classWeights := ClassWeights(labels)
	weights := make([]float64, len(labels))
	for i, label := range labels {
		weights[i] = classWeights[label]
	}
	return weights
}

// WeightedRandomSampler draws indices with replacement, each index with
// probability proportional to its weight. One epoch draws as many indices as
// the dataset has samples, so a long-tailed dataset comes out approximately
// class-balanced in expectation without discarding majority-class data.
type WeightedRandomSampler struct {
	dist  distuv.Categorical
	draws int
}

func NewWeightedRandomSampler(weights []float64, draws int, seed uint64) *WeightedRandomSampler {
	return &WeightedRandomSampler{
		dist:  distuv.NewCategorical(weights, rand.NewSource(seed)),
		draws: draws,
	}
}

func (s *WeightedRandomSampler) Indices() []int {
	out := make([]int, s.draws)
	for i := range out {
		out[i] = int(s.dist.Rand())
	}
	return out
}

func (s *WeightedRandomSampler) Len() int { return s.draws }

// BatchSampler groups the indices of an underlying sampler into fixed-size
// batches. When dropLast is set a final partial batch is discarded, forcing
// uniform batch sizes.
type BatchSampler struct {
	sampler   Sampler
	batchSize int
	dropLast  bool
}

func NewBatchSampler(sampler Sampler, batchSize int, dropLast bool) *BatchSampler {
	return &BatchSampler{sampler: sampler, batchSize: batchSize, dropLast: dropLast}
}

// Batches runs the underlying sampler for one epoch and slices the result
// into batch index lists.
func (b *BatchSampler) Batches() [][]int {
	indices := b.sampler.Indices()
	var batches [][]int
	for start := 0; start < len(indices); start += b.batchSize {
		end := start + b.batchSize
		if end > len(indices) {
			if b.dropLast {
				break
			}
			end = len(indices)
		}
		batches = append(batches, indices[start:end])
	}
	return batches
}

// BatchSize returns the nominal batch size.
func (b *BatchSampler) BatchSize() int { return b.batchSize }
