package dataset

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassWeightsInverseFrequency(t *testing.T) {
	labels := []int{0, 0, 0, 1}
	weights := ClassWeights(labels)
	require.Len(t, weights, 2)
	require.InDelta(t, 4.0/3.0, weights[0], 1e-12)
	require.InDelta(t, 4.0, weights[1], 1e-12)
}

func TestSampleWeightsLookup(t *testing.T) {
	labels := []int{1, 0, 0, 1, 0, 0}
	weights := SampleWeights(labels)
	require.Len(t, weights, len(labels))
	for i, label := range labels {
		if label == 0 {
			require.InDelta(t, 6.0/4.0, weights[i], 1e-12)
		} else {
			require.InDelta(t, 3.0, weights[i], 1e-12)
		}
	}
}

// longTailedLabels builds a label vector with a strongly imbalanced class
// distribution over six classes.
func longTailedLabels() []int {
	counts := []int{500, 100, 50, 25, 25, 25}
	var labels []int
	for class, count := range counts {
		for i := 0; i < count; i++ {
			labels = append(labels, class)
		}
	}
	return labels
}

func TestWeightedSamplerApproximatelyBalances(t *testing.T) {
	labels := longTailedLabels()
	sampler := NewWeightedRandomSampler(SampleWeights(labels), len(labels), 1)

	drawCounts := make([]int, 6)
	epochs := 40
	for e := 0; e < epochs; e++ {
		indices := sampler.Indices()
		require.Len(t, indices, len(labels))
		for _, idx := range indices {
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, len(labels))
			drawCounts[labels[idx]]++
		}
	}

	totalDraws := float64(epochs * len(labels))
	for class, count := range drawCounts {
		share := float64(count) / totalDraws
		require.InDelta(t, 1.0/6.0, share, 0.02, "class %d drawn with share %f", class, share)
	}
}

func TestSequentialSampler(t *testing.T) {
	s := NewSequentialSampler(5)
	require.Equal(t, []int{0, 1, 2, 3, 4}, s.Indices())
	require.Equal(t, s.Indices(), s.Indices())
	require.Equal(t, 5, s.Len())
}

func TestShuffleSamplerIsPermutation(t *testing.T) {
	n := 100
	s := NewShuffleSampler(n, 3)
	indices := s.Indices()
	require.Len(t, indices, n)

	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	require.Equal(t, NewSequentialSampler(n).Indices(), sorted)

	// A new epoch reshuffles.
	require.NotEqual(t, indices, s.Indices())
}

func TestBatchSamplerKeepsPartialBatch(t *testing.T) {
	b := NewBatchSampler(NewSequentialSampler(10), 3, false)
	batches := b.Batches()
	require.Len(t, batches, 4)
	require.Equal(t, []int{0, 1, 2}, batches[0])
	require.Equal(t, []int{9}, batches[3])
}

func TestBatchSamplerDropLast(t *testing.T) {
	b := NewBatchSampler(NewSequentialSampler(10), 3, true)
	batches := b.Batches()
	require.Len(t, batches, 3)
	for _, batch := range batches {
		require.Len(t, batch, 3)
	}
}

func TestBatchSamplerExactMultiple(t *testing.T) {
	for _, dropLast := range []bool{true, false} {
		b := NewBatchSampler(NewSequentialSampler(9), 3, dropLast)
		require.Len(t, b.Batches(), 3)
	}
}
