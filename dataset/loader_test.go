package dataset

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"leafnet/params"
)

// drainLabels runs one full epoch and returns the labels in yield order.
func drainLabels(t *testing.T, l *Loader) []int {
	t.Helper()
	var labels []int
	for {
		batch, err := l.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		labels = append(labels, batch.Labels...)
	}
	return labels
}

func TestLoaderSequentialOrderStable(t *testing.T) {
	dir := newSplitDir(t, map[int]int{0: 4, 1: 3, 2: 3})
	ds, err := NewLeafDataset(dir, NewEvalTransformer(16))
	require.NoError(t, err)

	loader := NewLoader(ds, NewBatchSampler(NewSequentialSampler(ds.Len()), 4, false), 2, false)
	require.Equal(t, 3, loader.Len())

	first := drainLabels(t, loader)
	loader.Reset()
	second := drainLabels(t, loader)
	require.Equal(t, first, second)
	require.Equal(t, ds.Labels(), first)
}

func TestLoaderBatchShapes(t *testing.T) {
	dir := newSplitDir(t, map[int]int{0: 3, 1: 3, 2: 4})
	ds, err := NewLeafDataset(dir, NewEvalTransformer(16))
	require.NoError(t, err)

	loader := NewLoader(ds, NewBatchSampler(NewSequentialSampler(ds.Len()), 4, false), 2, false)

	batch, err := loader.Next()
	require.NoError(t, err)
	require.Equal(t, []int{4, 3, 16, 16}, []int(batch.Images.Shape()))
	require.Equal(t, 4, batch.Len())

	_, err = loader.Next()
	require.NoError(t, err)

	last, err := loader.Next()
	require.NoError(t, err)
	require.Equal(t, []int{2, 3, 16, 16}, []int(last.Images.Shape()))

	_, err = loader.Next()
	require.Equal(t, io.EOF, err)
}

func TestLoaderWorkerCountDoesNotChangeContent(t *testing.T) {
	dir := newSplitDir(t, map[int]int{0: 5, 3: 5})
	ds, err := NewLeafDataset(dir, NewEvalTransformer(16))
	require.NoError(t, err)

	serial := NewLoader(ds, NewBatchSampler(NewSequentialSampler(ds.Len()), 4, false), 0, false)
	parallel := NewLoader(ds, NewBatchSampler(NewSequentialSampler(ds.Len()), 4, false), 4, false)

	for {
		a, errA := serial.Next()
		b, errB := parallel.Next()
		require.Equal(t, errA, errB)
		if errA == io.EOF {
			break
		}
		require.Equal(t, a.Labels, b.Labels)
		require.Equal(t, a.Images.Data().([]float32), b.Images.Data().([]float32))
	}
}

func TestLoaderWeightedDropsPartialBatch(t *testing.T) {
	dir := newSplitDir(t, map[int]int{0: 6, 1: 2, 2: 2})
	ds, err := NewLeafDataset(dir, NewEvalTransformer(16))
	require.NoError(t, err)

	sampler := NewWeightedRandomSampler(SampleWeights(ds.Labels()), ds.Len(), 11)
	loader := NewLoader(ds, NewBatchSampler(sampler, 4, true), 2, false)
	require.Equal(t, 2, loader.Len())

	seen := 0
	for {
		batch, err := loader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Equal(t, 4, batch.Len())
		for _, label := range batch.Labels {
			require.Contains(t, []int{0, 1, 2}, label)
		}
		seen += batch.Len()
	}
	require.Equal(t, 8, seen)
}

// newDataRoot lays out train/val/test split directories under one root.
func newDataRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, split := range []string{TrainSplit, ValSplit, TestSplit} {
		dir := newSplitDir(t, map[int]int{0: 4, 1: 2, 2: 2})
		require.NoError(t, os.Rename(dir, filepath.Join(root, split)))
	}
	return root
}

func TestFetchLoadersUniform(t *testing.T) {
	root := newDataRoot(t)
	p := params.Params{BatchSize: 4, NumWorkers: 2, ImgDimension: 16, DropoutRate: 0.5}

	loaders, err := FetchLoaders([]string{TrainSplit, ValSplit, TestSplit}, root, p, 5)
	require.NoError(t, err)
	require.Len(t, loaders, 3)

	// The shuffled train epoch still visits every sample exactly once.
	trainLabels := drainLabels(t, loaders[TrainSplit])
	require.Len(t, trainLabels, 8)
	counts := map[int]int{}
	for _, label := range trainLabels {
		counts[label]++
	}
	require.Equal(t, map[int]int{0: 4, 1: 2, 2: 2}, counts)

	// Val traversal is sequential and reproducible.
	valLabels := drainLabels(t, loaders[ValSplit])
	loaders[ValSplit].Reset()
	require.Equal(t, valLabels, drainLabels(t, loaders[ValSplit]))
}

func TestFetchLoadersWeighted(t *testing.T) {
	root := newDataRoot(t)
	p := params.Params{BatchSize: 3, NumWorkers: 1, ImgDimension: 16, DropoutRate: 0.5, WeighedSampling: true}

	loaders, err := FetchLoaders([]string{TrainSplit}, root, p, 5)
	require.NoError(t, err)

	// 8 draws with drop-last at batch size 3 leaves 2 full batches.
	train := loaders[TrainSplit]
	require.Equal(t, 2, train.Len())
	labels := drainLabels(t, train)
	require.Len(t, labels, 6)
}

func TestFetchLoadersUnknownSplit(t *testing.T) {
	root := newDataRoot(t)
	_, err := FetchLoaders([]string{"holdout"}, root, params.Params{BatchSize: 4, ImgDimension: 16}, 5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown split")
}

func TestFetchLoadersMissingSplitDir(t *testing.T) {
	_, err := FetchLoaders([]string{TrainSplit}, t.TempDir(), params.Params{BatchSize: 4, ImgDimension: 16}, 5)
	require.Error(t, err)
}
