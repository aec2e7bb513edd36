package dataset

import (
	"path/filepath"

	"github.com/pkg/errors"

	"leafnet/params"
)

// Split directory names understood by FetchLoaders.
const (
	TrainSplit = "train"
	ValSplit   = "val"
	TestSplit  = "test"
)

// FetchLoaders builds one Loader per requested split under dataDir.
//
// The train split uses the flipping transformer and, depending on
// params.WeighedSampling, either a fresh uniform shuffle per epoch (the
// default) or class-weighted sampling with replacement and uniform batch
// sizes. The val and test splits always use the deterministic transformer
// and unshuffled sequential batching.
func FetchLoaders(splits []string, dataDir string, p params.Params, seed uint64) (map[string]*Loader, error) {
	trainTransform := NewTrainTransformer(p.ImgDimension)
	evalTransform := NewEvalTransformer(p.ImgDimension)

	loaders := make(map[string]*Loader, len(splits))
	for _, split := range splits {
		path := filepath.Join(dataDir, split)
		switch split {
		case TrainSplit:
			ds, err := NewLeafDataset(path, trainTransform)
			if err != nil {
				return nil, err
			}
			var batcher *BatchSampler
			if p.WeighedSampling {
				weights := SampleWeights(ds.Labels())
				sampler := NewWeightedRandomSampler(weights, ds.Len(), seed)
				batcher = NewBatchSampler(sampler, p.BatchSize, true)
			} else {
				batcher = NewBatchSampler(NewShuffleSampler(ds.Len(), seed), p.BatchSize, false)
			}
			loaders[split] = NewLoader(ds, batcher, p.NumWorkers, p.Cuda)
		case ValSplit, TestSplit:
			ds, err := NewLeafDataset(path, evalTransform)
			if err != nil {
				return nil, err
			}
			batcher := NewBatchSampler(NewSequentialSampler(ds.Len()), p.BatchSize, false)
			loaders[split] = NewLoader(ds, batcher, p.NumWorkers, p.Cuda)
		default:
			return nil, errors.Errorf("unknown split %q", split)
		}
	}
	return loaders, nil
}
