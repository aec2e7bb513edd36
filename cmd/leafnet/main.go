// Command leafnet inspects the leaf image splits and optionally runs a
// forward-pass evaluation (loss plus every registered metric) over their
// loaders.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"leafnet/dataset"
	"leafnet/nn"
	"leafnet/params"
)

type args struct {
	DataDir  string   `arg:"--data-dir" default:"data/leaf" help:"directory containing the train/val/test subdirectories"`
	Params   string   `arg:"--params" default:"params.json" help:"hyperparameter JSON file (defaults used if missing)"`
	Splits   []string `arg:"--splits" help:"splits to load (default: train val test)"`
	Evaluate bool     `arg:"--evaluate" help:"run a forward pass over each split and report loss and metrics"`
	Seed     uint64   `arg:"--seed" help:"sampler seed; 0 picks a time-based seed"`
}

func main() {
	var a args
	arg.MustParse(&a)

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	p := params.Default()
	if _, statErr := os.Stat(a.Params); statErr == nil {
		if p, err = params.Load(a.Params); err != nil {
			log.Fatalw("loading params", "error", err)
		}
	} else {
		log.Infow("params file missing, using defaults", "path", a.Params)
	}

	if len(a.Splits) == 0 {
		a.Splits = []string{dataset.TrainSplit, dataset.ValSplit, dataset.TestSplit}
	}
	seed := a.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	loaders, err := dataset.FetchLoaders(a.Splits, a.DataDir, p, seed)
	if err != nil {
		log.Fatalw("building loaders", "error", err)
	}

	for _, split := range a.Splits {
		loader := loaders[split]
		counts := loader.Dataset().ClassCounts()
		log.Infow("split ready",
			"split", split,
			"samples", loader.Dataset().Len(),
			"unique_labels", len(counts),
			"class_counts", counts,
			"batches", loader.Len(),
			"pin_memory", loader.PinMemory(),
		)
	}

	if !a.Evaluate {
		return
	}

	net := nn.NewNet(p.DropoutRate)
	net.Eval()
	for _, split := range a.Splits {
		if err := evaluate(log, net, split, loaders[split]); err != nil {
			log.Fatalw("evaluating split", "split", split, "error", err)
		}
	}
}

// evaluate runs one full epoch of the loader through the network and logs
// the mean loss and the mean of every registered metric.
func evaluate(log *zap.SugaredLogger, net *nn.Net, split string, loader *dataset.Loader) error {
	bar := progressbar.NewOptions(loader.Len(),
		progressbar.OptionSetDescription("eval "+split),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("batches"),
	)

	var lossSum float64
	scores := make(map[string]float64, len(nn.Metrics))
	batches := 0
	for {
		batch, err := loader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		logits, err := net.Forward(batch.Images)
		if err != nil {
			return err
		}
		loss, err := nn.CrossEntropyLoss(logits, batch.Labels)
		if err != nil {
			return err
		}
		lossSum += float64(loss)
		for name, metric := range nn.Metrics {
			value, err := metric(logits, batch.Labels)
			if err != nil {
				return err
			}
			scores[name] += value
		}
		batches++
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	loader.Reset()

	if batches == 0 {
		log.Infow("split empty, nothing to evaluate", "split", split)
		return nil
	}
	fields := []interface{}{"split", split, "loss", lossSum / float64(batches)}
	for name, total := range scores {
		fields = append(fields, name, total/float64(batches))
	}
	log.Infow("evaluation done", fields...)
	return nil
}
