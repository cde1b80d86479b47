// Command digits trains a small convolutional network on MNIST digits.
//
// Usage:
//
//	digits [flags] [N]
//
// N is the number of training examples (default 30000). Progress is printed
// every 100 examples, followed by the average accuracy.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/born-ml/digits/internal/config"
	"github.com/born-ml/digits/internal/dataset"
	"github.com/born-ml/digits/internal/metrics"
	"github.com/born-ml/digits/internal/tensor"
	"github.com/born-ml/digits/internal/trainer"
)

func main() {
	cfgPath := registerFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [N]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	overrides := overridesFrom(flag.CommandLine)
	if n, err := trainingSize(flag.Args()); err != nil {
		log.Fatalf("invalid training size: %v", err)
	} else if n > 0 {
		overrides.Steps = &n
	}
	cfg.ApplyOverrides(overrides)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	src := tensor.NewSource(cfg.Seed)
	sampler, err := openSampler(cfg, src)
	if err != nil {
		log.Fatalf("failed to open dataset: %v", err)
	}

	tr, err := trainer.New(trainer.Config{
		Steps:        cfg.Steps,
		LearningRate: cfg.LearningRate,
		Momentum:     cfg.Momentum,
		Optimizer:    cfg.Optimizer,
		Filters:      cfg.Filters,
		Classes:      dataset.NumLabels,
		LogEvery:     cfg.LogEvery,
		Seed:         cfg.Seed,
		OnWindow: func(step int, snap metrics.Snapshot) {
			log.Printf("step=%d images/s=%.1f data=%.2fms compute=%.2fms",
				step, snap.ImagesPerSec, snap.AvgDataMS, snap.AvgComputeMS)
		},
	}, sampler, os.Stdout)
	if err != nil {
		log.Fatalf("failed to create trainer: %v", err)
	}
	log.Printf("network=%v steps=%d lr=%v optimizer=%s", tr.Network(), cfg.Steps, cfg.LearningRate, cfg.Optimizer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := tr.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("interrupted after %d steps", summary.Steps)
			stop()
			os.Exit(130)
		}
		log.Fatalf("training failed: %v", err)
	}
	log.Printf("done: %d steps in %v", summary.Steps, summary.Duration.Round(time.Millisecond))
}

// registerFlags defines the CLI flags on fs and returns the -config value.
func registerFlags(fs *flag.FlagSet) *string {
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	fs.String("data", "", "Override data directory")
	fs.String("format", "", "Data format: png (root/<label>/*) or idx")
	fs.Int("steps", 0, "Number of training examples")
	fs.Float64("lr", 0, "Learning rate")
	fs.Float64("momentum", 0, "SGD momentum")
	fs.String("optimizer", "", "Optimizer: sgd or adam")
	fs.Int64("seed", 0, "PRNG seed (0 = time-based)")
	fs.Int("log-every", 0, "Print progress every N steps")
	fs.Bool("resize", false, "Resize images that are not 28x28")
	return cfgPath
}

// overridesFrom turns the flags explicitly set on fs into config overrides,
// so "-momentum 0" or "-resize=false" can undo a config file value.
func overridesFrom(fs *flag.FlagSet) config.Overrides {
	var o config.Overrides
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.(flag.Getter).Get()
		switch f.Name {
		case "data":
			o.DataDir = ptr(v.(string))
		case "format":
			o.Format = ptr(v.(string))
		case "resize":
			o.Resize = ptr(v.(bool))
		case "steps":
			o.Steps = ptr(v.(int))
		case "lr":
			o.LearningRate = ptr(float32(v.(float64)))
		case "momentum":
			o.Momentum = ptr(float32(v.(float64)))
		case "optimizer":
			o.Optimizer = ptr(v.(string))
		case "log-every":
			o.LogEvery = ptr(v.(int))
		case "seed":
			o.Seed = ptr(v.(int64))
		}
	})
	return o
}

func ptr[T any](v T) *T { return &v }

// trainingSize parses the optional positional training size.
func trainingSize(args []string) (int, error) {
	switch len(args) {
	case 0:
		return 0, nil
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, err
		}
		if n <= 0 {
			return 0, fmt.Errorf("must be > 0 (got %d)", n)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected at most one argument, got %d", len(args))
	}
}

func openSampler(cfg *config.Config, src tensor.Source) (dataset.Sampler, error) {
	switch cfg.Format {
	case config.FormatIDX:
		s, err := dataset.NewIDXSampler(
			filepath.Join(cfg.DataDir, cfg.ImagesFile),
			filepath.Join(cfg.DataDir, cfg.LabelsFile),
			src,
		)
		if err != nil {
			return nil, err
		}
		logCounts(cfg.DataDir, s.Count)
		return s, nil
	default:
		s, err := dataset.NewDirSampler(cfg.DataDir, src, dataset.DecodeOptions{Resize: cfg.Resize})
		if err != nil {
			return nil, err
		}
		logCounts(cfg.DataDir, s.Count)
		return s, nil
	}
}

func logCounts(root string, count func(label int) int) {
	total := 0
	for label := 0; label < dataset.NumLabels; label++ {
		total += count(label)
	}
	log.Printf("root=%s images=%d", root, total)
}
