// Package trainer drives stochastic gradient descent over the digit
// classifier, one example at a time.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/born-ml/digits/internal/dataset"
	"github.com/born-ml/digits/internal/metrics"
	"github.com/born-ml/digits/internal/nn"
	"github.com/born-ml/digits/internal/optim"
	"github.com/born-ml/digits/internal/tensor"
)

// ErrDiverged is returned when a forward pass produces non-finite probabilities.
var ErrDiverged = errors.New("training diverged: non-finite probabilities")

// Config captures the knobs required by the training loop.
type Config struct {
	Steps        int     // Number of training examples (T)
	LearningRate float32 // SGD step size
	Momentum     float32 // SGD momentum, 0 for plain SGD
	Optimizer    string  // "sgd" or "adam"
	Filters      int     // Number of 3x3 convolution filters
	Classes      int     // Number of labels, visited round-robin
	LogEvery     int     // Steps per progress line
	Seed         int64   // Parameter initialization seed, 0 for time-based

	// OnWindow, when set, receives every completed log window after its
	// progress line has been printed.
	OnWindow func(step int, snap metrics.Snapshot)
}

// DefaultConfig returns the reference training setup: 30000 examples, eight
// filters, ten classes and plain SGD at 0.005.
func DefaultConfig() Config {
	return Config{
		Steps:        30000,
		LearningRate: 0.005,
		Optimizer:    "sgd",
		Filters:      8,
		Classes:      dataset.NumLabels,
		LogEvery:     100,
	}
}

// Summary describes a finished (or interrupted) run.
type Summary struct {
	Steps    int           // Steps completed
	Correct  int           // Correct predictions in completed log windows
	Accuracy float64       // Correct / configured steps
	Duration time.Duration // Wall time of Run
}

// Trainer owns the network, the optimizer and the running metrics.
type Trainer struct {
	cfg     Config
	sampler dataset.Sampler
	out     io.Writer
	net     *nn.Network
	opt     optim.Optimizer
	labels  *dataset.RoundRobin
	window  metrics.Window
	total   metrics.Total
}

// New creates a trainer that draws examples from sampler and writes progress
// lines to out (discarded when nil).
func New(cfg Config, sampler dataset.Sampler, out io.Writer) (*Trainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, errors.New("trainer: sampler is nil")
	}
	if out == nil {
		out = io.Discard
	}

	opt, err := optim.New(cfg.Optimizer, cfg.LearningRate, cfg.Momentum)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}

	return &Trainer{
		cfg:     cfg,
		sampler: sampler,
		out:     out,
		net:     nn.NewNetwork(cfg.Filters, tensor.NewSource(cfg.Seed), cfg.Classes),
		opt:     opt,
		labels:  dataset.NewRoundRobin(cfg.Classes),
	}, nil
}

func (c Config) validate() error {
	if c.Steps <= 0 {
		return fmt.Errorf("trainer: steps must be > 0 (got %d)", c.Steps)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("trainer: learning rate must be > 0 (got %v)", c.LearningRate)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("trainer: momentum must be in [0, 1) (got %v)", c.Momentum)
	}
	if c.Filters <= 0 {
		return fmt.Errorf("trainer: filters must be > 0 (got %d)", c.Filters)
	}
	if c.Classes <= 0 || c.Classes > dataset.NumLabels {
		return fmt.Errorf("trainer: classes must be in [1, %d] (got %d)", dataset.NumLabels, c.Classes)
	}
	if c.LogEvery <= 0 {
		return fmt.Errorf("trainer: log_every must be > 0 (got %d)", c.LogEvery)
	}
	return nil
}

// Run executes cfg.Steps training steps.
//
// Every LogEvery steps it prints " step: {i} loss: {avg} accuracy: {count}",
// and at the end "average accuracy:- {correct/steps}%". A sampler error or
// divergence stops the run immediately; cancellation is checked between steps.
func (t *Trainer) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{}

	for step := 0; step < t.cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		label := t.labels.Next()

		startData := time.Now()
		img, err := t.sampler.Sample(label)
		if err != nil {
			return summary, fmt.Errorf("step %d: sample label %d: %w", step, label, err)
		}
		dataTime := time.Since(startData)

		startCompute := time.Now()
		loss, correct, err := t.Step(img, label)
		if err != nil {
			return summary, fmt.Errorf("step %d: %w", step, err)
		}
		computeTime := time.Since(startCompute)

		t.window.Record(loss, correct, dataTime, computeTime)
		summary.Steps++

		if step%t.cfg.LogEvery == t.cfg.LogEvery-1 {
			snap := t.window.Snapshot()
			fmt.Fprintf(t.out, " step: %d loss: %v accuracy: %d\n", step, snap.AvgLoss, snap.Correct)
			t.total.Add(snap)
			if t.cfg.OnWindow != nil {
				t.cfg.OnWindow(step, snap)
			}
		}
	}

	summary.Correct = t.total.Correct
	summary.Accuracy = t.total.Accuracy(t.cfg.Steps)
	summary.Duration = time.Since(start)
	fmt.Fprintf(t.out, "average accuracy:- %v%%\n", summary.Accuracy)

	return summary, nil
}

// Step runs one forward and backward pass on img and returns the
// cross-entropy loss and whether the prediction was label.
//
// ErrDiverged is returned, before any update, if the probabilities are not
// finite.
func (t *Trainer) Step(img *tensor.Matrix, label int) (float32, bool, error) {
	trace := t.net.Forward(img)
	if !trace.Probs.IsFinite() {
		return 0, false, ErrDiverged
	}

	loss := nn.CrossEntropy(trace.Probs, label)
	correct := nn.Correct(trace.Probs, label)

	t.net.Backward(trace, nn.CrossEntropyGrad(trace.Probs, label), t.opt)

	return loss, correct, nil
}

// Network returns the network being trained.
func (t *Trainer) Network() *nn.Network {
	return t.net
}
