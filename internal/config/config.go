// Package config loads the training configuration from YAML and merges CLI
// overrides into it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Data formats understood by the CLI.
const (
	FormatPNG = "png" // root/<label>/<image> tree
	FormatIDX = "idx" // MNIST IDX image and label files
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataDir      string  `yaml:"data_dir"`
	Format       string  `yaml:"format"`
	ImagesFile   string  `yaml:"images_file"`
	LabelsFile   string  `yaml:"labels_file"`
	Resize       bool    `yaml:"resize"`
	Steps        int     `yaml:"steps"`
	LearningRate float32 `yaml:"learning_rate"`
	Momentum     float32 `yaml:"momentum"`
	Optimizer    string  `yaml:"optimizer"`
	Filters      int     `yaml:"filters"`
	LogEvery     int     `yaml:"log_every"`
	Seed         int64   `yaml:"seed"`
}

// Overrides captures CLI supplied values. Nil fields leave the config alone,
// so a flag can also reset a value to its zero (for example -momentum 0).
type Overrides struct {
	DataDir      *string
	Format       *string
	Resize       *bool
	Steps        *int
	LearningRate *float32
	Momentum     *float32
	Optimizer    *string
	LogEvery     *int
	Seed         *int64
}

// Default returns the reference setup: 30000 steps of plain SGD at 0.005
// over a PNG tree in ./mnist_png/training.
func Default() *Config {
	return &Config{
		DataDir:      "mnist_png/training",
		Format:       FormatPNG,
		ImagesFile:   "train-images-idx3-ubyte.gz",
		LabelsFile:   "train-labels-idx1-ubyte.gz",
		Steps:        30000,
		LearningRate: 0.005,
		Optimizer:    "sgd",
		Filters:      8,
		LogEvery:     100,
	}
}

// Load reads a Config from a YAML file on top of Default and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML from r on top of Default. Unknown keys are an error.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return cfg, nil
}

// ApplyOverrides copies every set override into c.
func (c *Config) ApplyOverrides(o Overrides) {
	set(&c.DataDir, o.DataDir)
	set(&c.Format, o.Format)
	set(&c.Resize, o.Resize)
	set(&c.Steps, o.Steps)
	set(&c.LearningRate, o.LearningRate)
	set(&c.Momentum, o.Momentum)
	set(&c.Optimizer, o.Optimizer)
	set(&c.LogEvery, o.LogEvery)
	set(&c.Seed, o.Seed)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	switch c.Format {
	case FormatPNG:
	case FormatIDX:
		if c.ImagesFile == "" || c.LabelsFile == "" {
			return errors.New("images_file and labels_file must be set for idx format")
		}
	default:
		return fmt.Errorf("format must be %q or %q (got %q)", FormatPNG, FormatIDX, c.Format)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be > 0 (got %d)", c.Steps)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %v)", c.LearningRate)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("momentum must be in [0, 1) (got %v)", c.Momentum)
	}
	switch c.Optimizer {
	case "sgd", "adam":
	default:
		return fmt.Errorf("optimizer must be \"sgd\" or \"adam\" (got %q)", c.Optimizer)
	}
	if c.Filters <= 0 {
		return fmt.Errorf("filters must be > 0 (got %d)", c.Filters)
	}
	if c.LogEvery <= 0 {
		return fmt.Errorf("log_every must be > 0 (got %d)", c.LogEvery)
	}
	return nil
}
