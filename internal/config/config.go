package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for all environment overrides, e.g.
	// DONUTPREP_SEED.
	EnvPrefix = "DONUTPREP"

	// Default split parameters, matching the published SRFUND
	// preparation: 70/15/15 with a fixed shuffle seed.
	DefaultTrainRatio      = 0.7
	DefaultValidationRatio = 0.15
	DefaultTestRatio       = 0.15
	DefaultSeed            = 123

	// DefaultTask names the Donut task wrapped around sequenced
	// ground truths.
	DefaultTask = "SRFUND"

	// Default target geometry for sequenced image resizing.
	DefaultTargetWidth  = 960
	DefaultTargetHeight = 1280

	// DefaultDirPerm is used when creating output directories.
	DefaultDirPerm = 0o750
)

// ExtractConfig configures srfund-extract: raw instance-annotation
// JSON in, one gt_parse JSON per image out.
type ExtractConfig struct {
	Annotations string // path to the instance-annotation JSON
	OutDir      string // directory for per-image gt_parse files
	Image       string // optional: restrict to a single image
}

// BuildConfig configures donut-build: parsed records in, split
// directory tree with metadata.jsonl files out.
type BuildConfig struct {
	Annotations string // raw annotation JSON (extract on the fly)
	JSONDir     string // or: directory of per-image gt_parse files
	ImagesDir   string
	OutDir      string

	TrainRatio      float64
	ValidationRatio float64
	TestRatio       float64
	Seed            int64

	Sequenced    bool
	Task         string
	TargetWidth  int
	TargetHeight int

	Overwrite bool
	Quiet     bool
}

// VerifyConfig configures donut-verify.
type VerifyConfig struct {
	DatasetRoot string
}

// DefaultExtractConfig returns extraction defaults.
func DefaultExtractConfig() *ExtractConfig {
	return &ExtractConfig{}
}

// DefaultBuildConfig returns build defaults matching the original
// SRFUND preparation run.
func DefaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		TrainRatio:      DefaultTrainRatio,
		ValidationRatio: DefaultValidationRatio,
		TestRatio:       DefaultTestRatio,
		Seed:            DefaultSeed,
		Task:            DefaultTask,
		TargetWidth:     DefaultTargetWidth,
		TargetHeight:    DefaultTargetHeight,
	}
}

// DefaultVerifyConfig returns verification defaults.
func DefaultVerifyConfig() *VerifyConfig {
	return &VerifyConfig{}
}

// LoadExtractConfig parses args into an extraction configuration.
func LoadExtractConfig(args []string) (*ExtractConfig, error) {
	cfg := DefaultExtractConfig()

	flags := pflag.NewFlagSet("srfund-extract", pflag.ContinueOnError)
	flags.String("annotations", cfg.Annotations, "Path to the SRFUND instance-annotation JSON file")
	flags.String("out", cfg.OutDir, "Output directory for per-image gt_parse JSON files")
	flags.String("image", cfg.Image, "Restrict extraction to a single image, e.g. 0001.png")

	v, err := parseFlags(flags, args)
	if err != nil {
		return nil, err
	}

	cfg.Annotations = v.GetString("annotations")
	cfg.OutDir = v.GetString("out")
	cfg.Image = v.GetString("image")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadBuildConfig parses args into a build configuration.
func LoadBuildConfig(args []string) (*BuildConfig, error) {
	cfg := DefaultBuildConfig()

	flags := pflag.NewFlagSet("donut-build", pflag.ContinueOnError)
	flags.String("annotations", cfg.Annotations, "Raw instance-annotation JSON (extract while building)")
	flags.String("jsons", cfg.JSONDir, "Directory of per-image gt_parse JSON files")
	flags.String("images", cfg.ImagesDir, "Directory containing the dataset images")
	flags.String("out", cfg.OutDir, "Output root for the split dataset")
	flags.Float64("train", cfg.TrainRatio, "Training split ratio")
	flags.Float64("validation", cfg.ValidationRatio, "Validation split ratio")
	flags.Float64("test", cfg.TestRatio, "Test split ratio")
	flags.Int64("seed", cfg.Seed, "Shuffle seed for the split assignment")
	flags.Bool("sequenced", cfg.Sequenced, "Emit Donut text-sequence ground truth and resize images")
	flags.String("task", cfg.Task, "Task name for sequenced ground truth tags")
	flags.Int("width", cfg.TargetWidth, "Target image width (sequenced mode)")
	flags.Int("height", cfg.TargetHeight, "Target image height (sequenced mode)")
	flags.Bool("overwrite", cfg.Overwrite, "Replace an existing output directory")
	flags.Bool("quiet", cfg.Quiet, "Disable the progress bar")

	v, err := parseFlags(flags, args)
	if err != nil {
		return nil, err
	}

	cfg.Annotations = v.GetString("annotations")
	cfg.JSONDir = v.GetString("jsons")
	cfg.ImagesDir = v.GetString("images")
	cfg.OutDir = v.GetString("out")
	cfg.TrainRatio = v.GetFloat64("train")
	cfg.ValidationRatio = v.GetFloat64("validation")
	cfg.TestRatio = v.GetFloat64("test")
	cfg.Seed = v.GetInt64("seed")
	cfg.Sequenced = v.GetBool("sequenced")
	cfg.Task = v.GetString("task")
	cfg.TargetWidth = v.GetInt("width")
	cfg.TargetHeight = v.GetInt("height")
	cfg.Overwrite = v.GetBool("overwrite")
	cfg.Quiet = v.GetBool("quiet")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadVerifyConfig parses args into a verification configuration.
func LoadVerifyConfig(args []string) (*VerifyConfig, error) {
	cfg := DefaultVerifyConfig()

	flags := pflag.NewFlagSet("donut-verify", pflag.ContinueOnError)
	flags.String("dataset", cfg.DatasetRoot, "Root of a built dataset to verify")

	v, err := parseFlags(flags, args)
	if err != nil {
		return nil, err
	}

	cfg.DatasetRoot = v.GetString("dataset")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseFlags parses the command line and returns a viper instance with
// the flag set bound under the shared environment prefix, so any flag
// can also be set via DONUTPREP_<NAME>.
func parseFlags(flags *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	return v, nil
}

// Validate checks the extraction configuration.
func (c *ExtractConfig) Validate() error {
	if c.Annotations == "" {
		return errors.New("annotations path cannot be empty")
	}
	if err := mustBeFile(c.Annotations); err != nil {
		return err
	}
	if c.OutDir == "" {
		return errors.New("output directory cannot be empty")
	}
	return ensureDir(&c.OutDir)
}

// Validate checks the build configuration.
func (c *BuildConfig) Validate() error {
	switch {
	case c.Annotations == "" && c.JSONDir == "":
		return errors.New("either an annotations file or a gt_parse directory is required")
	case c.Annotations != "" && c.JSONDir != "":
		return errors.New("annotations file and gt_parse directory are mutually exclusive")
	case c.Annotations != "":
		if err := mustBeFile(c.Annotations); err != nil {
			return err
		}
	default:
		if err := mustBeDir(c.JSONDir); err != nil {
			return err
		}
	}

	if c.ImagesDir == "" {
		return errors.New("images directory cannot be empty")
	}
	if err := mustBeDir(c.ImagesDir); err != nil {
		return err
	}
	if c.OutDir == "" {
		return errors.New("output directory cannot be empty")
	}

	for _, r := range []float64{c.TrainRatio, c.ValidationRatio, c.TestRatio} {
		if r < 0 || r > 1 {
			return fmt.Errorf("split ratio %v is outside [0, 1]", r)
		}
	}
	if sum := c.TrainRatio + c.ValidationRatio + c.TestRatio; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("split ratios must sum to 1, got %v", sum)
	}

	if c.Sequenced {
		if c.Task == "" {
			return errors.New("task name cannot be empty in sequenced mode")
		}
		if c.TargetWidth <= 0 || c.TargetHeight <= 0 {
			return fmt.Errorf("invalid target size %dx%d", c.TargetWidth, c.TargetHeight)
		}
	}

	return nil
}

// Validate checks the verification configuration.
func (c *VerifyConfig) Validate() error {
	if c.DatasetRoot == "" {
		return errors.New("dataset root cannot be empty")
	}
	return mustBeDir(c.DatasetRoot)
}

func mustBeFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file", path)
	}
	return nil
}

func mustBeDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// ensureDir expands the path and creates the directory if missing.
func ensureDir(path *string) error {
	if expanded, err := filepath.Abs(*path); err == nil {
		*path = expanded
	}
	if err := os.MkdirAll(*path, DefaultDirPerm); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", *path, err)
	}
	return nil
}
