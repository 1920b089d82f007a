// donut-build partitions parsed SRFUND records into train/validation/
// test splits and writes the Donut training layout: one metadata.jsonl
// per split with the images copied (or resized, in sequenced mode)
// next to it.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/spf13/pflag"

	"github.com/docprep/donutprep/internal/config"
	"github.com/docprep/donutprep/internal/dataset"
	"github.com/docprep/donutprep/internal/srfund"
)

var (
	version   = "dev"     // set by build flags
	buildTime = "unknown" // set by build flags
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags)

	cfg, err := config.LoadBuildConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("Build failed: %v", err)
	}
}

func run(cfg *config.BuildConfig) error {
	walker := newWalker(cfg)

	var records []*srfund.ParsedRecord
	stats, err := walker.Walk(func(record *srfund.ParsedRecord) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return err
	}
	for _, warning := range stats.Warnings {
		log.Printf("Warning: %s", warning)
	}
	log.Printf("Walked %d records (%d skipped)", stats.Walked, stats.Skipped)

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Image
	}

	ratios := dataset.Ratios{
		Train:      cfg.TrainRatio,
		Validation: cfg.ValidationRatio,
		Test:       cfg.TestRatio,
	}
	assignment, err := dataset.Assign(names, ratios, cfg.Seed)
	if err != nil {
		return err
	}

	writer := &dataset.Writer{
		OutRoot:      cfg.OutDir,
		Overwrite:    cfg.Overwrite,
		Sequenced:    cfg.Sequenced,
		Task:         cfg.Task,
		TargetWidth:  cfg.TargetWidth,
		TargetHeight: cfg.TargetHeight,
		Progress:     !cfg.Quiet,
	}
	result, err := writer.Write(records, assignment)
	if err != nil {
		return err
	}

	log.Printf("Split: train=%d validation=%d test=%d (total %d)",
		result.Counts[dataset.Train], result.Counts[dataset.Validation],
		result.Counts[dataset.Test], result.Total)
	log.Printf("Dataset written to %s", cfg.OutDir)
	return nil
}

func newWalker(cfg *config.BuildConfig) *srfund.Walker {
	if cfg.Annotations != "" {
		return srfund.NewRawWalker(cfg.Annotations, cfg.ImagesDir)
	}
	return srfund.NewParsedWalker(cfg.JSONDir, cfg.ImagesDir)
}

func printVersion() {
	fmt.Printf("donut-build\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
