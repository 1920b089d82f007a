// donut-verify structurally validates a built Donut dataset: every
// metadata line must decode, its ground truth must round-trip to a
// gt_parse, the referenced image must exist in the split, and no image
// may appear in more than one split.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/docprep/donutprep/internal/config"
	"github.com/docprep/donutprep/internal/dataset"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags)

	cfg, err := config.LoadVerifyConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Failed to load configuration: %v", err)
	}

	report, err := dataset.Verify(cfg.DatasetRoot)
	if err != nil {
		log.Fatalf("Verification failed: %v", err)
	}

	for _, split := range dataset.Splits() {
		sr := report.Splits[split]
		fmt.Printf("%-10s %6d lines, %d decode errors, %d missing images, %d empty parses\n",
			split, sr.Lines, sr.DecodeErrors, sr.MissingImages, sr.EmptyParses)
	}
	fmt.Printf("total      %6d records\n", report.Total)

	if !report.OK() {
		for _, p := range report.Problems {
			fmt.Fprintf(os.Stderr, "Problem: %s\n", p)
		}
		os.Exit(1)
	}
	fmt.Println("OK")
}
