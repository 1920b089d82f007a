// srfund-extract converts a SRFUND instance-annotation JSON into one
// gt_parse JSON file per image, ready for donut-build.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/docprep/donutprep/internal/config"
	"github.com/docprep/donutprep/internal/srfund"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags)

	cfg, err := config.LoadExtractConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}
}

func run(cfg *config.ExtractConfig) error {
	annotations, err := srfund.LoadAnnotationFile(cfg.Annotations)
	if err != nil {
		return err
	}

	images := annotations.Images()
	if cfg.Image != "" {
		if _, ok := annotations.Document(cfg.Image); !ok {
			return fmt.Errorf("image %s not found in %s", cfg.Image, cfg.Annotations)
		}
		images = []string{cfg.Image}
	}
	log.Printf("Found %d annotated images", len(images))

	extractor := srfund.NewExtractor()
	written := 0
	skipped := 0

	for _, image := range images {
		doc, _ := annotations.Document(image)

		extraction, err := extractor.Extract(doc)
		if err != nil {
			if errors.Is(err, srfund.ErrNoAnnotations) {
				log.Printf("Warning: skipping %s: %v", image, err)
				skipped++
				continue
			}
			return err
		}

		outName := strings.TrimSuffix(image, filepath.Ext(image)) + ".json"
		if err := srfund.WriteParseFile(filepath.Join(cfg.OutDir, outName), extraction.Parse); err != nil {
			return err
		}
		written++

		if written <= 3 {
			log.Printf("%s: %d pairs (headers=%d questions=%d answers=%d)",
				image, extraction.Pairs, extraction.Counts.Header,
				extraction.Counts.Question, extraction.Counts.Answer)
		}
	}

	log.Printf("Wrote %d gt_parse files to %s (%d skipped)", written, cfg.OutDir, skipped)
	return nil
}
