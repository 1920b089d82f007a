package srfund

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/keboola/go-utils/pkg/orderedmap"
)

// RecordFunc receives one parsed record during a walk. Returning an
// error aborts the walk; per-record extraction problems never reach it.
type RecordFunc func(record *ParsedRecord) error

// WalkStats summarizes one pass over the dataset.
type WalkStats struct {
	Walked   int      `json:"walked"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *WalkStats) skip(format string, args ...any) {
	s.Skipped++
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// Walker iterates a dataset in sorted image order, yielding one
// ParsedRecord per image. A record with a malformed annotation or a
// missing image is skipped with a warning; only an unreadable root
// aborts the walk. Walks keep no state, so re-invoking Walk restarts
// from the beginning.
type Walker struct {
	// AnnotationsPath points at a raw instance-annotation JSON. When
	// set, records are produced by running the extractor per image.
	AnnotationsPath string

	// JSONDir points at a directory of per-image gt_parse JSON files,
	// the output of a previous extraction run. Used when
	// AnnotationsPath is empty.
	JSONDir string

	// ImagesDir holds the source images referenced by the annotations.
	ImagesDir string

	extractor *Extractor
}

// NewRawWalker walks a raw instance-annotation file, extracting each
// image's parse on the fly.
func NewRawWalker(annotationsPath, imagesDir string) *Walker {
	return &Walker{
		AnnotationsPath: annotationsPath,
		ImagesDir:       imagesDir,
		extractor:       NewExtractor(),
	}
}

// NewParsedWalker walks a directory of per-image gt_parse JSON files.
func NewParsedWalker(jsonDir, imagesDir string) *Walker {
	return &Walker{
		JSONDir:   jsonDir,
		ImagesDir: imagesDir,
	}
}

// Walk produces every record once, in sorted image order.
func (w *Walker) Walk(fn RecordFunc) (*WalkStats, error) {
	if w.AnnotationsPath != "" {
		return w.walkRaw(fn)
	}
	return w.walkParsed(fn)
}

func (w *Walker) walkRaw(fn RecordFunc) (*WalkStats, error) {
	af, err := LoadAnnotationFile(w.AnnotationsPath)
	if err != nil {
		return nil, err
	}

	stats := &WalkStats{}
	for _, image := range af.Images() {
		doc, _ := af.Document(image)

		extraction, err := w.extractor.Extract(doc)
		if err != nil {
			stats.skip("skipping %s: %v", image, err)
			continue
		}

		record, ok := w.resolveImage(image, extraction.Parse, stats)
		if !ok {
			continue
		}
		if err := fn(record); err != nil {
			return stats, err
		}
		stats.Walked++
	}

	return stats, nil
}

func (w *Walker) walkParsed(fn RecordFunc) (*WalkStats, error) {
	entries, err := os.ReadDir(w.JSONDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory %s: %w", w.JSONDir, err)
	}

	stats := &WalkStats{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		parse, err := readParseFile(filepath.Join(w.JSONDir, entry.Name()))
		if err != nil {
			stats.skip("skipping %s: %v", entry.Name(), err)
			continue
		}

		image := strings.TrimSuffix(entry.Name(), ".json") + ".png"
		record, ok := w.resolveImage(image, parse, stats)
		if !ok {
			continue
		}
		if err := fn(record); err != nil {
			return stats, err
		}
		stats.Walked++
	}

	return stats, nil
}

// resolveImage checks that the referenced image exists on disk. Missing
// images are skippable per-record failures.
func (w *Walker) resolveImage(image string, parse *orderedmap.OrderedMap, stats *WalkStats) (*ParsedRecord, bool) {
	imagePath := filepath.Join(w.ImagesDir, image)
	if _, err := os.Stat(imagePath); err != nil {
		stats.skip("skipping %s: image not found at %s", image, imagePath)
		return nil, false
	}
	return &ParsedRecord{Image: image, ImagePath: imagePath, Parse: parse}, true
}

func readParseFile(path string) (*orderedmap.OrderedMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parse := orderedmap.New()
	if err := json.Unmarshal(data, parse); err != nil {
		return nil, fmt.Errorf("malformed gt_parse JSON: %w", err)
	}
	return parse, nil
}

// WriteParseFile writes one image's gt_parse as indented JSON, keys in
// extraction order, without HTML escaping.
func WriteParseFile(path string, parse *orderedmap.OrderedMap) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(parse); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
