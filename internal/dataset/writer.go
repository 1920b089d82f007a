package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/docprep/donutprep/internal/donut"
	"github.com/docprep/donutprep/internal/imaging"
	"github.com/docprep/donutprep/internal/srfund"
)

const (
	// MetadataFileName is the per-split metadata file.
	MetadataFileName = "metadata.jsonl"

	dirPerm = 0o750
)

// Writer materializes an assignment under an output root:
// <root>/{train,validation,test}/metadata.jsonl plus sibling images.
type Writer struct {
	// OutRoot is the dataset output directory.
	OutRoot string

	// Overwrite removes an existing output root instead of failing.
	Overwrite bool

	// Sequenced switches the ground truth to the Donut text-sequence
	// form and resizes images instead of copying them byte-for-byte.
	Sequenced    bool
	Task         string
	TargetWidth  int
	TargetHeight int

	// Progress renders a progress bar on stderr during the write.
	Progress bool
}

// WriteResult reports what was written per split.
type WriteResult struct {
	Counts map[Split]int `json:"counts"`
	Total  int           `json:"total"`
}

// Write places every record into its assigned split. Records without
// an assignment (for example skipped during the walk that produced the
// assignment) are ignored; every assigned name must have a record.
func (w *Writer) Write(records []*srfund.ParsedRecord, assignment *Assignment) (*WriteResult, error) {
	if err := w.prepareRoot(); err != nil {
		return nil, err
	}

	byImage := make(map[string]*srfund.ParsedRecord, len(records))
	for _, r := range records {
		byImage[r.Image] = r
	}

	bar := w.newBar(assignment.Total())
	result := &WriteResult{Counts: make(map[Split]int)}

	for _, split := range Splits() {
		n, err := w.writeSplit(split, assignment.Names[split], byImage, bar)
		if err != nil {
			return nil, err
		}
		result.Counts[split] = n
		result.Total += n
	}

	return result, nil
}

// prepareRoot guards against mixing a new build into stale output.
func (w *Writer) prepareRoot() error {
	entries, err := os.ReadDir(w.OutRoot)
	switch {
	case os.IsNotExist(err):
		// fresh root
	case err != nil:
		return fmt.Errorf("cannot access output directory %s: %w", w.OutRoot, err)
	case len(entries) > 0 && !w.Overwrite:
		return fmt.Errorf("output directory %s is not empty; refusing to merge with existing data (use overwrite to rebuild)", w.OutRoot)
	case len(entries) > 0:
		if err := os.RemoveAll(w.OutRoot); err != nil {
			return fmt.Errorf("failed to clear output directory %s: %w", w.OutRoot, err)
		}
	}

	for _, split := range Splits() {
		if err := os.MkdirAll(filepath.Join(w.OutRoot, string(split)), dirPerm); err != nil {
			return fmt.Errorf("failed to create split directory: %w", err)
		}
	}
	return nil
}

func (w *Writer) writeSplit(split Split, names []string, byImage map[string]*srfund.ParsedRecord, bar *progressbar.ProgressBar) (int, error) {
	splitDir := filepath.Join(w.OutRoot, string(split))

	meta, err := os.Create(filepath.Join(splitDir, MetadataFileName))
	if err != nil {
		return 0, fmt.Errorf("failed to create %s metadata: %w", split, err)
	}
	defer meta.Close()

	written := 0
	for _, name := range names {
		record, ok := byImage[name]
		if !ok {
			return written, fmt.Errorf("assignment references unknown record %s", name)
		}

		parse := record.Parse
		if w.Sequenced {
			parse = donut.SequenceParse(record.Parse, w.Task)
		}

		line, err := donut.EncodeLine(record.Image, parse)
		if err != nil {
			return written, err
		}
		if _, err := meta.Write(line); err != nil {
			return written, fmt.Errorf("failed to write %s metadata: %w", split, err)
		}

		if err := w.placeImage(record, filepath.Join(splitDir, record.Image)); err != nil {
			return written, err
		}

		written++
		_ = bar.Add(1)
	}

	if err := meta.Close(); err != nil {
		return written, fmt.Errorf("failed to finalize %s metadata: %w", split, err)
	}
	return written, nil
}

func (w *Writer) placeImage(record *srfund.ParsedRecord, dst string) error {
	if w.Sequenced {
		if err := imaging.ResizeFile(record.ImagePath, dst, w.TargetWidth, w.TargetHeight); err != nil {
			return fmt.Errorf("failed to resize %s: %w", record.Image, err)
		}
		return nil
	}
	if err := copyFile(record.ImagePath, dst); err != nil {
		return fmt.Errorf("failed to copy %s: %w", record.Image, err)
	}
	return nil
}

func (w *Writer) newBar(total int) *progressbar.ProgressBar {
	if !w.Progress {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.Default(int64(total), "writing splits")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
