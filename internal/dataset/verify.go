package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docprep/donutprep/internal/donut"
)

// SplitReport summarizes one split during verification.
type SplitReport struct {
	Lines         int `json:"lines"`
	DecodeErrors  int `json:"decode_errors"`
	MissingImages int `json:"missing_images"`
	EmptyParses   int `json:"empty_parses"`
}

// Report is the outcome of verifying a built dataset tree.
type Report struct {
	Splits   map[Split]*SplitReport `json:"splits"`
	Total    int                    `json:"total"`
	Problems []string               `json:"problems,omitempty"`
}

// OK reports whether the tree passed every structural check.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

func (r *Report) problem(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Verify re-reads a built dataset and checks the structural invariants
// the writer guarantees: every metadata line decodes, its ground truth
// carries a gt_parse, the referenced image sits next to the metadata
// file, and no image appears in more than one split.
func Verify(root string) (*Report, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("cannot access dataset root %s: %w", root, err)
	}

	report := &Report{Splits: make(map[Split]*SplitReport)}
	seen := make(map[string]Split)

	for _, split := range Splits() {
		sr, err := verifySplit(root, split, seen, report)
		if err != nil {
			return nil, err
		}
		report.Splits[split] = sr
		report.Total += sr.Lines
	}

	return report, nil
}

func verifySplit(root string, split Split, seen map[string]Split, report *Report) (*SplitReport, error) {
	sr := &SplitReport{}
	splitDir := filepath.Join(root, string(split))
	metaPath := filepath.Join(splitDir, MetadataFileName)

	f, err := os.Open(metaPath)
	if err != nil {
		report.problem("%s: missing %s", split, MetadataFileName)
		return sr, nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		sr.Lines++

		meta, gt, err := donut.DecodeLine(scanner.Bytes())
		if err != nil {
			sr.DecodeErrors++
			report.problem("%s line %d: %v", split, lineNo, err)
			continue
		}

		if len(gt.GtParse.Keys()) == 0 {
			sr.EmptyParses++
		}

		if prev, dup := seen[meta.FileName]; dup {
			report.problem("%s appears in both %s and %s", meta.FileName, prev, split)
		} else {
			seen[meta.FileName] = split
		}

		if _, err := os.Stat(filepath.Join(splitDir, meta.FileName)); err != nil {
			sr.MissingImages++
			report.problem("%s line %d: image %s not found in split", split, lineNo, meta.FileName)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", metaPath, err)
	}

	return sr, nil
}
