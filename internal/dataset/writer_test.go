package dataset

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docprep/donutprep/internal/donut"
	"github.com/docprep/donutprep/internal/srfund"
)

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// newRecords creates n records with real image files in a temp dir.
func newRecords(t *testing.T, n int) []*srfund.ParsedRecord {
	t.Helper()
	imagesDir := t.TempDir()

	records := make([]*srfund.ParsedRecord, n)
	for i := range records {
		name := fmt.Sprintf("%04d.png", i)
		path := filepath.Join(imagesDir, name)
		writePNG(t, path, 20, 30)

		parse := orderedmap.New()
		parse.Set("seq", fmt.Sprintf("%d", i))
		records[i] = &srfund.ParsedRecord{Image: name, ImagePath: path, Parse: parse}
	}
	return records
}

func recordNames(records []*srfund.ParsedRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Image
	}
	return names
}

func readMetadataLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestWriter_WritesCompleteLayout(t *testing.T) {
	records := newRecords(t, 10)
	assignment, err := Assign(recordNames(records), DefaultRatios(), 123)
	require.NoError(t, err)

	outRoot := filepath.Join(t.TempDir(), "dataset")
	w := &Writer{OutRoot: outRoot}

	result, err := w.Write(records, assignment)
	require.NoError(t, err)
	assert.Equal(t, 10, result.Total)
	assert.Equal(t, 7, result.Counts[Train])
	assert.Equal(t, 1, result.Counts[Validation])
	assert.Equal(t, 2, result.Counts[Test])

	seen := make(map[string]Split)
	for _, split := range Splits() {
		splitDir := filepath.Join(outRoot, string(split))
		lines := readMetadataLines(t, filepath.Join(splitDir, MetadataFileName))
		assert.Len(t, lines, result.Counts[split])

		for _, line := range lines {
			meta, gt, err := donut.DecodeLine([]byte(line))
			require.NoError(t, err)

			_, dup := seen[meta.FileName]
			require.False(t, dup, "%s written to more than one split", meta.FileName)
			seen[meta.FileName] = split

			assert.FileExists(t, filepath.Join(splitDir, meta.FileName))
			assert.Equal(t, []string{"seq"}, gt.GtParse.Keys())
		}
	}
	assert.Len(t, seen, len(records), "every record must land in exactly one split")
}

func TestWriter_GroundTruthRoundTrip(t *testing.T) {
	records := newRecords(t, 3)
	assignment, err := Assign(recordNames(records), Ratios{Train: 1}, 123)
	require.NoError(t, err)

	outRoot := filepath.Join(t.TempDir(), "dataset")
	_, err = (&Writer{OutRoot: outRoot}).Write(records, assignment)
	require.NoError(t, err)

	byImage := make(map[string]*srfund.ParsedRecord)
	for _, r := range records {
		byImage[r.Image] = r
	}

	lines := readMetadataLines(t, filepath.Join(outRoot, "train", MetadataFileName))
	require.Len(t, lines, 3)
	for _, line := range lines {
		meta, gt, err := donut.DecodeLine([]byte(line))
		require.NoError(t, err)

		record := byImage[meta.FileName]
		require.NotNil(t, record)
		require.Equal(t, record.Parse.Keys(), gt.GtParse.Keys())
		for _, key := range record.Parse.Keys() {
			want, _ := record.Parse.Get(key)
			got, _ := gt.GtParse.Get(key)
			assert.Equal(t, want, got)
		}
	}
}

func TestWriter_RefusesStaleOutput(t *testing.T) {
	records := newRecords(t, 2)
	assignment, err := Assign(recordNames(records), DefaultRatios(), 123)
	require.NoError(t, err)

	outRoot := t.TempDir()
	staleFile := filepath.Join(outRoot, "stale.txt")
	require.NoError(t, os.WriteFile(staleFile, []byte("old run"), 0o600))

	_, err = (&Writer{OutRoot: outRoot}).Write(records, assignment)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not empty")

	// Overwrite replaces the stale tree instead of merging into it.
	_, err = (&Writer{OutRoot: outRoot, Overwrite: true}).Write(records, assignment)
	require.NoError(t, err)
	assert.NoFileExists(t, staleFile)
}

func TestWriter_SequencedModeResizesAndWrapsSequence(t *testing.T) {
	records := newRecords(t, 2)
	assignment, err := Assign(recordNames(records), Ratios{Train: 1}, 123)
	require.NoError(t, err)

	outRoot := filepath.Join(t.TempDir(), "dataset")
	w := &Writer{
		OutRoot:      outRoot,
		Sequenced:    true,
		Task:         "SRFUND",
		TargetWidth:  64,
		TargetHeight: 80,
	}
	_, err = w.Write(records, assignment)
	require.NoError(t, err)

	lines := readMetadataLines(t, filepath.Join(outRoot, "train", MetadataFileName))
	require.Len(t, lines, 2)

	for _, line := range lines {
		meta, gt, err := donut.DecodeLine([]byte(line))
		require.NoError(t, err)

		seq, found := gt.GtParse.Get("text_sequence")
		require.True(t, found)
		assert.Contains(t, seq, "<s_SRFUND>")

		f, err := os.Open(filepath.Join(outRoot, "train", meta.FileName))
		require.NoError(t, err)
		img, err := png.Decode(f)
		require.NoError(t, f.Close())
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
		assert.Equal(t, 80, img.Bounds().Dy())
	}
}

func TestWriter_UnknownAssignedRecordFails(t *testing.T) {
	records := newRecords(t, 1)
	assignment := &Assignment{Names: map[Split][]string{
		Train: {"missing.png"},
	}}

	_, err := (&Writer{OutRoot: filepath.Join(t.TempDir(), "out")}).Write(records, assignment)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown record")
}
