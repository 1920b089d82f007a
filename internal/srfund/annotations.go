package srfund

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// LoadAnnotationFile reads a SRFUND instance-annotation JSON file and
// returns the image → annotations mapping it contains.
func LoadAnnotationFile(path string) (AnnotationFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation file: %w", err)
	}
	defer f.Close()

	var af AnnotationFile
	dec := json.NewDecoder(f)
	if err := dec.Decode(&af); err != nil {
		return nil, fmt.Errorf("failed to parse annotation file %s: %w", path, err)
	}

	return af, nil
}

// Images returns the image names in the file in sorted order. The raw
// file's object order is not reproducible through a Go map, so callers
// always iterate the sorted list.
func (af AnnotationFile) Images() []string {
	images := make([]string, 0, len(af))
	for name := range af {
		images = append(images, name)
	}
	sort.Strings(images)
	return images
}

// Document returns the record for a single image.
func (af AnnotationFile) Document(image string) (*Document, bool) {
	annotations, ok := af[image]
	if !ok {
		return nil, false
	}
	return &Document{Image: image, Annotations: annotations}, true
}
