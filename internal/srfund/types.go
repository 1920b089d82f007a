package srfund

import (
	"encoding/json"

	"github.com/keboola/go-utils/pkg/orderedmap"
)

// Annotation is one labeled text region of a SRFUND document image.
// Linking holds [from_id, to_id] pairs connecting this region to other
// regions on the same page.
type Annotation struct {
	ID      int             `json:"id"`
	Text    string          `json:"text"`
	Label   string          `json:"label"`
	Lines   json.RawMessage `json:"lines,omitempty"`
	Linking [][]int         `json:"linking,omitempty"`
}

// Document is one raw dataset record: an image name plus all annotated
// regions on that image. Documents are read-only source data.
type Document struct {
	Image       string
	Annotations []Annotation
}

// AnnotationFile is the raw SRFUND instance-annotation format, a single
// JSON object mapping image file names to their annotation lists.
type AnnotationFile map[string][]Annotation

// ParsedRecord pairs an image with its extracted ground-truth parse.
// Immutable once produced by the extractor.
type ParsedRecord struct {
	Image     string                 `json:"image"`
	ImagePath string                 `json:"image_path"`
	Parse     *orderedmap.OrderedMap `json:"gt_parse"`
}

// LabelCounts tallies annotations by their SRFUND label class.
type LabelCounts struct {
	Header   int `json:"header"`
	Question int `json:"question"`
	Answer   int `json:"answer"`
	Other    int `json:"other"`
}

// Extraction is the result of extracting one document.
type Extraction struct {
	Image  string                 `json:"image"`
	Parse  *orderedmap.OrderedMap `json:"gt_parse"`
	Counts LabelCounts            `json:"label_counts"`
	Pairs  int                    `json:"pair_count"`
}
