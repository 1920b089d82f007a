// Package donut models the metadata format consumed by Donut-style
// fine-tuning: one metadata.jsonl per split, one line per image, with
// the ground truth double-encoded as a JSON string.
package donut

import (
	"github.com/keboola/go-utils/pkg/orderedmap"
)

// GroundTruth is the object encoded into a metadata line's
// ground_truth string.
type GroundTruth struct {
	GtParse *orderedmap.OrderedMap `json:"gt_parse"`
}

// MetadataLine is one line of a split's metadata.jsonl. GroundTruth
// holds the compact JSON encoding of a GroundTruth value, not the
// object itself. Lines are written once and never mutated.
type MetadataLine struct {
	FileName    string `json:"file_name"`
	GroundTruth string `json:"ground_truth"`
}
