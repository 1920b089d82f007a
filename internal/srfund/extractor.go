package srfund

import (
	"errors"
	"fmt"
	"strings"

	"github.com/keboola/go-utils/pkg/orderedmap"
)

// ErrNoAnnotations marks a document whose annotation list is empty or
// missing. Callers treat it as skippable.
var ErrNoAnnotations = errors.New("document has no annotations")

// Extractor maps a document's labeled regions and links to an ordered
// key-value ground-truth parse.
//
// SRFUND links regions pairwise: a question region linked to an answer
// region forms a key-value pair, and a header region linked to a
// question region forms a section pair. Pairs are emitted in link
// order; a key seen more than once gets a numeric suffix so no pair is
// lost.
type Extractor struct{}

// NewExtractor creates a new annotation extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract produces the ordered gt_parse for one document.
func (e *Extractor) Extract(doc *Document) (*Extraction, error) {
	if doc == nil || doc.Image == "" {
		return nil, errors.New("document is empty")
	}
	if len(doc.Annotations) == 0 {
		return nil, fmt.Errorf("%s: %w", doc.Image, ErrNoAnnotations)
	}

	idToText := make(map[int]string, len(doc.Annotations))
	idToLabel := make(map[int]string, len(doc.Annotations))
	counts := LabelCounts{}

	for _, a := range doc.Annotations {
		idToText[a.ID] = a.Text
		label := strings.ToLower(a.Label)
		idToLabel[a.ID] = label

		switch {
		case strings.Contains(label, "header"):
			counts.Header++
		case strings.Contains(label, "question"):
			counts.Question++
		case strings.Contains(label, "answer"):
			counts.Answer++
		default:
			counts.Other++
		}
	}

	parse := orderedmap.New()
	seen := make(map[[2]int]bool)

	// Links are resolved in annotation order so the parse is stable for
	// a given document. Malformed links (wrong arity) are ignored, as
	// are pairs whose label classes do not form a key-value relation.
	for _, a := range doc.Annotations {
		for _, link := range a.Linking {
			if len(link) != 2 {
				continue
			}

			pair := [2]int{link[0], link[1]}
			if seen[pair] {
				continue
			}
			seen[pair] = true

			fromLabel := idToLabel[link[0]]
			toLabel := idToLabel[link[1]]

			isPair := (strings.Contains(fromLabel, "question") && strings.Contains(toLabel, "answer")) ||
				(strings.Contains(fromLabel, "header") && strings.Contains(toLabel, "question"))
			if !isPair {
				continue
			}

			key := strings.TrimSpace(idToText[link[0]])
			value := strings.TrimSpace(idToText[link[1]])
			parse.Set(uniqueKey(parse, key), value)
		}
	}

	return &Extraction{
		Image:  doc.Image,
		Parse:  parse,
		Counts: counts,
		Pairs:  len(parse.Keys()),
	}, nil
}

// uniqueKey disambiguates duplicate keys with _1, _2, ... suffixes.
func uniqueKey(parse *orderedmap.OrderedMap, key string) string {
	if _, taken := parse.Get(key); !taken {
		return key
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", key, i)
		if _, taken := parse.Get(candidate); !taken {
			return candidate
		}
	}
}
