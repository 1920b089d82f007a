package donut

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keboola/go-utils/pkg/orderedmap"
)

// EncodeLine renders one metadata.jsonl line, trailing newline
// included. The parse is marshaled by hand: key order must survive and
// HTML escaping must stay off through both encoding passes so the
// Donut task tags ("<s_...>") come out verbatim.
func EncodeLine(fileName string, parse *orderedmap.OrderedMap) ([]byte, error) {
	var groundTruth bytes.Buffer
	groundTruth.WriteString(`{"gt_parse":`)
	if err := writeParse(&groundTruth, parse); err != nil {
		return nil, fmt.Errorf("failed to encode ground truth for %s: %w", fileName, err)
	}
	groundTruth.WriteByte('}')

	line, err := marshalCompact(MetadataLine{
		FileName:    fileName,
		GroundTruth: groundTruth.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata line for %s: %w", fileName, err)
	}

	return append(line, '\n'), nil
}

// DecodeLine re-inflates one metadata line, including the
// double-encoded ground truth. Used by the verifier and by round-trip
// tests.
func DecodeLine(line []byte) (*MetadataLine, *GroundTruth, error) {
	var meta MetadataLine
	if err := json.Unmarshal(line, &meta); err != nil {
		return nil, nil, fmt.Errorf("malformed metadata line: %w", err)
	}
	if meta.FileName == "" {
		return nil, nil, errors.New("metadata line has no file_name")
	}

	var gt GroundTruth
	if err := json.Unmarshal([]byte(meta.GroundTruth), &gt); err != nil {
		return &meta, nil, fmt.Errorf("malformed ground_truth for %s: %w", meta.FileName, err)
	}
	if gt.GtParse == nil {
		return &meta, nil, fmt.Errorf("ground_truth for %s has no gt_parse", meta.FileName)
	}

	return &meta, &gt, nil
}

// writeParse marshals an ordered parse as a JSON object, keys in
// insertion order, nested parses included.
func writeParse(buf *bytes.Buffer, parse *orderedmap.OrderedMap) error {
	buf.WriteByte('{')
	for i, key := range parse.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		encodedKey, err := marshalCompact(key)
		if err != nil {
			return err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')

		value, _ := parse.Get(key)
		if err := writeValue(buf, value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case *orderedmap.OrderedMap:
		return writeParse(buf, v)
	case orderedmap.OrderedMap:
		return writeParse(buf, &v)
	default:
		encoded, err := marshalCompact(v)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	}
}

// marshalCompact is json.Marshal without HTML escaping or the
// encoder's trailing newline.
func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
