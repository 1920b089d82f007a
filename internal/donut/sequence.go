package donut

import (
	"fmt"
	"strings"

	"github.com/keboola/go-utils/pkg/orderedmap"
)

// Sequence flattens a gt_parse into the Donut text-sequence form:
//
//	<s_TASK><s_key>value</s_key>...</s_TASK>
//
// Keys appear in parse order, which is the token order the model is
// trained to emit.
func Sequence(parse *orderedmap.OrderedMap, task string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<s_%s>", task)

	for _, key := range parse.Keys() {
		value, _ := parse.Get(key)
		cleanKey := strings.TrimSpace(key)
		cleanValue := strings.TrimSpace(fmt.Sprint(value))
		fmt.Fprintf(&b, "<s_%s>%s</s_%s>", cleanKey, cleanValue, cleanKey)
	}

	fmt.Fprintf(&b, "</s_%s>", task)
	return b.String()
}

// SequenceParse wraps the flattened sequence back into a gt_parse so
// sequenced metadata lines keep the same outer shape as plain ones.
func SequenceParse(parse *orderedmap.OrderedMap, task string) *orderedmap.OrderedMap {
	wrapped := orderedmap.New()
	wrapped.Set("text_sequence", Sequence(parse, task))
	return wrapped
}
