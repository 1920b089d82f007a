package donut

import (
	"strings"
	"testing"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeLine_RoundTrip(t *testing.T) {
	parse := orderedmap.New()
	parse.Set("invoice_no", "123")
	parse.Set("name", "Ada")

	line, err := EncodeLine("0001.png", parse)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(line), "\n"))

	meta, gt, err := DecodeLine(line)
	require.NoError(t, err)
	assert.Equal(t, "0001.png", meta.FileName)
	assert.Equal(t, []string{"invoice_no", "name"}, gt.GtParse.Keys())

	value, found := gt.GtParse.Get("invoice_no")
	require.True(t, found)
	assert.Equal(t, "123", value)
}

func TestEncodeLine_NoHTMLEscaping(t *testing.T) {
	parse := orderedmap.New()
	parse.Set("text_sequence", "<s_SRFUND><s_k>v</s_k></s_SRFUND>")

	line, err := EncodeLine("0001.png", parse)
	require.NoError(t, err)

	assert.Contains(t, string(line), "<s_SRFUND>")
	assert.NotContains(t, string(line), `<`)
	assert.NotContains(t, string(line), `>`)
}

func TestEncodeLine_UnicodePassthrough(t *testing.T) {
	parse := orderedmap.New()
	parse.Set("Stadt:", "München")

	line, err := EncodeLine("0002.png", parse)
	require.NoError(t, err)
	assert.Contains(t, string(line), "München")

	_, gt, err := DecodeLine(line)
	require.NoError(t, err)
	value, _ := gt.GtParse.Get("Stadt:")
	assert.Equal(t, "München", value)
}

func TestDecodeLine_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "not json", line: "garbage"},
		{name: "missing file_name", line: `{"ground_truth":"{\"gt_parse\":{}}"}`},
		{name: "ground_truth not json", line: `{"file_name":"a.png","ground_truth":"not-json"}`},
		{name: "missing gt_parse", line: `{"file_name":"a.png","ground_truth":"{\"other\":1}"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeLine([]byte(tt.line))
			require.Error(t, err)
		})
	}
}
