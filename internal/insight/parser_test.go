package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInsightPlainJSON(t *testing.T) {
	ins, structured := parseInsight(`{"summary":"Revenue is up.","recommendations":["Do A","Do B"]}`)
	assert.True(t, structured)
	assert.Equal(t, "Revenue is up.", ins.Summary)
	assert.Equal(t, []string{"Do A", "Do B"}, ins.Recommendations)
}

func TestParseInsightMarkdownFenced(t *testing.T) {
	text := "```json\n{\"summary\":\"Electronics dominates.\",\"recommendations\":[\"Bundle audio gear\"]}\n```"
	ins, structured := parseInsight(text)
	assert.True(t, structured)
	assert.Equal(t, "Electronics dominates.", ins.Summary)
	assert.Equal(t, []string{"Bundle audio gear"}, ins.Recommendations)
}

func TestParseInsightJSONWrappedInProse(t *testing.T) {
	text := "Sure! Here is the analysis you asked for:\n" +
		`{"summary":"Solid quarter.","recommendations":["Restock tablets"]}` +
		"\nLet me know if you need more."
	ins, structured := parseInsight(text)
	assert.True(t, structured)
	assert.Equal(t, "Solid quarter.", ins.Summary)
}

func TestParseInsightBracesInsideStrings(t *testing.T) {
	ins, structured := parseInsight(`{"summary":"Watch the \"{Audio}\" segment","recommendations":[]}`)
	assert.True(t, structured)
	assert.Equal(t, `Watch the "{Audio}" segment`, ins.Summary)
	assert.Empty(t, ins.Recommendations)
}

func TestParseInsightFallsBackToRawText(t *testing.T) {
	ins, structured := parseInsight("The model declined to answer in JSON today.")
	assert.False(t, structured)
	assert.Equal(t, "The model declined to answer in JSON today.", ins.Summary)
	require.NotNil(t, ins.Recommendations)
	assert.Empty(t, ins.Recommendations)
}

func TestParseInsightUndecodableObjectFallsBack(t *testing.T) {
	ins, structured := parseInsight(`{"summary": [not json}`)
	assert.False(t, structured)
	assert.Contains(t, ins.Summary, "not json")
	assert.Empty(t, ins.Recommendations)
}

func TestExtractObjectUnbalanced(t *testing.T) {
	_, ok := extractObject(`{"summary":"never closed`)
	assert.False(t, ok)
}
