package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraction(t *testing.T) {
	raw := `{"mission": "X", "coreValues": ["a"], "confidenceScores": {"mission": 0.7, "coreValues": 0.9, "overall": 0.7}}`

	extraction, err := parseExtraction(raw)
	require.NoError(t, err)

	assert.Equal(t, "X", extraction.Data["mission"])
	assert.NotContains(t, extraction.Data, "confidenceScores")
	assert.Equal(t, 0.7, extraction.Confidences["mission"])
	assert.Equal(t, 0.9, extraction.Confidences["coreValues"])
	assert.Equal(t, 0.7, extraction.Confidences["overall"])
}

func TestParseExtractionFencedJSON(t *testing.T) {
	raw := "```json\n{\"mission\": \"X\", \"confidenceScores\": {\"mission\": 0.8}}\n```"

	extraction, err := parseExtraction(raw)
	require.NoError(t, err)
	assert.Equal(t, "X", extraction.Data["mission"])
	assert.Equal(t, 0.8, extraction.Confidences["mission"])
}

func TestParseExtractionLeadingProse(t *testing.T) {
	raw := "Here is the extraction:\n{\"mission\": \"X\", \"confidenceScores\": {}}"

	extraction, err := parseExtraction(raw)
	require.NoError(t, err)
	assert.Equal(t, "X", extraction.Data["mission"])
	assert.Empty(t, extraction.Confidences)
}

func TestParseExtractionInvalidJSON(t *testing.T) {
	_, err := parseExtraction("not json at all")
	assert.Error(t, err)
}

func TestParseExtractionMissingScores(t *testing.T) {
	extraction, err := parseExtraction(`{"mission": "X"}`)
	require.NoError(t, err)
	assert.Empty(t, extraction.Confidences)
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced with language", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose prefix", "Sure:\n{\"a\":1}", `{"a":1}`},
		{"whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.in); got != tt.want {
				t.Errorf("cleanJSONResponse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
