package gemini

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demand-forecast-engine/internal/narrative"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"markdown fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", `Here you go: {"a":{"b":2}} hope it helps`, `{"a":{"b":2}}`},
		{"no object", "sorry, no data", ""},
		{"mismatched braces", "} {", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSON(tc.raw))
		})
	}
}

func TestForecastInsightsDecoding(t *testing.T) {
	raw := "```json\n" + `{"key_trends":["demand rising"],"business_recommendations":["increase capacity"],"risk_factors":["supply volatility"],"opportunities":["weekend promotions"],"confidence_score":0.82}` + "\n```"

	var insights narrative.ForecastInsights
	require.NoError(t, json.Unmarshal([]byte(extractJSON(raw)), &insights))
	assert.Equal(t, []string{"demand rising"}, insights.KeyTrends)
	assert.InDelta(t, 0.82, insights.ConfidenceScore, 1e-9)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}
