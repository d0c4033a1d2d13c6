package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalAnalysis = `{
	"financial_health_score": 72,
	"metrics": {
		"total_income": 5000,
		"total_expense": 39.9,
		"savings_rate_percentage": 99,
		"discretionary_spending_percentage": 1,
		"runway_days_estimate": 3700
	},
	"breakdown_50_30_20": {"needs": 0, "wants": 39.9, "savings": 4960.1},
	"subscriptions": [{"name": "Netflix", "cost": 39.9, "frequency": "monthly"}],
	"categories": [{"name": "Lazer", "value": 39.9}],
	"daily_burn_rate": [],
	"insights": {
		"advice_text": "Tudo certo.",
		"wasteful_expenses": [],
		"largest_category": "Lazer",
		"anomaly_detected": null
	},
	"transactions": []
}`

func TestParseModelResponse(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		got, err := ParseModelResponse(minimalAnalysis)
		require.NoError(t, err)
		assert.Equal(t, 72.0, got.FinancialHealthScore)
		assert.Equal(t, 5000.0, got.Metrics.TotalIncome)
		assert.Nil(t, got.Insights.AnomalyDetected)
	})

	t.Run("json code fence", func(t *testing.T) {
		got, err := ParseModelResponse("```json\n" + minimalAnalysis + "\n```")
		require.NoError(t, err)
		assert.Equal(t, 72.0, got.FinancialHealthScore)
	})

	t.Run("bare code fence with whitespace", func(t *testing.T) {
		got, err := ParseModelResponse("  ```\n" + minimalAnalysis + "\n```  \n")
		require.NoError(t, err)
		assert.Equal(t, "Netflix", got.Subscriptions[0].Name)
	})

	t.Run("empty response", func(t *testing.T) {
		_, err := ParseModelResponse("   ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty response")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := ParseModelResponse("The analysis is: positive!")
		require.Error(t, err)
	})
}

func TestSnippet(t *testing.T) {
	short := "short response"
	assert.Equal(t, short, Snippet(short))

	long := strings.Repeat("x", responseSnippetLen+100)
	assert.Len(t, Snippet(long), responseSnippetLen)
}
