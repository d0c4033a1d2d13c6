// Package analysis orchestrates one financial analysis request: identity,
// structural validation, credit gating, sanitization, the model call with
// retry, persistence and audit, in that order, so cheap checks always fail
// before expensive ones.
package analysis

// Anamnesis is the optional user profile block embedded in the prompt.
type Anamnesis struct {
	Age            int      `json:"age"`
	Occupation     string   `json:"occupation"`
	TotalInvested  float64  `json:"totalInvested"`
	FinancialGoals []string `json:"financialGoals"`
	FamilyStatus   string   `json:"familyStatus"`
}

// AIAnalysis is the strict JSON object the model must return.
type AIAnalysis struct {
	FinancialHealthScore float64         `json:"financial_health_score"`
	Metrics              Metrics         `json:"metrics"`
	Breakdown503020      Breakdown503020 `json:"breakdown_50_30_20"`
	Subscriptions        []Subscription  `json:"subscriptions"`
	Categories           []CategoryTotal `json:"categories"`
	DailyBurnRate        []DailyBurn     `json:"daily_burn_rate"`
	Insights             Insights        `json:"insights"`
	Transactions         []Transaction   `json:"transactions"`
}

// Metrics are the headline numbers of the report.
type Metrics struct {
	TotalIncome                     float64 `json:"total_income"`
	TotalExpense                    float64 `json:"total_expense"`
	SavingsRatePercentage           float64 `json:"savings_rate_percentage"`
	DiscretionarySpendingPercentage float64 `json:"discretionary_spending_percentage"`
	RunwayDaysEstimate              float64 `json:"runway_days_estimate"`
}

// Breakdown503020 splits expenses into needs/wants/savings.
type Breakdown503020 struct {
	Needs   float64 `json:"needs"`
	Wants   float64 `json:"wants"`
	Savings float64 `json:"savings"`
}

// Subscription is a recurring charge the model identified.
type Subscription struct {
	Name      string  `json:"name"`
	Cost      float64 `json:"cost"`
	Frequency string  `json:"frequency"`
}

// CategoryTotal is a spending category with its total.
type CategoryTotal struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DailyBurn is one point of the daily burn-rate series.
type DailyBurn struct {
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	Cumulative float64 `json:"cumulative"`
}

// ImmediateAction is one concrete recommendation.
type ImmediateAction struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Insights is the narrative section of the analysis.
type Insights struct {
	AdviceText       string            `json:"advice_text"`
	WastefulExpenses []string          `json:"wasteful_expenses"`
	LargestCategory  string            `json:"largest_category"`
	AnomalyDetected  *string           `json:"anomaly_detected"`
	ImmediateActions []ImmediateAction `json:"immediate_actions,omitempty"`
	MarketComparison string            `json:"market_comparison,omitempty"`
}

// Transaction is the model's per-row categorization.
type Transaction struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
}
