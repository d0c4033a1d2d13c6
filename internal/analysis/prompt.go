package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/finglow/finglow/internal/ingest"
)

// maxPromptRows bounds how many sanitized rows are embedded in the prompt;
// the grounding total still covers every row.
const maxPromptRows = 500

var familyStatusLabels = map[string]string{
	"single":        "Solteiro(a)",
	"married":       "Casado(a)",
	"married_kids":  "Casado(a) com Filhos",
	"single_parent": "Pai/Mãe Solo",
}

// BuildPrompt assembles the analysis prompt: persona, optional anamnesis
// block, the rounded grounding total that stops the model from inventing a
// currency conversion, the strict output schema, and the sanitized rows.
func BuildPrompt(rows []ingest.Row, anamnesis *Anamnesis) (string, error) {
	groundingTotal := math.Round(ingest.AbsoluteTotal(rows))

	promptRows := rows
	if len(promptRows) > maxPromptRows {
		promptRows = promptRows[:maxPromptRows]
	}
	rowsJSON, err := json.MarshalIndent(promptRows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("analysis.BuildPrompt: marshal rows: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an expert Personal CFO and Data Scientist specializing in the Brazilian financial market.\n")
	b.WriteString("Analyze the following CSV transaction data to generate a comprehensive financial health report.\n\n")

	if anamnesis != nil {
		writeAnamnesisSection(&b, anamnesis)
	}

	b.WriteString("CRITICAL INSTRUCTION ON LANGUAGE AND CURRENCY:\n")
	b.WriteString("1. **Detect Language:** Check the transaction descriptions.\n")
	b.WriteString("2. **Currency Context:**\n")
	b.WriteString("   - If descriptions are Portuguese or involve BRL, **ASSUME BRAZILIAN REAL (BRL)**.\n")
	b.WriteString("   - **DO NOT convert to USD.** Keep numeric values raw.\n")
	b.WriteString("   - Use \"R$\" in text output.\n\n")

	b.WriteString("*** IMPORTANT MATH GROUNDING ***\n")
	fmt.Fprintf(&b, "The sum of absolute values in the provided data is approximately **%.0f**.\n", groundingTotal)
	fmt.Fprintf(&b, "- Your calculated (Total Income + Total Expenses) should be in the magnitude of **%.0f**.\n", groundingTotal)
	b.WriteString("- Do not divide values by any exchange rate. Treat the input numbers as the final currency units.\n\n")

	b.WriteString("IMPORTANT: You must respond with a valid JSON object only, no markdown formatting, no extra text.\n\n")
	b.WriteString(outputSchema)

	b.WriteString("\nAnalysis Requirements:\n")
	b.WriteString("1. **Financial Health Score (0-100):** Be strict. <50 is poor, >80 is excellent.\n")
	b.WriteString("2. **Subscriptions:** Identify recurring charges (Netflix, Spotify, Smart Fit, iFood, Uber, etc.).\n")
	b.WriteString("3. **Categories:** Group expenses intelligently (Moradia, Alimentação, Transporte, Lazer, Saúde, etc.).\n")
	b.WriteString("4. **50/30/20 Rule:** Accurately split expenses into needs/wants/savings.\n")
	b.WriteString("5. **Wasteful Expenses:** Identify small leaks that add up.\n")
	b.WriteString("6. **Immediate Actions:** Provide 4-5 concrete, actionable recommendations.\n")
	b.WriteString("7. **Advice Text:** Write in Portuguese. 3 paragraphs covering overall status, spending habits, and path to goals.\n\n")

	fmt.Fprintf(&b, "Financial data to analyze (%d transactions", len(rows))
	if len(rows) > maxPromptRows {
		fmt.Fprintf(&b, ", showing first %d for context", maxPromptRows)
	}
	b.WriteString("):\n")
	b.Write(rowsJSON)

	return b.String(), nil
}

func writeAnamnesisSection(b *strings.Builder, a *Anamnesis) {
	familyStatus := familyStatusLabels[a.FamilyStatus]
	if familyStatus == "" {
		familyStatus = a.FamilyStatus
	}

	b.WriteString("USER PROFILE (ANAMNESIS):\n")
	fmt.Fprintf(b, "- Age: %d\n", a.Age)
	fmt.Fprintf(b, "- Occupation: %s\n", a.Occupation)
	fmt.Fprintf(b, "- Family Status: %s\n", familyStatus)
	fmt.Fprintf(b, "- Declared Investments: R$ %.2f\n", a.TotalInvested)
	fmt.Fprintf(b, "- Primary Goals: %s\n\n", strings.Join(a.FinancialGoals, ", "))
}

const outputSchema = `JSON structure must be exactly:
{
  "financial_health_score": number (0-100),
  "metrics": {
    "total_income": number,
    "total_expense": number,
    "savings_rate_percentage": number (0-100),
    "discretionary_spending_percentage": number (0-100),
    "runway_days_estimate": number
  },
  "breakdown_50_30_20": {
    "needs": number,
    "wants": number,
    "savings": number
  },
  "subscriptions": [
    { "name": string, "cost": number, "frequency": "monthly" | "yearly" }
  ],
  "categories": [
    { "name": string, "value": number }
  ],
  "daily_burn_rate": [
    { "date": string (YYYY-MM-DD), "amount": number, "cumulative": number }
  ],
  "insights": {
    "advice_text": string (comprehensive advice, 3-4 paragraphs),
    "wasteful_expenses": string[] (specific items with amounts),
    "largest_category": string,
    "anomaly_detected": string | null,
    "immediate_actions": [
      { "title": string, "description": string, "type": "danger" | "warning" | "success" }
    ],
    "market_comparison": string (optional, compare to market averages)
  },
  "transactions": [
    { "id": string, "description": string, "category": string, "date": string, "amount": number }
  ]
}
`
