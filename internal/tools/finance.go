package tools

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// money formats dollar amounts with thousands separators.
var money = message.NewPrinter(language.English)

// CalculateCompoundInterest computes A = P(1 + r/n)^(nt) and formats a
// report. ratePct is the annual rate as a percentage. Invalid inputs return a
// descriptive string; like the other tools, errors are delivered in-band.
func CalculateCompoundInterest(principal, ratePct, years float64, compoundsPerYear int) string {
	if principal <= 0 || years <= 0 {
		return "Error calculating compound interest: principal and time must be positive numbers."
	}
	if compoundsPerYear <= 0 {
		return "Error calculating compound interest: compounds per year must be positive."
	}

	rate := ratePct / 100
	n := float64(compoundsPerYear)
	amount := principal * math.Pow(1+rate/n, n*years)
	interestEarned := amount - principal

	var b strings.Builder
	b.WriteString("Compound Interest Calculation:\n")
	money.Fprintf(&b, "- Principal Amount: $%.2f\n", principal)
	fmt.Fprintf(&b, "- Annual Interest Rate: %g%%\n", ratePct)
	fmt.Fprintf(&b, "- Time Period: %g years\n", years)
	fmt.Fprintf(&b, "- Compounding Frequency: %d times per year\n\n", compoundsPerYear)
	money.Fprintf(&b, "Final Amount: $%.2f\n", amount)
	money.Fprintf(&b, "Interest Earned: $%.2f\n", interestEarned)
	fmt.Fprintf(&b, "Total Return: %.2f%%", interestEarned/principal*100)
	return b.String()
}

// AnalyzeInvestmentReturns reports total return, total return percentage,
// CAGR, and average annual return for an investment.
func AnalyzeInvestmentReturns(initial, final, years float64) string {
	if initial <= 0 || years <= 0 {
		return "Error: Initial investment and years must be positive numbers."
	}

	totalReturn := final - initial
	totalReturnPct := totalReturn / initial * 100
	cagr := (math.Pow(final/initial, 1/years) - 1) * 100

	var b strings.Builder
	b.WriteString("Investment Return Analysis:\n")
	money.Fprintf(&b, "- Initial Investment: $%.2f\n", initial)
	money.Fprintf(&b, "- Final Value: $%.2f\n", final)
	fmt.Fprintf(&b, "- Time Period: %g years\n\n", years)
	money.Fprintf(&b, "Total Return: $%.2f (%.2f%%)\n", totalReturn, totalReturnPct)
	fmt.Fprintf(&b, "Compound Annual Growth Rate (CAGR): %.2f%%\n", cagr)
	fmt.Fprintf(&b, "Average Annual Return: %.2f%% per year", totalReturnPct/years)
	return b.String()
}

// CompoundInterestTool wraps CalculateCompoundInterest as a registrable agent tool.
func CompoundInterestTool() *Tool {
	return &Tool{
		Name:        "calculate_compound_interest",
		Description: "Calculate compound interest for investments. Useful when users ask about investment growth, savings calculations, or interest calculations.",
		Func: func(ctx context.Context, params map[string]any) (string, error) {
			principal, err := floatParam(params, "principal")
			if err != nil {
				return "", err
			}
			rate, err := floatParam(params, "rate")
			if err != nil {
				return "", err
			}
			years, err := floatParam(params, "time")
			if err != nil {
				return "", err
			}
			compounds, err := floatParamDefault(params, "compounds_per_year", 12)
			if err != nil {
				return "", err
			}
			return CalculateCompoundInterest(principal, rate, years, int(compounds)), nil
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"principal": map[string]any{
					"type":        "number",
					"description": "The initial investment amount in dollars",
				},
				"rate": map[string]any{
					"type":        "number",
					"description": "The annual interest rate as a percentage (e.g., 5 for 5%)",
				},
				"time": map[string]any{
					"type":        "number",
					"description": "The time period in years",
				},
				"compounds_per_year": map[string]any{
					"type":        "integer",
					"description": "Number of times interest is compounded per year (default: 12 for monthly)",
				},
			},
			"required": []string{"principal", "rate", "time"},
		},
	}
}

// InvestmentReturnsTool wraps AnalyzeInvestmentReturns as a registrable agent tool.
func InvestmentReturnsTool() *Tool {
	return &Tool{
		Name:        "analyze_investment_returns",
		Description: "Analyze investment returns and calculate metrics like CAGR and total return percentage. Use when users want to understand their investment performance.",
		Func: func(ctx context.Context, params map[string]any) (string, error) {
			initial, err := floatParam(params, "initial")
			if err != nil {
				return "", err
			}
			final, err := floatParam(params, "final")
			if err != nil {
				return "", err
			}
			years, err := floatParam(params, "years")
			if err != nil {
				return "", err
			}
			return AnalyzeInvestmentReturns(initial, final, years), nil
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"initial": map[string]any{
					"type":        "number",
					"description": "Initial investment amount in dollars",
				},
				"final": map[string]any{
					"type":        "number",
					"description": "Final investment value in dollars",
				},
				"years": map[string]any{
					"type":        "number",
					"description": "Number of years invested",
				},
			},
			"required": []string{"initial", "final", "years"},
		},
	}
}
