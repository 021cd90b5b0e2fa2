package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/skillpath/internal/llm"
	"github.com/abhisek/skillpath/internal/store"
)

// writeUsage prints per-model token usage with estimated cost. Models
// missing from the pricing table are listed and left out of the total.
func writeUsage(w io.Writer, usage []store.LLMUsage) {
	rule := strings.Repeat("─", 86)

	fmt.Fprintln(w, "Usage and Estimated Cost (USD)")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-32s  %6s  %6s  %10s  %10s  %8s  %9s\n",
		"Model", "Calls", "Failed", "Input", "Output", "Avg Ms", "Cost")
	fmt.Fprintln(w, rule)

	var (
		calls, failed     int
		totalIn, totalOut int64
		totalCost         float64
		unknown           []string
	)
	for _, u := range usage {
		calls += u.Requests
		failed += u.Failures
		totalIn += u.InputTokens
		totalOut += u.OutputTokens

		cost := "?"
		if mc, ok := llm.LookupCost(u.Model); ok {
			c := mc.Cost(u.InputTokens, u.OutputTokens)
			totalCost += c
			cost = formatCost(c)
		} else {
			unknown = append(unknown, u.Model)
		}
		fmt.Fprintf(w, "%-32s  %6d  %6d  %10d  %10d  %8.0f  %9s\n",
			truncate(u.Model, 32), u.Requests, u.Failures, u.InputTokens, u.OutputTokens, u.AvgLatencyMs, cost)
	}

	fmt.Fprintln(w, rule)
	label := "TOTAL"
	if len(unknown) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Fprintf(w, "%-32s  %6d  %6d  %10d  %10d  %8s  %9s\n",
		label, calls, failed, totalIn, totalOut, "", formatCost(totalCost))

	if len(unknown) > 0 {
		fmt.Fprintf(w, "\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
