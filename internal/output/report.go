package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/shopspring/decimal"
)

// ReportGenerator renders calculation results for the quoting workflow.
type ReportGenerator struct{}

// NewReportGenerator creates a new report generator.
func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{}
}

// Generate renders the result in the requested format.
func (rg *ReportGenerator) Generate(res *domain.TaxCalculationResult, format string, includeDebug bool) (string, error) {
	switch format {
	case "console", "":
		return rg.Console(res, includeDebug), nil
	case "json":
		return rg.JSON(res)
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// JSON renders the full result, debug trail included.
func (rg *ReportGenerator) JSON(res *domain.TaxCalculationResult) (string, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}

// Console renders a human-readable breakdown: the assembled base, each rate
// component on its own line, the lease split if present, and the
// reciprocity note.
func (rg *ReportGenerator) Console(res *domain.TaxCalculationResult, includeDebug bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("TAX CALCULATION - %s %s (rules v%d)\n", res.StateCode, res.DealType, res.RulesVersion))
	sb.WriteString(strings.Repeat("=", 64) + "\n")

	sb.WriteString(fmt.Sprintf("%-28s %12s\n", "Gross price", money(res.Base.GrossPrice)))
	if res.Base.TradeInAllowance.IsPositive() {
		sb.WriteString(fmt.Sprintf("%-28s %12s\n", "Trade-in allowance", "-"+money(res.Base.TradeInAllowance)))
	}
	if res.Base.RebateDeduction.IsPositive() {
		sb.WriteString(fmt.Sprintf("%-28s %12s\n", "Rebate deduction", "-"+money(res.Base.RebateDeduction)))
	}
	if res.Base.TaxableFees.IsPositive() {
		sb.WriteString(fmt.Sprintf("%-28s %12s\n", "Taxable fees", "+"+money(res.Base.TaxableFees)))
	}
	if res.Base.NegativeEquity.IsPositive() {
		sb.WriteString(fmt.Sprintf("%-28s %12s\n", "Negative equity", "+"+money(res.Base.NegativeEquity)))
	}
	sb.WriteString(fmt.Sprintf("%-28s %12s\n", "Taxable base", money(res.Base.TaxableBase)))
	sb.WriteString(strings.Repeat("-", 64) + "\n")

	for _, c := range res.Components {
		label := c.Label
		if c.Capped {
			label += " (capped)"
		}
		sb.WriteString(fmt.Sprintf("%-20s %8s%% %10s -> %12s\n",
			label, c.Rate.Mul(decimal.NewFromInt(100)).StringFixed(3), money(c.Base), money(c.Amount)))
	}

	if res.Lease != nil {
		sb.WriteString(strings.Repeat("-", 64) + "\n")
		sb.WriteString(fmt.Sprintf("%-28s %12s\n", "Upfront tax", money(res.Lease.UpfrontTax)))
		sb.WriteString(fmt.Sprintf("%-28s %12s x %d payments\n", "Per-payment tax", money(res.Lease.PerPaymentTax), res.Lease.PaymentCount))
		sb.WriteString(fmt.Sprintf("%-28s %12s\n", "Total tax over term", money(res.Lease.TotalTaxOverTerm)))
	}

	sb.WriteString(strings.Repeat("-", 64) + "\n")
	sb.WriteString(fmt.Sprintf("%-28s %12s\n", "Calculated tax", money(res.CalculatedTax)))
	if res.Reciprocity != nil {
		if res.Reciprocity.Evaluated {
			sb.WriteString(fmt.Sprintf("%-28s %12s\n", "Reciprocity credit", "-"+money(res.Reciprocity.Credit)))
		}
		sb.WriteString(fmt.Sprintf("Note: %s\n", res.Reciprocity.Note))
	}
	sb.WriteString(fmt.Sprintf("%-28s %12s\n", "TOTAL TAX", money(res.TotalTax)))

	if len(res.Warnings) > 0 {
		sb.WriteString(strings.Repeat("-", 64) + "\n")
		for _, w := range res.Warnings {
			sb.WriteString(fmt.Sprintf("WARNING [%s]: %s\n", w.Code, w.Message))
		}
	}

	if includeDebug {
		sb.WriteString(strings.Repeat("-", 64) + "\n")
		sb.WriteString("Debug trail:\n")
		for _, d := range res.Debug {
			sb.WriteString(formatDecision(d))
		}
		if res.Reciprocity != nil {
			for _, d := range res.Reciprocity.Debug {
				sb.WriteString(formatDecision(d))
			}
		}
	}
	return sb.String()
}

func formatDecision(d domain.DecisionRecord) string {
	if d.Detail == "" {
		return fmt.Sprintf("  %-24s %s\n", d.Step, d.Outcome)
	}
	return fmt.Sprintf("  %-24s %-12s %s\n", d.Step, d.Outcome, d.Detail)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
