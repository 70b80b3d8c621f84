package output

import (
	"encoding/json"
	"testing"

	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *domain.TaxCalculationResult {
	return &domain.TaxCalculationResult{
		DealType:     domain.DealRetail,
		StateCode:    "KY",
		RulesVersion: 3,
		Base: domain.BaseBreakdown{
			GrossPrice:       decimal.NewFromInt(25000),
			TradeInAllowance: decimal.NewFromInt(5000),
			TaxableBase:      decimal.NewFromInt(20000),
		},
		Components: []domain.RateComponentTax{
			{Label: "state", Rate: decimal.NewFromFloat(0.06), Base: decimal.NewFromInt(20000), Amount: decimal.NewFromInt(1200)},
		},
		CalculatedTax: decimal.NewFromInt(1200),
		TotalTax:      decimal.NewFromInt(1200),
		Warnings: []domain.Warning{
			{Code: domain.WarnUnknownFeeCode, Message: "no fee rule for ETCH in KY"},
		},
		Debug: []domain.DecisionRecord{
			{Step: "trade_in", Outcome: "FULL", Detail: "allowance 5000.00"},
		},
	}
}

func TestConsoleReport(t *testing.T) {
	out := NewReportGenerator().Console(sampleResult(), false)
	assert.Contains(t, out, "KY RETAIL (rules v3)")
	assert.Contains(t, out, "$25000.00")
	assert.Contains(t, out, "-$5000.00")
	assert.Contains(t, out, "TOTAL TAX")
	assert.Contains(t, out, "$1200.00")
	assert.Contains(t, out, "WARNING [UNKNOWN_FEE_CODE]")
	assert.NotContains(t, out, "Debug trail")
}

func TestConsoleReportWithDebug(t *testing.T) {
	out := NewReportGenerator().Console(sampleResult(), true)
	assert.Contains(t, out, "Debug trail:")
	assert.Contains(t, out, "trade_in")
}

func TestConsoleReportLeaseAndReciprocity(t *testing.T) {
	res := sampleResult()
	res.DealType = domain.DealLease
	res.Lease = &domain.LeaseBreakdown{
		UpfrontTax:       decimal.NewFromInt(120),
		PerPaymentTax:    decimal.NewFromInt(24),
		PaymentCount:     36,
		TotalTaxOverTerm: decimal.NewFromInt(984),
	}
	res.Reciprocity = &domain.ReciprocityOutcome{
		Evaluated:     true,
		CreditAllowed: true,
		Credit:        decimal.NewFromInt(700),
		Note:          "credit of 700.00 allowed for tax paid to TN",
	}

	out := NewReportGenerator().Console(res, false)
	assert.Contains(t, out, "x 36 payments")
	assert.Contains(t, out, "Reciprocity credit")
	assert.Contains(t, out, "Note: credit of 700.00 allowed for tax paid to TN")
}

func TestJSONReportRoundTrips(t *testing.T) {
	out, err := NewReportGenerator().Generate(sampleResult(), "json", true)
	require.NoError(t, err)

	var decoded domain.TaxCalculationResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "KY", decoded.StateCode)
	assert.True(t, decoded.TotalTax.Equal(decimal.NewFromInt(1200)))
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	_, err := NewReportGenerator().Generate(sampleResult(), "xml", false)
	assert.Error(t, err)
}
