package calculation

import (
	"testing"

	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyFee(t *testing.T) {
	rules := &domain.TaxRulesConfig{
		StateCode: "TN",
		FeeRules: []domain.FeeTaxRule{
			{Code: domain.FeeDocFee, Taxable: true},
			{Code: domain.FeeServiceContract, Taxable: true, TaxableFraction: decimal.NewFromFloat(0.5)},
			{Code: domain.FeeTitle, Taxable: false},
		},
		Lease: domain.LeaseTaxRules{
			FeeRules: []domain.FeeTaxRule{
				{Code: domain.FeeServiceContract, Taxable: false},
			},
		},
	}

	tests := []struct {
		name         string
		deal         domain.DealType
		code         domain.FeeCode
		wantTaxable  bool
		wantKnown    bool
		wantFraction decimal.Decimal
	}{
		{
			name:         "Retail taxable doc fee",
			deal:         domain.DealRetail,
			code:         domain.FeeDocFee,
			wantTaxable:  true,
			wantKnown:    true,
			wantFraction: decimal.NewFromInt(1),
		},
		{
			name:         "Partial fraction service contract",
			deal:         domain.DealRetail,
			code:         domain.FeeServiceContract,
			wantTaxable:  true,
			wantKnown:    true,
			wantFraction: decimal.NewFromFloat(0.5),
		},
		{
			name:         "Non-taxable title fee",
			deal:         domain.DealRetail,
			code:         domain.FeeTitle,
			wantTaxable:  false,
			wantKnown:    true,
			wantFraction: decimal.NewFromInt(1),
		},
		{
			name:      "Unknown code fails closed",
			deal:      domain.DealRetail,
			code:      domain.FeeCode("ETCH"),
			wantKnown: false,
		},
		{
			name:         "Lease rule shadows retail rule",
			deal:         domain.DealLease,
			code:         domain.FeeServiceContract,
			wantTaxable:  false,
			wantKnown:    true,
			wantFraction: decimal.NewFromInt(1),
		},
		{
			name:         "Lease falls through to retail table",
			deal:         domain.DealLease,
			code:         domain.FeeDocFee,
			wantTaxable:  true,
			wantKnown:    true,
			wantFraction: decimal.NewFromInt(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := ClassifyFee(rules, tt.deal, tt.code)
			assert.Equal(t, tt.wantKnown, fc.Known)
			if !tt.wantKnown {
				return
			}
			assert.Equal(t, tt.wantTaxable, fc.Taxable)
			assert.True(t, fc.Fraction.Equal(tt.wantFraction),
				"expected fraction %s, got %s", tt.wantFraction, fc.Fraction)
		})
	}
}

func TestClassifyRebate(t *testing.T) {
	tests := []struct {
		name        string
		rules       []domain.RebateRule
		source      domain.RebateSource
		wantTaxable bool
		wantMatched bool
	}{
		{
			name: "Specific rule wins over ANY",
			rules: []domain.RebateRule{
				{AppliesTo: domain.RebateAny, Taxable: true},
				{AppliesTo: domain.RebateManufacturer, Taxable: false},
			},
			source:      domain.RebateManufacturer,
			wantTaxable: false,
			wantMatched: true,
		},
		{
			name: "Falls back to ANY",
			rules: []domain.RebateRule{
				{AppliesTo: domain.RebateAny, Taxable: false},
			},
			source:      domain.RebateDealer,
			wantTaxable: false,
			wantMatched: true,
		},
		{
			name:        "No rule at all taxes the rebate",
			rules:       nil,
			source:      domain.RebateManufacturer,
			wantTaxable: true,
			wantMatched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := &domain.TaxRulesConfig{StateCode: "OH", RebateRules: tt.rules}
			taxable, matched := ClassifyRebate(rules, tt.source)
			assert.Equal(t, tt.wantTaxable, taxable)
			assert.Equal(t, tt.wantMatched, matched)
		})
	}
}
