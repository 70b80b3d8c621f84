package calculation

import (
	"testing"

	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// leaseRules builds a flat 6% jurisdiction with the given lease method and
// every lease axis off unless a test flips it.
func leaseRules(method domain.LeaseMethod) *domain.TaxRulesConfig {
	return &domain.TaxRulesConfig{
		StateCode: "OH",
		Version:   1,
		TradeIn:   domain.TradeInPolicy{Kind: domain.TradeInFull},
		Scheme:    domain.VehicleTaxScheme{StateRate: decimal.NewFromFloat(0.06)},
		Lease: domain.LeaseTaxRules{
			Method:         method,
			RebateBehavior: domain.LeaseRebateNeverTaxable,
			TradeInCredit:  domain.LeaseTradeInNone,
		},
	}
}

func leaseInput() *domain.TaxCalculationInput {
	return &domain.TaxCalculationInput{
		DealType:  domain.DealLease,
		StateCode: "OH",
		Lease: &domain.LeaseInput{
			GrossCapCost: decimal.NewFromInt(30000),
			BasePayment:  decimal.NewFromInt(400),
			TermMonths:   36,
		},
	}
}

func leaseResult(t *testing.T, rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput) *domain.TaxCalculationResult {
	t.Helper()
	res := &domain.TaxCalculationResult{DealType: domain.DealLease, StateCode: rules.StateCode, RulesVersion: rules.Version}
	NewLeaseCalculator().Calculate(rules, input, res)
	return res
}

func TestLeaseMonthly(t *testing.T) {
	rules := leaseRules(domain.LeaseMonthly)
	input := leaseInput()

	res := leaseResult(t, rules, input)
	assert.Equal(t, "24.00", res.Lease.PerPaymentTax.StringFixed(2))
	assert.Equal(t, "0.00", res.Lease.UpfrontTax.StringFixed(2))
	assert.Equal(t, "864.00", res.Lease.TotalTaxOverTerm.StringFixed(2))
	assert.Equal(t, 36, res.Lease.PaymentCount)
}

func TestLeaseMonthlyCapReductionTaxed(t *testing.T) {
	// Cap reductions usually just lower the payment; with TaxCapReduction
	// the money itself is taxed once upfront.
	rules := leaseRules(domain.LeaseMonthly)
	rules.Lease.TaxCapReduction = true
	input := leaseInput()
	input.Lease.CapReductions.Cash = decimal.NewFromInt(2000)

	res := leaseResult(t, rules, input)
	assert.Equal(t, "120.00", res.Lease.UpfrontTax.StringFixed(2))
	assert.Equal(t, "24.00", res.Lease.PerPaymentTax.StringFixed(2))
	assert.Equal(t, "984.00", res.Lease.TotalTaxOverTerm.StringFixed(2))
}

func TestLeaseFullUpfrontAdjustedCapCost(t *testing.T) {
	rules := leaseRules(domain.LeaseFullUpfront)
	rules.Lease.TradeInCredit = domain.LeaseTradeInFull
	input := leaseInput()
	input.Lease.CapReductions = domain.CapReductions{
		Cash:        decimal.NewFromInt(3000),
		Rebate:      decimal.NewFromInt(2000),
		TradeEquity: decimal.NewFromInt(5000),
	}

	res := leaseResult(t, rules, input)
	// 30000 - 3000 - 2000 - 5000 = 20000 taxed once.
	assert.Equal(t, "20000.00", res.Lease.UpfrontBase.StringFixed(2))
	assert.Equal(t, "1200.00", res.Lease.UpfrontTax.StringFixed(2))
	assert.Equal(t, "0.00", res.Lease.PerPaymentTax.StringFixed(2))
	assert.Equal(t, "1200.00", res.Lease.TotalTaxOverTerm.StringFixed(2))
}

func TestLeaseFullUpfrontTotalOfPayments(t *testing.T) {
	rules := leaseRules(domain.LeaseFullUpfront)
	rules.Lease.UpfrontBase = domain.UpfrontTotalOfPayments
	input := leaseInput()

	res := leaseResult(t, rules, input)
	// 400 x 36 = 14400 taxed once at 6%.
	assert.Equal(t, "14400.00", res.Lease.UpfrontBase.StringFixed(2))
	assert.Equal(t, "864.00", res.Lease.TotalTaxOverTerm.StringFixed(2))
}

func TestLeaseHybrid(t *testing.T) {
	// Upfront tax on the reduction plus an independent monthly tax.
	rules := leaseRules(domain.LeaseHybrid)
	input := leaseInput()
	input.Lease.CapReductions.Cash = decimal.NewFromInt(2000)

	res := leaseResult(t, rules, input)
	assert.Equal(t, "120.00", res.Lease.UpfrontTax.StringFixed(2))
	assert.Equal(t, "24.00", res.Lease.PerPaymentTax.StringFixed(2))
	assert.Equal(t, "984.00", res.Lease.TotalTaxOverTerm.StringFixed(2))
}

func TestLeaseNetCapCostAndReducedBase(t *testing.T) {
	tests := []struct {
		name            string
		method          domain.LeaseMethod
		reducedPercent  decimal.Decimal
		expectedUpfront string
	}{
		{name: "NET_CAP_COST taxes the adjusted cap cost", method: domain.LeaseNetCapCost, expectedUpfront: "1500.00"},
		{name: "REDUCED_BASE taxes the designated portion", method: domain.LeaseReducedBase, reducedPercent: decimal.NewFromFloat(0.7), expectedUpfront: "1050.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := leaseRules(tt.method)
			rules.Lease.ReducedBasePercent = tt.reducedPercent
			input := leaseInput()
			input.Lease.CapReductions.Cash = decimal.NewFromInt(5000)

			res := leaseResult(t, rules, input)
			// Adjusted cap cost 25000; REDUCED_BASE takes 70% of it.
			assert.Equal(t, tt.expectedUpfront, res.Lease.UpfrontTax.StringFixed(2))
			assert.Equal(t, "0.00", res.Lease.PerPaymentTax.StringFixed(2))
		})
	}
}

func TestLeaseRateTierFixedAtSigning(t *testing.T) {
	// The tier keys off the gross cap cost, not the payment or the reduced
	// base, and applies to both components.
	rules := leaseRules(domain.LeaseHybrid)
	rules.Scheme.RateTiers = []domain.RateTier{
		{Label: "luxury", Threshold: decimal.NewFromInt(50000), Rate: decimal.NewFromFloat(0.08)},
	}
	input := leaseInput()
	input.Lease.GrossCapCost = decimal.NewFromInt(60000)
	input.Lease.BasePayment = decimal.NewFromInt(500)
	input.Lease.CapReductions.Cash = decimal.NewFromInt(1000)

	res := leaseResult(t, rules, input)
	// Both the upfront reduction and each payment tax at the luxury 8%.
	assert.Equal(t, "80.00", res.Lease.UpfrontTax.StringFixed(2))
	assert.Equal(t, "40.00", res.Lease.PerPaymentTax.StringFixed(2))
}

func TestLeaseTradeInAppliedToPayment(t *testing.T) {
	rules := leaseRules(domain.LeaseMonthly)
	rules.Lease.TradeInCredit = domain.LeaseTradeInToPayment
	input := leaseInput()
	input.Lease.CapReductions.TradeEquity = decimal.NewFromInt(3600)

	res := leaseResult(t, rules, input)
	// 3600 / 36 = 100 off each payment: (400-100) x 6%.
	assert.Equal(t, "300.00", res.Lease.PerPaymentBase.StringFixed(2))
	assert.Equal(t, "18.00", res.Lease.PerPaymentTax.StringFixed(2))
}

func TestLeaseTradeInFollowsRetailRule(t *testing.T) {
	rules := leaseRules(domain.LeaseNetCapCost)
	rules.Lease.TradeInCredit = domain.LeaseTradeInFollowRetail
	rules.TradeIn = domain.TradeInPolicy{Kind: domain.TradeInCapped, CapAmount: decimal.NewFromInt(2000)}
	input := leaseInput()
	input.Lease.CapReductions.TradeEquity = decimal.NewFromInt(5000)

	res := leaseResult(t, rules, input)
	// Retail CAPPED policy limits the equity deduction to 2000.
	assert.Equal(t, "28000.00", res.Lease.UpfrontBase.StringFixed(2))
}

func TestLeaseDocFeeAxisIndependentOfRetail(t *testing.T) {
	// Retail exempts the doc fee; the lease axis taxes it anyway.
	rules := leaseRules(domain.LeaseMonthly)
	rules.FeeRules = []domain.FeeTaxRule{{Code: domain.FeeDocFee, Taxable: false}}
	rules.Lease.DocFeeTaxable = true
	input := leaseInput()
	input.DocFee = decimal.NewFromInt(500)

	res := leaseResult(t, rules, input)
	assert.Equal(t, "30.00", res.Lease.UpfrontTax.StringFixed(2))
}

func TestLeaseTitleFeePlacements(t *testing.T) {
	tests := []struct {
		name            string
		placement       domain.TitleFeePlacement
		expectedUpfront string
		expectedPerPmt  string
	}{
		{
			name:            "Upfront placement taxes it at signing",
			placement:       domain.TitleFeePlacement{Upfront: true},
			expectedUpfront: "21.60",
			expectedPerPmt:  "24.00",
		},
		{
			name:            "Monthly placement spreads it across payments",
			placement:       domain.TitleFeePlacement{Monthly: true},
			expectedUpfront: "0.00",
			expectedPerPmt:  "24.60",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := leaseRules(domain.LeaseMonthly)
			rules.Lease.TitleFeeRules = tt.placement
			input := leaseInput()
			input.TitleFee = decimal.NewFromInt(360)

			res := leaseResult(t, rules, input)
			assert.Equal(t, tt.expectedUpfront, res.Lease.UpfrontTax.StringFixed(2))
			assert.Equal(t, tt.expectedPerPmt, res.Lease.PerPaymentTax.StringFixed(2))
		})
	}
}

func TestLeaseNegativeEquityTaxable(t *testing.T) {
	rules := leaseRules(domain.LeaseNetCapCost)
	rules.Lease.NegativeEquityTaxable = true
	input := leaseInput()
	input.TradeInValue = decimal.NewFromInt(4000)
	input.TradeInPayoff = decimal.NewFromInt(6500)

	res := leaseResult(t, rules, input)
	// 30000 + 2500 rolled-in negative equity.
	assert.Equal(t, "32500.00", res.Lease.UpfrontBase.StringFixed(2))
}

func TestLeaseSpecialSchemes(t *testing.T) {
	t.Run("FULL_CONSIDERATION ignores reductions", func(t *testing.T) {
		rules := leaseRules(domain.LeaseMonthly)
		rules.Lease.SpecialScheme = domain.SchemeFullConsideration
		input := leaseInput()
		input.Lease.CapReductions.Cash = decimal.NewFromInt(5000)

		res := leaseResult(t, rules, input)
		assert.Equal(t, "30000.00", res.Lease.UpfrontBase.StringFixed(2))
		assert.Equal(t, "1800.00", res.Lease.TotalTaxOverTerm.StringFixed(2))
	})

	t.Run("PAYMENTS_PLUS_REDUCTION always taxes reductions", func(t *testing.T) {
		rules := leaseRules(domain.LeaseMonthly)
		rules.Lease.SpecialScheme = domain.SchemePaymentsPlusReduction
		// TaxCapReduction deliberately left false; the scheme taxes anyway.
		input := leaseInput()
		input.Lease.CapReductions.Cash = decimal.NewFromInt(2000)

		res := leaseResult(t, rules, input)
		assert.Equal(t, "120.00", res.Lease.UpfrontTax.StringFixed(2))
		assert.Equal(t, "24.00", res.Lease.PerPaymentTax.StringFixed(2))
	})
}

func TestLeaseRebateBehaviorAxes(t *testing.T) {
	tests := []struct {
		name         string
		behavior     domain.LeaseRebateBehavior
		retailRebate bool // retail rebate rule taxable?
		expectedBase string
	}{
		{name: "NEVER_TAXABLE deducts the rebate", behavior: domain.LeaseRebateNeverTaxable, expectedBase: "28000.00"},
		{name: "ALWAYS_TAXABLE keeps it in the base", behavior: domain.LeaseRebateAlwaysTaxable, expectedBase: "30000.00"},
		{name: "FOLLOW_RETAIL_RULE deducts when retail exempts", behavior: domain.LeaseRebateFollowRetail, retailRebate: false, expectedBase: "28000.00"},
		{name: "FOLLOW_RETAIL_RULE keeps it when retail taxes", behavior: domain.LeaseRebateFollowRetail, retailRebate: true, expectedBase: "30000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := leaseRules(domain.LeaseNetCapCost)
			rules.Lease.RebateBehavior = tt.behavior
			rules.RebateRules = []domain.RebateRule{
				{AppliesTo: domain.RebateManufacturer, Taxable: tt.retailRebate},
			}
			input := leaseInput()
			input.Lease.CapReductions.Rebate = decimal.NewFromInt(2000)

			res := leaseResult(t, rules, input)
			assert.Equal(t, tt.expectedBase, res.Lease.UpfrontBase.StringFixed(2))
		})
	}
}

func TestLeaseMinimumTaxFloor(t *testing.T) {
	rules := leaseRules(domain.LeaseMonthly)
	rules.Scheme.MinimumTax = decimal.NewFromInt(1000)
	input := leaseInput()

	res := leaseResult(t, rules, input)
	assert.Equal(t, "1000.00", res.CalculatedTax.StringFixed(2))
	assert.Equal(t, "1000.00", res.Lease.TotalTaxOverTerm.StringFixed(2))
}
