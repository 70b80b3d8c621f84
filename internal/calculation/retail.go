package calculation

import (
	"fmt"

	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/shopspring/decimal"
)

// RetailCalculator computes the taxable base and pre-credit tax for a
// one-time purchase.
//
// Base assembly order matters: trade-in allowance and non-taxable rebates
// come off the vehicle price first, taxable charges are added, the base is
// clamped at zero, and only then is the rate stack applied. Rate-tier
// selection uses the pre-deduction gross price throughout.
type RetailCalculator struct{}

// NewRetailCalculator creates a new retail calculator.
func NewRetailCalculator() *RetailCalculator {
	return &RetailCalculator{}
}

// Calculate builds the retail result into res: base breakdown, rate
// components and the pre-credit CalculatedTax.
func (rc *RetailCalculator) Calculate(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) {
	allowance := tradeInAllowance(rules.TradeIn, input.TradeInValue)
	res.AddDebug("trade_in", string(rules.TradeIn.Kind),
		fmt.Sprintf("value %s allowed %s", input.TradeInValue.StringFixed(2), allowance.StringFixed(2)))

	rebateDeduction := rc.rebateDeduction(rules, input, res)
	taxableFees, negEquity := rc.taxableCharges(rules, input, res)

	base := input.VehiclePrice.
		Sub(allowance).
		Sub(rebateDeduction).
		Add(taxableFees).
		Add(negEquity)
	base = clampNonNegative(base)

	res.Base = domain.BaseBreakdown{
		GrossPrice:       input.VehiclePrice,
		TradeInAllowance: allowance,
		RebateDeduction:  rebateDeduction,
		TaxableFees:      taxableFees,
		NegativeEquity:   negEquity,
		TaxableBase:      base,
	}

	// Tier determination uses the gross price, not the post-deduction base.
	res.Components = applyRateStack(&rules.Scheme, base, input.VehiclePrice)
	res.CalculatedTax = sumComponents(res.Components)

	if rules.Scheme.MinimumTax.IsPositive() && res.CalculatedTax.LessThan(rules.Scheme.MinimumTax) {
		res.AddDebug("minimum_tax", "applied",
			fmt.Sprintf("computed %s raised to floor %s", res.CalculatedTax.StringFixed(2), rules.Scheme.MinimumTax.StringFixed(2)))
		res.CalculatedTax = rules.Scheme.MinimumTax
	}
}

// rebateDeduction sums the rebates that reduce the base. A taxable rebate
// contributes nothing: tax is charged as if it never existed.
func (rc *RetailCalculator) rebateDeduction(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) decimal.Decimal {
	deduction := decimal.Zero
	for _, reb := range []struct {
		source domain.RebateSource
		amount decimal.Decimal
	}{
		{domain.RebateManufacturer, input.RebateManufacturer},
		{domain.RebateDealer, input.RebateDealer},
	} {
		if !reb.amount.IsPositive() {
			continue
		}
		taxable, matched := ClassifyRebate(rules, reb.source)
		if !matched {
			res.AddWarning(domain.WarnUnmatchedRebate,
				fmt.Sprintf("no rebate rule for %s in %s; rebate treated as taxable", reb.source, rules.StateCode))
		}
		if taxable {
			res.AddDebug("rebate", "taxable", fmt.Sprintf("%s %s kept in base", reb.source, reb.amount.StringFixed(2)))
			continue
		}
		res.AddDebug("rebate", "deducted", fmt.Sprintf("%s %s reduces base", reb.source, reb.amount.StringFixed(2)))
		deduction = deduction.Add(reb.amount)
	}
	return deduction
}

// taxableCharges sums the fee-type additions to the base, resolving each
// through the fee table. Unknown codes are flagged and excluded; silently
// taxing or exempting them both risk mis-taxation.
func (rc *RetailCalculator) taxableCharges(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) (fees, negEquity decimal.Decimal) {
	charges := []domain.FeeItem{
		{Code: domain.FeeDocFee, Amount: input.DocFee},
		{Code: domain.FeeAccessories, Amount: input.Accessories},
		{Code: domain.FeeServiceContract, Amount: input.ServiceContract},
		{Code: domain.FeeGap, Amount: input.GapInsurance},
		{Code: domain.FeeTitle, Amount: input.TitleFee},
		{Code: domain.FeeRegistration, Amount: input.RegistrationFee},
	}
	charges = append(charges, input.OtherFees...)

	fees = decimal.Zero
	for _, item := range charges {
		if !item.Amount.IsPositive() {
			continue
		}
		fc := ClassifyFee(rules, domain.DealRetail, item.Code)
		if !fc.Known {
			res.AddWarning(domain.WarnUnknownFeeCode,
				fmt.Sprintf("no fee rule for %s in %s; amount %s excluded from base", item.Code, rules.StateCode, item.Amount.StringFixed(2)))
			continue
		}
		if !fc.Taxable {
			continue
		}
		taxed := item.Amount.Mul(fc.Fraction)
		res.AddDebug("fee", "taxable", fmt.Sprintf("%s %s at fraction %s", item.Code, item.Amount.StringFixed(2), fc.Fraction.String()))
		fees = fees.Add(taxed)
	}

	negEquity = decimal.Zero
	if ne := input.NegativeEquity(); ne.IsPositive() {
		fc := ClassifyFee(rules, domain.DealRetail, domain.FeeNegativeEquity)
		switch {
		case !fc.Known:
			res.AddWarning(domain.WarnUnknownFeeCode,
				fmt.Sprintf("no fee rule for %s in %s; amount %s excluded from base", domain.FeeNegativeEquity, rules.StateCode, ne.StringFixed(2)))
		case fc.Taxable:
			negEquity = ne.Mul(fc.Fraction)
			res.AddDebug("negative_equity", "taxable", negEquity.StringFixed(2))
		}
	}
	return fees, negEquity
}
