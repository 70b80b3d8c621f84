package calculation

import (
	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/shopspring/decimal"
)

// stateRateFor picks the state-level rate. When rate tiers are configured,
// the tier is chosen from tierBase, the pre-deduction determination value
// (e.g. gross price for a luxury threshold). That value is deliberately
// distinct from the taxable base the rate is applied to.
func stateRateFor(scheme *domain.VehicleTaxScheme, tierBase decimal.Decimal) (decimal.Decimal, string) {
	rate := scheme.StateRate
	label := "state"
	for _, tier := range scheme.RateTiers {
		if tierBase.GreaterThanOrEqual(tier.Threshold) {
			rate = tier.Rate
			if tier.Label != "" {
				label = tier.Label
			}
		}
	}
	return rate, label
}

// applyRateStack applies the jurisdiction's full rate stack to a taxable
// base. The state component alone honors the single-article cap; local
// components stack uncapped unless they carry their own cap.
func applyRateStack(scheme *domain.VehicleTaxScheme, base, tierBase decimal.Decimal) []domain.RateComponentTax {
	rate, label := stateRateFor(scheme, tierBase)

	state := domain.RateComponentTax{
		Label:  label,
		Rate:   rate,
		Base:   base,
		Amount: base.Mul(rate),
	}
	if scheme.StateTaxCap.IsPositive() && state.Amount.GreaterThan(scheme.StateTaxCap) {
		state.Amount = scheme.StateTaxCap
		state.Capped = true
	}
	components := []domain.RateComponentTax{state}

	if scheme.VehicleUsesLocalSalesTax {
		for _, lc := range scheme.LocalComponents {
			c := domain.RateComponentTax{
				Label:  lc.Label,
				Rate:   lc.Rate,
				Base:   base,
				Amount: base.Mul(lc.Rate),
			}
			if lc.Cap.IsPositive() && c.Amount.GreaterThan(lc.Cap) {
				c.Amount = lc.Cap
				c.Capped = true
			}
			components = append(components, c)
		}
	}
	return components
}

// sumComponents totals the amounts of a component list.
func sumComponents(components []domain.RateComponentTax) decimal.Decimal {
	total := decimal.Zero
	for _, c := range components {
		total = total.Add(c.Amount)
	}
	return total
}

// clampNonNegative floors a decimal at zero.
func clampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
