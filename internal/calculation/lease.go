package calculation

import (
	"fmt"

	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/shopspring/decimal"
)

// LeaseCalculator computes upfront and per-period tax for a lease, dispatching
// once per call on the jurisdiction's lease method.
//
// Two values stay distinct through every branch: the rate-tier determination
// base (the gross cap cost, fixed at signing) and the taxable base (whatever
// the method says gets taxed). Conflating them breaks luxury-rate thresholds
// on heavily-reduced leases.
//
// Lease axes never inherit retail behavior implicitly; the only retail
// crossovers are the explicit FOLLOW_RETAIL_RULE modes.
type LeaseCalculator struct{}

// NewLeaseCalculator creates a new lease calculator.
func NewLeaseCalculator() *LeaseCalculator {
	return &LeaseCalculator{}
}

// leaseBases carries the intermediate bases a method computes before the
// rate stack is applied.
type leaseBases struct {
	upfront    decimal.Decimal
	perPayment decimal.Decimal
}

// Calculate builds the lease result into res. CalculatedTax is the total
// tax over the term (upfront + per-payment × payment count).
func (lc *LeaseCalculator) Calculate(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) {
	lr := &rules.Lease
	li := input.Lease
	tierBase := li.GrossCapCost

	var bases leaseBases
	switch lr.SpecialScheme {
	case domain.SchemeFullConsideration:
		res.AddDebug("lease_scheme", string(lr.SpecialScheme), "taxing gross cap cost, reductions ignored")
		bases = lc.fullConsiderationBases(rules, input, res)
	case domain.SchemePaymentsPlusReduction:
		res.AddDebug("lease_scheme", string(lr.SpecialScheme), "taxing payment stream plus reductions upfront")
		bases = lc.paymentsPlusReductionBases(rules, input, res)
	default:
		res.AddDebug("lease_method", string(lr.Method), "")
		switch lr.Method {
		case domain.LeaseFullUpfront:
			bases = lc.fullUpfrontBases(rules, input, res)
		case domain.LeaseMonthly:
			bases = lc.monthlyBases(rules, input, res)
		case domain.LeaseHybrid:
			bases = lc.hybridBases(rules, input, res)
		case domain.LeaseNetCapCost:
			bases.upfront = lc.adjustedCapCost(rules, input, res).Add(lc.upfrontCharges(rules, input, res))
		case domain.LeaseReducedBase:
			portion := lr.ReducedBasePercent
			if portion.IsZero() {
				portion = decimal.NewFromInt(1)
			}
			bases.upfront = lc.adjustedCapCost(rules, input, res).Mul(portion).Add(lc.upfrontCharges(rules, input, res))
		}
	}

	bases.upfront = clampNonNegative(bases.upfront)
	bases.perPayment = clampNonNegative(bases.perPayment)

	var components []domain.RateComponentTax
	upfrontTax := decimal.Zero
	if bases.upfront.IsPositive() {
		upfrontComponents := applyRateStack(&rules.Scheme, bases.upfront, tierBase)
		upfrontTax = sumComponents(upfrontComponents)
		components = append(components, upfrontComponents...)
	}

	perPaymentTax := decimal.Zero
	if bases.perPayment.IsPositive() {
		rate, label := stateRateFor(&rules.Scheme, tierBase)
		monthly := []domain.RateComponentTax{{
			Label:  label + " (monthly)",
			Rate:   rate,
			Base:   bases.perPayment,
			Amount: bases.perPayment.Mul(rate),
		}}
		if rules.Scheme.VehicleUsesLocalSalesTax {
			for _, lcc := range rules.Scheme.LocalComponents {
				monthly = append(monthly, domain.RateComponentTax{
					Label:  lcc.Label + " (monthly)",
					Rate:   lcc.Rate,
					Base:   bases.perPayment,
					Amount: bases.perPayment.Mul(lcc.Rate),
				})
			}
		}
		perPaymentTax = sumComponents(monthly)
		components = append(components, monthly...)
	}

	term := int64(li.TermMonths)
	total := upfrontTax.Add(perPaymentTax.Mul(decimal.NewFromInt(term)))

	res.Base = domain.BaseBreakdown{
		GrossPrice:  li.GrossCapCost,
		TaxableBase: bases.upfront,
	}
	res.Components = components
	res.Lease = &domain.LeaseBreakdown{
		UpfrontBase:      bases.upfront,
		UpfrontTax:       upfrontTax,
		PerPaymentBase:   bases.perPayment,
		PerPaymentTax:    perPaymentTax,
		PaymentCount:     li.TermMonths,
		TotalTaxOverTerm: total,
	}
	res.CalculatedTax = total

	if rules.Scheme.MinimumTax.IsPositive() && res.CalculatedTax.LessThan(rules.Scheme.MinimumTax) {
		res.AddDebug("minimum_tax", "applied",
			fmt.Sprintf("computed %s raised to floor %s", res.CalculatedTax.StringFixed(2), rules.Scheme.MinimumTax.StringFixed(2)))
		res.CalculatedTax = rules.Scheme.MinimumTax
		res.Lease.TotalTaxOverTerm = rules.Scheme.MinimumTax
	}
}

// fullUpfrontBases taxes everything once at signing: the adjusted cap cost
// or the total of payments, per jurisdiction config.
func (lc *LeaseCalculator) fullUpfrontBases(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) leaseBases {
	li := input.Lease
	var base decimal.Decimal
	if rules.Lease.UpfrontBase == domain.UpfrontTotalOfPayments {
		base = li.BasePayment.Mul(decimal.NewFromInt(int64(li.TermMonths)))
		res.AddDebug("lease_upfront_base", "total_of_payments", base.StringFixed(2))
	} else {
		base = lc.adjustedCapCost(rules, input, res)
	}
	return leaseBases{upfront: base.Add(lc.upfrontCharges(rules, input, res))}
}

// monthlyBases taxes each payment; cap reductions lower the payment without
// being separately taxed unless TaxCapReduction is set.
func (lc *LeaseCalculator) monthlyBases(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) leaseBases {
	upfront := lc.upfrontCharges(rules, input, res)
	if rules.Lease.TaxCapReduction {
		taxed := lc.taxableReductions(rules, input, res)
		res.AddDebug("cap_reduction", "taxed_upfront", taxed.StringFixed(2))
		upfront = upfront.Add(taxed)
	}
	return leaseBases{upfront: upfront, perPayment: lc.paymentBase(rules, input, res)}
}

// hybridBases taxes the cap-cost reduction upfront plus an independent
// monthly tax. The rate tier is fixed at signing from the gross cap cost
// and applies to both components.
func (lc *LeaseCalculator) hybridBases(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) leaseBases {
	taxed := lc.taxableReductions(rules, input, res)
	res.AddDebug("cap_reduction", "taxed_upfront", taxed.StringFixed(2))
	upfront := taxed.Add(lc.upfrontCharges(rules, input, res))
	return leaseBases{upfront: upfront, perPayment: lc.paymentBase(rules, input, res)}
}

func (lc *LeaseCalculator) fullConsiderationBases(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) leaseBases {
	return leaseBases{upfront: input.Lease.GrossCapCost.Add(lc.upfrontCharges(rules, input, res))}
}

func (lc *LeaseCalculator) paymentsPlusReductionBases(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) leaseBases {
	taxed := lc.taxableReductions(rules, input, res)
	res.AddDebug("cap_reduction", "taxed_upfront", taxed.StringFixed(2))
	return leaseBases{
		upfront:    taxed.Add(lc.upfrontCharges(rules, input, res)),
		perPayment: lc.paymentBase(rules, input, res),
	}
}

// adjustedCapCost is the gross cap cost net of the reductions the
// jurisdiction lets through. TaxCapReduction keeps cash and rebate money in
// the base (their taxability is the point); the trade-in deduction follows
// its own axis.
func (lc *LeaseCalculator) adjustedCapCost(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) decimal.Decimal {
	lr := &rules.Lease
	li := input.Lease

	base := li.GrossCapCost
	if lr.TitleFeeRules.InCapCost && input.TitleFee.IsPositive() {
		base = base.Add(input.TitleFee)
		res.AddDebug("title_fee", "in_cap_cost", input.TitleFee.StringFixed(2))
	}

	if !lr.TaxCapReduction {
		base = base.Sub(li.CapReductions.Cash)
		if !lc.rebateReductionTaxable(rules, res) {
			base = base.Sub(li.CapReductions.Rebate)
		}
	}

	trade := lc.tradeInDeduction(rules, input, res)
	base = base.Sub(trade)

	if lr.NegativeEquityTaxable {
		if ne := input.NegativeEquity(); ne.IsPositive() {
			base = base.Add(ne)
			res.AddDebug("negative_equity", "taxable", ne.StringFixed(2))
		}
	}
	return base
}

// paymentBase is the taxable portion of one payment.
func (lc *LeaseCalculator) paymentBase(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) decimal.Decimal {
	lr := &rules.Lease
	li := input.Lease

	payment := li.BasePayment
	if lr.TradeInCredit == domain.LeaseTradeInToPayment && li.CapReductions.TradeEquity.IsPositive() && li.TermMonths > 0 {
		perPayment := li.CapReductions.TradeEquity.Div(decimal.NewFromInt(int64(li.TermMonths)))
		payment = payment.Sub(perPayment)
		res.AddDebug("trade_in", "applied_to_payment",
			fmt.Sprintf("%s per payment", perPayment.StringFixed(2)))
	}
	if lr.TitleFeeRules.Monthly && input.TitleFee.IsPositive() && li.TermMonths > 0 {
		payment = payment.Add(input.TitleFee.Div(decimal.NewFromInt(int64(li.TermMonths))))
		res.AddDebug("title_fee", "monthly", input.TitleFee.StringFixed(2))
	}
	return clampNonNegative(payment)
}

// tradeInDeduction resolves the trade-in credit against the cap cost.
func (lc *LeaseCalculator) tradeInDeduction(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) decimal.Decimal {
	lr := &rules.Lease
	equity := input.Lease.CapReductions.TradeEquity
	if !equity.IsPositive() {
		return decimal.Zero
	}

	var allowed decimal.Decimal
	switch lr.TradeInCredit {
	case domain.LeaseTradeInFull, domain.LeaseTradeInCapCostOnly:
		allowed = equity
	case domain.LeaseTradeInFollowRetail:
		allowed = tradeInAllowance(rules.TradeIn, equity)
	default: // NONE or APPLIED_TO_PAYMENT (handled against the payment)
		allowed = decimal.Zero
	}
	res.AddDebug("trade_in", string(lr.TradeInCredit),
		fmt.Sprintf("equity %s allowed %s", equity.StringFixed(2), allowed.StringFixed(2)))
	return allowed
}

// taxableReductions is the cap-reduction money a reduction-taxing method
// taxes upfront: cash always, rebate per RebateBehavior, trade equity never
// (its effect flows through the trade-in credit axis).
func (lc *LeaseCalculator) taxableReductions(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) decimal.Decimal {
	taxed := input.Lease.CapReductions.Cash
	if lc.rebateReductionTaxable(rules, res) {
		taxed = taxed.Add(input.Lease.CapReductions.Rebate)
	}
	return taxed
}

// rebateReductionTaxable resolves the rebate behavior axis once per call.
func (lc *LeaseCalculator) rebateReductionTaxable(rules *domain.TaxRulesConfig, res *domain.TaxCalculationResult) bool {
	switch rules.Lease.RebateBehavior {
	case domain.LeaseRebateAlwaysTaxable:
		return true
	case domain.LeaseRebateNeverTaxable:
		return false
	default: // FOLLOW_RETAIL_RULE or unset
		taxable, matched := ClassifyRebate(rules, domain.RebateManufacturer)
		if !matched {
			res.AddWarning(domain.WarnUnmatchedRebate,
				fmt.Sprintf("no rebate rule for %s in %s; lease rebate reduction treated as taxable", domain.RebateManufacturer, rules.StateCode))
		}
		return taxable
	}
}

// upfrontCharges sums the fee-type amounts taxed at signing: doc fee per its
// lease axis, title fee when placed upfront, and the fee-table charges
// (service contract, GAP, other fees) under lease classification.
func (lc *LeaseCalculator) upfrontCharges(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput, res *domain.TaxCalculationResult) decimal.Decimal {
	lr := &rules.Lease
	total := decimal.Zero

	if lr.DocFeeTaxable && input.DocFee.IsPositive() {
		total = total.Add(input.DocFee)
		res.AddDebug("fee", "taxable", fmt.Sprintf("%s %s", domain.FeeDocFee, input.DocFee.StringFixed(2)))
	}
	if lr.TitleFeeRules.Upfront && input.TitleFee.IsPositive() {
		total = total.Add(input.TitleFee)
		res.AddDebug("title_fee", "upfront", input.TitleFee.StringFixed(2))
	}

	charges := []domain.FeeItem{
		{Code: domain.FeeServiceContract, Amount: input.ServiceContract},
		{Code: domain.FeeGap, Amount: input.GapInsurance},
		{Code: domain.FeeAccessories, Amount: input.Accessories},
		{Code: domain.FeeRegistration, Amount: input.RegistrationFee},
	}
	charges = append(charges, input.OtherFees...)
	for _, item := range charges {
		if !item.Amount.IsPositive() {
			continue
		}
		fc := ClassifyFee(rules, domain.DealLease, item.Code)
		if !fc.Known {
			res.AddWarning(domain.WarnUnknownFeeCode,
				fmt.Sprintf("no fee rule for %s in %s; amount %s excluded from base", item.Code, rules.StateCode, item.Amount.StringFixed(2)))
			continue
		}
		if !fc.Taxable {
			continue
		}
		total = total.Add(item.Amount.Mul(fc.Fraction))
		res.AddDebug("fee", "taxable", fmt.Sprintf("%s %s at fraction %s", item.Code, item.Amount.StringFixed(2), fc.Fraction.String()))
	}
	return total
}
