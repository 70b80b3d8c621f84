package calculation

import (
	"github.com/samber/lo"

	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/shopspring/decimal"
)

// FeeClassification resolves a fee code against a ruleset. Known=false means
// the code has no rule at all; callers must flag it and exclude the amount
// rather than guessing either way.
type FeeClassification struct {
	Code     domain.FeeCode
	Taxable  bool
	Fraction decimal.Decimal
	Known    bool
}

// ClassifyFee looks up the taxability of a fee code. For lease deals the
// lease-level fee rules shadow the jurisdiction's retail table; a lease with
// no rule of its own for the code falls through to the retail rule.
func ClassifyFee(rules *domain.TaxRulesConfig, deal domain.DealType, code domain.FeeCode) FeeClassification {
	if deal == domain.DealLease {
		if rule, ok := findFeeRule(rules.Lease.FeeRules, code); ok {
			return FeeClassification{Code: code, Taxable: rule.Taxable, Fraction: rule.Fraction(), Known: true}
		}
	}
	if rule, ok := findFeeRule(rules.FeeRules, code); ok {
		return FeeClassification{Code: code, Taxable: rule.Taxable, Fraction: rule.Fraction(), Known: true}
	}
	return FeeClassification{Code: code, Fraction: decimal.NewFromInt(1)}
}

func findFeeRule(table []domain.FeeTaxRule, code domain.FeeCode) (domain.FeeTaxRule, bool) {
	return lo.Find(table, func(r domain.FeeTaxRule) bool { return r.Code == code })
}

// ClassifyRebate reports whether a rebate from the given source is taxable.
// A source-specific MANUFACTURER/DEALER rule wins over an ANY-scoped rule.
// Matched=false means no rule covered the source at all; the calculators
// then tax the rebate (tax as if it never existed) and flag the gap.
func ClassifyRebate(rules *domain.TaxRulesConfig, source domain.RebateSource) (taxable bool, matched bool) {
	if rule, ok := lo.Find(rules.RebateRules, func(r domain.RebateRule) bool { return r.AppliesTo == source }); ok {
		return rule.Taxable, true
	}
	if rule, ok := lo.Find(rules.RebateRules, func(r domain.RebateRule) bool { return r.AppliesTo == domain.RebateAny }); ok {
		return rule.Taxable, true
	}
	return true, false
}
