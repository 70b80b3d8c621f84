package calculation

import (
	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/shopspring/decimal"
)

// tradeInAllowance resolves how much of the trade-in value reduces the
// taxable base under the jurisdiction's policy. Never exceeds the trade-in
// value and never goes negative.
func tradeInAllowance(policy domain.TradeInPolicy, value decimal.Decimal) decimal.Decimal {
	if value.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	switch policy.Kind {
	case domain.TradeInFull:
		return value
	case domain.TradeInCapped:
		return decimal.Min(value, policy.CapAmount)
	case domain.TradeInPercent:
		return value.Mul(policy.Percent)
	default: // NONE or unset
		return decimal.Zero
	}
}
