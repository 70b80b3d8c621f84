package calculation

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/autolytiq/vehicletax/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// ReciprocityDirectory resolves another jurisdiction's ruleset, used for
// mutual-credit checks (does the origin state grant credit back?). The rules
// registry implements it; a nil directory means reverse rules are absent.
type ReciprocityDirectory interface {
	RulesFor(stateCode string) (*domain.TaxRulesConfig, bool)
}

// ReciprocityResult is the outcome of applying cross-state credit.
type ReciprocityResult struct {
	FinalTax      decimal.Decimal
	Credit        decimal.Decimal
	CreditAllowed bool
	Note          string
	Debug         []domain.DecisionRecord
}

func (r *ReciprocityResult) record(step, outcome, detail string) {
	r.Debug = append(r.Debug, domain.DecisionRecord{Step: step, Outcome: outcome, Detail: detail})
}

func (r *ReciprocityResult) deny(note string) *ReciprocityResult {
	r.CreditAllowed = false
	r.Credit = decimal.Zero
	r.Note = note
	return r
}

// ApplyReciprocity nets a credit for tax already paid to an origin state
// against the tax calculated for this ruleset's state. The checks run in a
// fixed, short-circuiting order and every branch leaves a human-readable
// note plus a structured debug record: a denied credit is a normal explained
// outcome, and the trail must be able to settle a dispute.
//
// Directionality invariant: only overrides keyed by the deal's origin state
// are consulted. An override for origin=A in B's ruleset never affects a
// calculation where B is the origin.
func ApplyReciprocity(calculatedTax decimal.Decimal, input *domain.TaxCalculationInput, rules *domain.TaxRulesConfig, directory ReciprocityDirectory) *ReciprocityResult {
	res := &ReciprocityResult{FinalTax: calculatedTax}
	rec := &rules.Reciprocity

	if !rec.Enabled {
		res.record("enabled", "false", "")
		return res.deny(fmt.Sprintf("%s does not grant reciprocity credit", rules.StateCode))
	}

	origin := input.OriginTax
	if origin == nil || !origin.Amount.IsPositive() {
		res.record("origin_evidence", "absent", "")
		return res.deny("no origin tax evidence; no credit possible")
	}
	res.record("origin_evidence", "present",
		fmt.Sprintf("origin %s amount %s", origin.StateCode, origin.Amount.StringFixed(2)))

	if rec.RequireProofOfTaxPaid && !origin.HasProofDocument {
		res.record("proof_of_tax_paid", "missing", "")
		return res.deny(fmt.Sprintf("%s requires proof of tax paid; none provided", rules.StateCode))
	}

	override := findOverride(rec.Overrides, origin.StateCode, input.VehicleClass, input.GVW)
	if override != nil {
		res.record("override", "matched",
			fmt.Sprintf("origin %s -> %s specificity %d", origin.StateCode, rules.StateCode, override.Specificity()))
	} else {
		res.record("override", "none", "ruleset defaults apply")
	}

	if override != nil {
		if override.DisallowCredit {
			res.record("disallow_credit", "true", "")
			return res.deny(fmt.Sprintf("%s is a nonreciprocal state for %s purchases", rules.StateCode, origin.StateCode))
		}

		if override.MaxAgeDaysSinceTaxPaid > 0 {
			elapsed, err := elapsedDays(origin.TaxPaidDate, input.AsOfDate)
			if err != nil {
				res.record("time_window", "unparsable", err.Error())
				return res.deny(fmt.Sprintf("tax paid date %q could not be verified; credit denied", origin.TaxPaidDate))
			}
			if elapsed < 0 {
				res.record("time_window", "future_date", origin.TaxPaidDate)
				return res.deny(fmt.Sprintf("tax paid date %s is in the future; credit denied", origin.TaxPaidDate))
			}
			if elapsed > override.MaxAgeDaysSinceTaxPaid {
				res.record("time_window", "exceeded",
					fmt.Sprintf("%d days elapsed, window %d", elapsed, override.MaxAgeDaysSinceTaxPaid))
				return res.deny(fmt.Sprintf("tax was paid %d days ago, beyond the %d-day window", elapsed, override.MaxAgeDaysSinceTaxPaid))
			}
			res.record("time_window", "within",
				fmt.Sprintf("%d days elapsed, window %d", elapsed, override.MaxAgeDaysSinceTaxPaid))
		}

		if override.RequiresMutualCredit {
			if !mutualCreditExists(directory, origin.StateCode, rules.StateCode, input) {
				res.record("mutual_credit", "not_found",
					fmt.Sprintf("%s grants no reverse credit to %s", origin.StateCode, rules.StateCode))
				return res.deny(fmt.Sprintf("mutual credit required but not found: %s does not credit %s tax", origin.StateCode, rules.StateCode))
			}
			res.record("mutual_credit", "found", "")
		}

		if override.RequiresSameOwner && !origin.SameOwner {
			res.record("same_owner", "false", "")
			return res.deny("credit requires the same owner; ownership changed since origin tax was paid")
		}
	}

	mode := effectiveMode(rec, override, origin)
	res.record("mode", string(mode), "")

	basis := creditBasis(rec, origin, res)
	credit := rawCredit(mode, basis, calculatedTax, origin)

	if rec.CapAtThisStatesTax && credit.GreaterThan(calculatedTax) {
		res.record("cap_at_this_states_tax", "clamped",
			fmt.Sprintf("credit %s clamped to %s", credit.StringFixed(2), calculatedTax.StringFixed(2)))
		credit = calculatedTax
	}
	credit = clampNonNegative(credit)

	res.Credit = credit
	res.CreditAllowed = credit.IsPositive() || mode != domain.ReciprocityNone
	res.FinalTax = clampNonNegative(calculatedTax.Sub(credit))

	switch {
	case mode == domain.ReciprocityNone:
		res.Note = fmt.Sprintf("%s grants no credit for %s tax", rules.StateCode, origin.StateCode)
		res.CreditAllowed = false
	case mode == domain.ReciprocityHomeStateOnly && !origin.IsHomeState:
		res.Note = fmt.Sprintf("%s credits %s tax for home-state deals only", rules.StateCode, origin.StateCode)
		res.CreditAllowed = false
	default:
		res.Note = fmt.Sprintf("credit of %s allowed for tax paid to %s", credit.StringFixed(2), origin.StateCode)
	}
	return res
}

// findOverride selects the directional override for (origin -> this state),
// narrowed by vehicle class and GVW. Among matches the most specific wins;
// the validator guarantees at most one rule per specificity key.
func findOverride(overrides []domain.ReciprocityOverrideRule, originState string, class domain.VehicleClass, gvw int64) *domain.ReciprocityOverrideRule {
	matches := lo.Filter(overrides, func(r domain.ReciprocityOverrideRule, _ int) bool {
		return r.OriginState == originState && r.Matches(class, gvw)
	})
	if len(matches) == 0 {
		return nil
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Specificity() > best.Specificity() {
			best = m
		}
	}
	return &best
}

// mutualCreditExists checks the reverse direction: does the origin state's
// ruleset grant credit toward this state? Absent rules, a disallow, or a
// NONE mode all fail the requirement.
func mutualCreditExists(directory ReciprocityDirectory, originState, destState string, input *domain.TaxCalculationInput) bool {
	if directory == nil {
		return false
	}
	reverse, ok := directory.RulesFor(originState)
	if !ok || !reverse.Reciprocity.Enabled {
		return false
	}
	if o := findOverride(reverse.Reciprocity.Overrides, destState, input.VehicleClass, input.GVW); o != nil {
		if o.DisallowCredit || o.Mode == domain.ReciprocityNone {
			return false
		}
		if o.Mode != "" {
			return true
		}
	}
	return reverse.Reciprocity.DefaultMode != "" && reverse.Reciprocity.DefaultMode != domain.ReciprocityNone
}

// effectiveMode resolves the credit mode: override mode first, then the
// home-state behavior for home-state deals, then the ruleset default.
func effectiveMode(rec *domain.ReciprocityRules, override *domain.ReciprocityOverrideRule, origin *domain.OriginTaxInfo) domain.ReciprocityMode {
	if override != nil && override.Mode != "" {
		return override.Mode
	}
	if origin.IsHomeState && rec.HomeStateBehavior != "" {
		return rec.HomeStateBehavior
	}
	if rec.DefaultMode != "" {
		return rec.DefaultMode
	}
	return domain.ReciprocityNone
}

// creditBasis selects the evidence amount per the configured basis. When the
// basis asks for tax due at the origin rate and that figure is absent, the
// paid amount is used and the gap is recorded.
func creditBasis(rec *domain.ReciprocityRules, origin *domain.OriginTaxInfo, res *ReciprocityResult) decimal.Decimal {
	if rec.Basis == domain.BasisTaxDueAtOriginRate {
		if origin.AmountDueAtOriginRate.IsPositive() {
			res.record("basis", string(rec.Basis), origin.AmountDueAtOriginRate.StringFixed(2))
			return origin.AmountDueAtOriginRate
		}
		res.record("basis", "fallback_tax_paid", "amount due at origin rate not supplied")
	}
	return origin.Amount
}

// rawCredit computes the pre-cap credit for a mode.
func rawCredit(mode domain.ReciprocityMode, basis, calculatedTax decimal.Decimal, origin *domain.OriginTaxInfo) decimal.Decimal {
	switch mode {
	case domain.ReciprocityUpToStateRate:
		return decimal.Min(basis, calculatedTax)
	case domain.ReciprocityFull:
		return basis
	case domain.ReciprocityHomeStateOnly:
		if origin.IsHomeState {
			return decimal.Min(basis, calculatedTax)
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// elapsedDays parses both dates strictly and returns whole days between
// them. Negative means the paid date is in the future.
func elapsedDays(taxPaidDate, asOfDate string) (int, error) {
	paid, err := dateutil.ParseDate(taxPaidDate)
	if err != nil {
		return 0, err
	}
	asOf, err := dateutil.ParseDate(asOfDate)
	if err != nil {
		return 0, err
	}
	return dateutil.DaysBetween(paid, asOf), nil
}
