package config

import (
	"fmt"

	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/shopspring/decimal"
)

// ValidationError is one static-check failure in a rules configuration.
// Configurations that fail validation must never be used; failure happens at
// load, not first use.
type ValidationError struct {
	StateCode string `json:"state_code"`
	Field     string `json:"field"`
	Message   string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.StateCode, e.Field, e.Message)
}

// ValidateRulesConfig runs every single-jurisdiction static check. Cross-
// jurisdiction checks (mutual-credit cycles) live in ValidateBundle.
func ValidateRulesConfig(cfg *domain.TaxRulesConfig) []ValidationError {
	var errs []ValidationError
	add := func(field, message string) {
		errs = append(errs, ValidationError{StateCode: cfg.StateCode, Field: field, Message: message})
	}

	if cfg.StateCode == "" {
		add("state_code", "state code is required")
	}
	if cfg.Version <= 0 {
		add("version", "version must be a positive integer")
	}

	validateTradeIn(cfg, add)
	validateScheme(cfg, add)
	validateFeeTables(cfg, add)
	validateRebates(cfg, add)
	validateLease(cfg, add)
	validateReciprocity(cfg, add)
	return errs
}

func validateTradeIn(cfg *domain.TaxRulesConfig, add func(field, message string)) {
	p := cfg.TradeIn
	if !p.Kind.IsValid() {
		add("trade_in.kind", fmt.Sprintf("unrecognized policy kind %q", p.Kind))
		return
	}
	if p.Kind == domain.TradeInCapped && !p.CapAmount.IsPositive() {
		add("trade_in.cap_amount", "cap amount must be positive for a CAPPED policy")
	}
	if p.Kind == domain.TradeInPercent {
		if !p.Percent.IsPositive() || p.Percent.GreaterThan(decimal.NewFromInt(1)) {
			add("trade_in.percent", "percent must be in (0, 1] for a PERCENT policy")
		}
	}
}

func validateScheme(cfg *domain.TaxRulesConfig, add func(field, message string)) {
	s := cfg.Scheme
	if s.StateRate.IsNegative() {
		add("scheme.state_rate", "state rate cannot be negative")
	}
	if s.StateTaxCap.IsNegative() {
		add("scheme.state_tax_cap", "state tax cap cannot be negative")
	}
	if s.MinimumTax.IsNegative() {
		add("scheme.minimum_tax", "minimum tax cannot be negative")
	}
	for i, lc := range s.LocalComponents {
		if lc.Label == "" {
			add(fmt.Sprintf("scheme.local_components[%d].label", i), "local component label is required")
		}
		if lc.Rate.IsNegative() {
			add(fmt.Sprintf("scheme.local_components[%d].rate", i), "local rate cannot be negative")
		}
		if lc.Cap.IsNegative() {
			add(fmt.Sprintf("scheme.local_components[%d].cap", i), "local cap cannot be negative")
		}
	}
	prev := decimal.Zero
	for i, tier := range s.RateTiers {
		if tier.Rate.IsNegative() {
			add(fmt.Sprintf("scheme.rate_tiers[%d].rate", i), "tier rate cannot be negative")
		}
		if i > 0 && tier.Threshold.LessThanOrEqual(prev) {
			add(fmt.Sprintf("scheme.rate_tiers[%d].threshold", i), "tier thresholds must be strictly ascending")
		}
		prev = tier.Threshold
	}
}

func validateFeeTables(cfg *domain.TaxRulesConfig, add func(field, message string)) {
	checkTable := func(field string, table []domain.FeeTaxRule) {
		seen := make(map[domain.FeeCode]bool)
		for i, rule := range table {
			if rule.Code == "" {
				add(fmt.Sprintf("%s[%d].code", field, i), "fee code is required")
				continue
			}
			if seen[rule.Code] {
				add(fmt.Sprintf("%s[%d].code", field, i), fmt.Sprintf("duplicate fee rule for %s; exactly one rule may apply per code", rule.Code))
			}
			seen[rule.Code] = true
			if rule.TaxableFraction.IsNegative() || rule.TaxableFraction.GreaterThan(decimal.NewFromInt(1)) {
				add(fmt.Sprintf("%s[%d].taxable_fraction", field, i), "taxable fraction must be in [0, 1]")
			}
		}
	}
	checkTable("fee_rules", cfg.FeeRules)
	checkTable("lease.fee_rules", cfg.Lease.FeeRules)
}

func validateRebates(cfg *domain.TaxRulesConfig, add func(field, message string)) {
	seen := make(map[domain.RebateSource]bool)
	for i, rule := range cfg.RebateRules {
		switch rule.AppliesTo {
		case domain.RebateManufacturer, domain.RebateDealer, domain.RebateAny:
		default:
			add(fmt.Sprintf("rebate_rules[%d].applies_to", i), fmt.Sprintf("unrecognized rebate source %q", rule.AppliesTo))
			continue
		}
		if seen[rule.AppliesTo] {
			add(fmt.Sprintf("rebate_rules[%d].applies_to", i), fmt.Sprintf("duplicate rebate rule for %s", rule.AppliesTo))
		}
		seen[rule.AppliesTo] = true
	}
}

func validateLease(cfg *domain.TaxRulesConfig, add func(field, message string)) {
	lr := cfg.Lease
	if !lr.Method.IsValid() {
		add("lease.method", fmt.Sprintf("unrecognized lease method %q", lr.Method))
	}
	if lr.TradeInCredit != "" && !lr.TradeInCredit.IsValid() {
		add("lease.trade_in_credit", fmt.Sprintf("unrecognized trade-in credit mode %q", lr.TradeInCredit))
	}
	if lr.Method == domain.LeaseReducedBase {
		if !lr.ReducedBasePercent.IsPositive() || lr.ReducedBasePercent.GreaterThan(decimal.NewFromInt(1)) {
			add("lease.reduced_base_percent", "reduced base percent must be in (0, 1] for REDUCED_BASE")
		}
	}

	placements := 0
	for _, set := range []bool{lr.TitleFeeRules.InCapCost, lr.TitleFeeRules.Upfront, lr.TitleFeeRules.Monthly} {
		if set {
			placements++
		}
	}
	if placements > 1 {
		add("lease.title_fee_rules", "title fee placed in more than one bucket; charge would be taxed twice")
	}

	// tax_cap_reduction keeps reduction money in the taxed base while a
	// cap-cost trade credit pulls equity out of it; authored together the
	// trade-in's tax effect is ambiguous.
	if lr.TaxCapReduction &&
		(lr.TradeInCredit == domain.LeaseTradeInFull || lr.TradeInCredit == domain.LeaseTradeInCapCostOnly) {
		add("lease.tax_cap_reduction", fmt.Sprintf("contradicts trade_in_credit=%s; state the intended trade-in tax treatment explicitly", lr.TradeInCredit))
	}
}

func validateReciprocity(cfg *domain.TaxRulesConfig, add func(field, message string)) {
	rec := cfg.Reciprocity
	if !rec.Enabled && len(rec.Overrides) == 0 {
		return
	}
	if rec.Scope != "" {
		switch rec.Scope {
		case domain.ReciprocityRetailOnly, domain.ReciprocityLeaseOnly, domain.ReciprocityBoth:
		default:
			add("reciprocity.scope", fmt.Sprintf("unrecognized scope %q", rec.Scope))
		}
	}
	for _, f := range []struct {
		field string
		mode  domain.ReciprocityMode
	}{
		{"reciprocity.default_mode", rec.DefaultMode},
		{"reciprocity.home_state_behavior", rec.HomeStateBehavior},
	} {
		if f.mode != "" && !f.mode.IsValid() {
			add(f.field, fmt.Sprintf("unrecognized mode %q", f.mode))
		}
	}

	type overrideKey struct {
		origin string
		class  domain.VehicleClass
		gvw    domain.GVWRange
	}
	seen := make(map[overrideKey]bool)
	for i, o := range rec.Overrides {
		field := func(name string) string { return fmt.Sprintf("reciprocity.overrides[%d].%s", i, name) }
		if o.OriginState == "" {
			add(field("origin_state"), "origin state is required")
			continue
		}
		if o.OriginState == cfg.StateCode {
			add(field("origin_state"), "override origin cannot be its own destination state")
		}
		if o.Mode != "" && !o.Mode.IsValid() {
			add(field("mode"), fmt.Sprintf("unrecognized mode %q", o.Mode))
		}
		if o.MaxAgeDaysSinceTaxPaid < 0 {
			add(field("max_age_days_since_tax_paid"), "time window cannot be negative")
		}
		key := overrideKey{origin: o.OriginState, class: o.VehicleClass}
		if o.GVW != nil {
			key.gvw = *o.GVW
		}
		if seen[key] {
			add(field("origin_state"), fmt.Sprintf("duplicate directional override for origin %s; exactly one rule may apply per key", o.OriginState))
		}
		seen[key] = true
	}
}

// ValidateBundle validates every config plus the cross-jurisdiction checks:
// duplicate (state, version) pairs and mutual-credit deadlocks. A deadlock
// is a pair of states that each require the other's credit while neither
// grants unconditionally; at runtime both directions would deny forever.
func ValidateBundle(configs []*domain.TaxRulesConfig) []ValidationError {
	var errs []ValidationError

	type versionKey struct {
		state   string
		version int
	}
	seen := make(map[versionKey]bool)
	latest := make(map[string]*domain.TaxRulesConfig)
	for _, cfg := range configs {
		errs = append(errs, ValidateRulesConfig(cfg)...)
		key := versionKey{state: cfg.StateCode, version: cfg.Version}
		if seen[key] {
			errs = append(errs, ValidationError{
				StateCode: cfg.StateCode,
				Field:     "version",
				Message:   fmt.Sprintf("duplicate ruleset for state %s version %d", cfg.StateCode, cfg.Version),
			})
		}
		seen[key] = true
		if cur, ok := latest[cfg.StateCode]; !ok || cfg.Version > cur.Version {
			latest[cfg.StateCode] = cfg
		}
	}

	errs = append(errs, detectMutualCreditDeadlocks(latest)...)
	return errs
}

// detectMutualCreditDeadlocks finds state pairs whose mutual-credit
// requirements can never be satisfied.
func detectMutualCreditDeadlocks(latest map[string]*domain.TaxRulesConfig) []ValidationError {
	var errs []ValidationError
	reported := make(map[string]bool)

	for state, cfg := range latest {
		for _, o := range cfg.Reciprocity.Overrides {
			if !o.RequiresMutualCredit {
				continue
			}
			other, ok := latest[o.OriginState]
			if !ok {
				continue
			}
			reverse := overrideFor(other, state)
			if reverse == nil || !reverse.RequiresMutualCredit {
				continue
			}
			if grantsUnconditionally(cfg, o.OriginState) || grantsUnconditionally(other, state) {
				continue
			}
			pair := pairKey(state, o.OriginState)
			if reported[pair] {
				continue
			}
			reported[pair] = true
			errs = append(errs, ValidationError{
				StateCode: state,
				Field:     "reciprocity.overrides",
				Message: fmt.Sprintf("circular mutual-credit dependency with %s: each requires the other's credit and neither grants unconditionally",
					o.OriginState),
			})
		}
	}
	return errs
}

// overrideFor returns the first override in cfg keyed by the given origin.
func overrideFor(cfg *domain.TaxRulesConfig, originState string) *domain.ReciprocityOverrideRule {
	for i := range cfg.Reciprocity.Overrides {
		if cfg.Reciprocity.Overrides[i].OriginState == originState {
			return &cfg.Reciprocity.Overrides[i]
		}
	}
	return nil
}

// grantsUnconditionally reports whether cfg grants credit for the given
// origin without a mutual-credit requirement.
func grantsUnconditionally(cfg *domain.TaxRulesConfig, originState string) bool {
	rec := cfg.Reciprocity
	if !rec.Enabled {
		return false
	}
	if o := overrideFor(cfg, originState); o != nil {
		if o.RequiresMutualCredit || o.DisallowCredit || o.Mode == domain.ReciprocityNone {
			return false
		}
		if o.Mode != "" {
			return true
		}
	}
	return rec.DefaultMode != "" && rec.DefaultMode != domain.ReciprocityNone
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}
