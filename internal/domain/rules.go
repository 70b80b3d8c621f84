package domain

import (
	"github.com/shopspring/decimal"
)

// RULES SCHEMA ASSUMPTIONS:
//
// 1. One TaxRulesConfig describes one jurisdiction's complete motor-vehicle
//    tax behavior. The numeric rates and booleans are authored content,
//    loaded from a YAML bundle and never mutated after load.
//
// 2. Configs are integer-versioned. A calculation always names the version
//    it was computed against so historical quotes can be replayed.
//
// 3. All money and rate values are shopspring decimals. Zero-valued optional
//    decimals mean "not configured" (e.g. StateTaxCap, MinimumTax).

// TaxRulesConfig aggregates every rule axis for one jurisdiction.
type TaxRulesConfig struct {
	StateCode    string           `yaml:"state_code" json:"state_code"`
	Version      int              `yaml:"version" json:"version"`
	Description  string           `yaml:"description,omitempty" json:"description,omitempty"`
	TradeIn      TradeInPolicy    `yaml:"trade_in" json:"trade_in"`
	RebateRules  []RebateRule     `yaml:"rebate_rules" json:"rebate_rules"`
	FeeRules     []FeeTaxRule     `yaml:"fee_rules" json:"fee_rules"`
	Scheme       VehicleTaxScheme `yaml:"scheme" json:"scheme"`
	Lease        LeaseTaxRules    `yaml:"lease" json:"lease"`
	Reciprocity  ReciprocityRules `yaml:"reciprocity" json:"reciprocity"`
}

// TradeInPolicyKind selects how trade-in value reduces the taxable base.
type TradeInPolicyKind string

const (
	TradeInNone    TradeInPolicyKind = "NONE"
	TradeInFull    TradeInPolicyKind = "FULL"
	TradeInCapped  TradeInPolicyKind = "CAPPED"
	TradeInPercent TradeInPolicyKind = "PERCENT"
)

// IsValid checks if the trade-in policy kind is recognized.
func (k TradeInPolicyKind) IsValid() bool {
	switch k {
	case TradeInNone, TradeInFull, TradeInCapped, TradeInPercent:
		return true
	}
	return false
}

// TradeInPolicy is a tagged variant: CapAmount is meaningful only for CAPPED,
// Percent only for PERCENT (expressed as a fraction, 0.5 = 50%).
type TradeInPolicy struct {
	Kind      TradeInPolicyKind `yaml:"kind" json:"kind"`
	CapAmount decimal.Decimal   `yaml:"cap_amount,omitempty" json:"cap_amount,omitempty"`
	Percent   decimal.Decimal   `yaml:"percent,omitempty" json:"percent,omitempty"`
}

// RebateSource identifies who funds a rebate.
type RebateSource string

const (
	RebateManufacturer RebateSource = "MANUFACTURER"
	RebateDealer       RebateSource = "DEALER"
	RebateAny          RebateSource = "ANY"
)

// RebateRule controls whether a rebate reduces the taxable base.
// Taxable=true means tax is charged as if the rebate never existed.
type RebateRule struct {
	AppliesTo RebateSource `yaml:"applies_to" json:"applies_to"`
	Taxable   bool         `yaml:"taxable" json:"taxable"`
}

// FeeCode is the keyed identity of a chargeable fee or product.
type FeeCode string

const (
	FeeDocFee          FeeCode = "DOC_FEE"
	FeeServiceContract FeeCode = "SERVICE_CONTRACT"
	FeeGap             FeeCode = "GAP"
	FeeTitle           FeeCode = "TITLE"
	FeeRegistration    FeeCode = "REG"
	FeeAccessories     FeeCode = "ACCESSORIES"
	FeeNegativeEquity  FeeCode = "NEGATIVE_EQUITY"
)

// FeeTaxRule is a keyed taxability entry. A code with no rule fails closed:
// the calculators flag it and exclude the amount rather than guessing.
// TaxableFraction supports partial taxability (e.g. a 50%-of-contract rule);
// zero means the full amount.
type FeeTaxRule struct {
	Code            FeeCode         `yaml:"code" json:"code"`
	Taxable         bool            `yaml:"taxable" json:"taxable"`
	TaxableFraction decimal.Decimal `yaml:"taxable_fraction,omitempty" json:"taxable_fraction,omitempty"`
}

// Fraction returns the effective taxable fraction for the rule.
func (r FeeTaxRule) Fraction() decimal.Decimal {
	if r.TaxableFraction.IsZero() {
		return decimal.NewFromInt(1)
	}
	return r.TaxableFraction
}

// RateComponent is one local rate in the jurisdiction's stack. Cap, when
// positive, limits the tax amount of this component only.
type RateComponent struct {
	Label string          `yaml:"label" json:"label"`
	Rate  decimal.Decimal `yaml:"rate" json:"rate"`
	Cap   decimal.Decimal `yaml:"cap,omitempty" json:"cap,omitempty"`
}

// RateTier is a state-rate choice keyed by a value threshold (e.g. a luxury
// rate above $50,000). Tiers are ordered by ascending threshold; the last
// tier whose threshold does not exceed the determination base wins.
type RateTier struct {
	Label     string          `yaml:"label" json:"label"`
	Threshold decimal.Decimal `yaml:"threshold" json:"threshold"`
	Rate      decimal.Decimal `yaml:"rate" json:"rate"`
}

// VehicleTaxScheme carries the jurisdiction's rate stack.
//
// StateTaxCap models a "single-article" cap: it limits the state-level
// component only, never the total. Local components stay uncapped unless
// they carry their own Cap.
type VehicleTaxScheme struct {
	StateRate                decimal.Decimal `yaml:"state_rate" json:"state_rate"`
	StateTaxCap              decimal.Decimal `yaml:"state_tax_cap,omitempty" json:"state_tax_cap,omitempty"`
	RateTiers                []RateTier      `yaml:"rate_tiers,omitempty" json:"rate_tiers,omitempty"`
	VehicleUsesLocalSalesTax bool            `yaml:"vehicle_uses_local_sales_tax" json:"vehicle_uses_local_sales_tax"`
	LocalComponents          []RateComponent `yaml:"local_components,omitempty" json:"local_components,omitempty"`
	MinimumTax               decimal.Decimal `yaml:"minimum_tax,omitempty" json:"minimum_tax,omitempty"`
}

// LeaseMethod selects how a jurisdiction taxes leases.
type LeaseMethod string

const (
	LeaseFullUpfront LeaseMethod = "FULL_UPFRONT"
	LeaseMonthly     LeaseMethod = "MONTHLY"
	LeaseHybrid      LeaseMethod = "HYBRID"
	LeaseNetCapCost  LeaseMethod = "NET_CAP_COST"
	LeaseReducedBase LeaseMethod = "REDUCED_BASE"
)

// IsValid checks if the lease method is recognized.
func (m LeaseMethod) IsValid() bool {
	switch m {
	case LeaseFullUpfront, LeaseMonthly, LeaseHybrid, LeaseNetCapCost, LeaseReducedBase:
		return true
	}
	return false
}

// LeaseUpfrontBase selects the upfront base for FULL_UPFRONT jurisdictions.
type LeaseUpfrontBase string

const (
	UpfrontAdjustedCapCost LeaseUpfrontBase = "ADJUSTED_CAP_COST"
	UpfrontTotalOfPayments LeaseUpfrontBase = "TOTAL_OF_PAYMENTS"
)

// LeaseRebateBehavior governs taxability of rebate-funded cap reductions.
type LeaseRebateBehavior string

const (
	LeaseRebateFollowRetail  LeaseRebateBehavior = "FOLLOW_RETAIL_RULE"
	LeaseRebateAlwaysTaxable LeaseRebateBehavior = "ALWAYS_TAXABLE"
	LeaseRebateNeverTaxable  LeaseRebateBehavior = "NEVER_TAXABLE"
)

// LeaseTradeInCredit selects how trade-in equity affects a lease base.
type LeaseTradeInCredit string

const (
	LeaseTradeInNone         LeaseTradeInCredit = "NONE"
	LeaseTradeInFull         LeaseTradeInCredit = "FULL"
	LeaseTradeInCapCostOnly  LeaseTradeInCredit = "CAP_COST_ONLY"
	LeaseTradeInToPayment    LeaseTradeInCredit = "APPLIED_TO_PAYMENT"
	LeaseTradeInFollowRetail LeaseTradeInCredit = "FOLLOW_RETAIL_RULE"
)

// IsValid checks if the lease trade-in credit mode is recognized.
func (c LeaseTradeInCredit) IsValid() bool {
	switch c {
	case LeaseTradeInNone, LeaseTradeInFull, LeaseTradeInCapCostOnly,
		LeaseTradeInToPayment, LeaseTradeInFollowRetail:
		return true
	}
	return false
}

// TitleFeePlacement positions the title fee charge. The three booleans are
// independently settable; more than one set is a configuration conflict
// unless explicitly intended, and the validator flags it.
type TitleFeePlacement struct {
	InCapCost bool `yaml:"in_cap_cost" json:"in_cap_cost"`
	Upfront   bool `yaml:"upfront" json:"upfront"`
	Monthly   bool `yaml:"monthly" json:"monthly"`
}

// SpecialScheme tags jurisdiction-unique lease behavior. Each tag dispatches
// to its own strategy branch in the lease calculator.
type SpecialScheme string

const (
	SchemeNone SpecialScheme = ""
	// SchemeFullConsideration taxes the gross cap cost upfront, ignoring
	// cap reductions entirely.
	SchemeFullConsideration SpecialScheme = "FULL_CONSIDERATION"
	// SchemePaymentsPlusReduction taxes the payment stream and always taxes
	// cap reductions upfront, regardless of TaxCapReduction.
	SchemePaymentsPlusReduction SpecialScheme = "PAYMENTS_PLUS_REDUCTION"
)

// LeaseTaxRules carries every independently configurable lease axis. Lease
// treatment never mirrors retail implicitly, even when values happen to
// match; each axis is set on its own.
type LeaseTaxRules struct {
	Method                LeaseMethod         `yaml:"method" json:"method"`
	UpfrontBase           LeaseUpfrontBase    `yaml:"upfront_base,omitempty" json:"upfront_base,omitempty"`
	TaxCapReduction       bool                `yaml:"tax_cap_reduction" json:"tax_cap_reduction"`
	RebateBehavior        LeaseRebateBehavior `yaml:"rebate_behavior,omitempty" json:"rebate_behavior,omitempty"`
	DocFeeTaxable         bool                `yaml:"doc_fee_taxable" json:"doc_fee_taxable"`
	TradeInCredit         LeaseTradeInCredit  `yaml:"trade_in_credit" json:"trade_in_credit"`
	NegativeEquityTaxable bool                `yaml:"negative_equity_taxable" json:"negative_equity_taxable"`
	FeeRules              []FeeTaxRule        `yaml:"fee_rules,omitempty" json:"fee_rules,omitempty"`
	TitleFeeRules         TitleFeePlacement   `yaml:"title_fee_rules" json:"title_fee_rules"`
	ReducedBasePercent    decimal.Decimal     `yaml:"reduced_base_percent,omitempty" json:"reduced_base_percent,omitempty"`
	SpecialScheme         SpecialScheme       `yaml:"special_scheme,omitempty" json:"special_scheme,omitempty"`
}

// ReciprocityMode selects how much credit an origin state's tax earns.
type ReciprocityMode string

const (
	ReciprocityNone           ReciprocityMode = "NONE"
	ReciprocityUpToStateRate  ReciprocityMode = "CREDIT_UP_TO_STATE_RATE"
	ReciprocityFull           ReciprocityMode = "CREDIT_FULL"
	ReciprocityHomeStateOnly  ReciprocityMode = "HOME_STATE_ONLY"
)

// IsValid checks if the reciprocity mode is recognized.
func (m ReciprocityMode) IsValid() bool {
	switch m {
	case ReciprocityNone, ReciprocityUpToStateRate, ReciprocityFull, ReciprocityHomeStateOnly:
		return true
	}
	return false
}

// ReciprocityScope limits which deal types may earn credit.
type ReciprocityScope string

const (
	ReciprocityRetailOnly ReciprocityScope = "RETAIL_ONLY"
	ReciprocityLeaseOnly  ReciprocityScope = "LEASE_ONLY"
	ReciprocityBoth       ReciprocityScope = "BOTH"
)

// Covers reports whether the scope permits credit for the deal type.
func (s ReciprocityScope) Covers(dt DealType) bool {
	switch s {
	case ReciprocityBoth:
		return true
	case ReciprocityRetailOnly:
		return dt == DealRetail
	case ReciprocityLeaseOnly:
		return dt == DealLease
	}
	return false
}

// ReciprocityBasis selects the evidence amount the credit is computed from.
type ReciprocityBasis string

const (
	BasisTaxPaid            ReciprocityBasis = "TAX_PAID"
	BasisTaxDueAtOriginRate ReciprocityBasis = "TAX_DUE_AT_OTHER_STATE_RATE"
)

// GVWRange narrows an override by gross vehicle weight. Max of zero means
// open-ended.
type GVWRange struct {
	Min int64 `yaml:"min" json:"min"`
	Max int64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// Contains reports whether gvw falls inside the range.
func (r GVWRange) Contains(gvw int64) bool {
	if gvw < r.Min {
		return false
	}
	if r.Max > 0 && gvw > r.Max {
		return false
	}
	return true
}

// ReciprocityOverrideRule is a directional rule keyed by origin state,
// matched against the owning ruleset's own state as destination. An A→B
// override never affects a B→A lookup. Optional vehicle-class and GVW
// narrowing make a rule more specific; the most specific match wins.
type ReciprocityOverrideRule struct {
	OriginState            string          `yaml:"origin_state" json:"origin_state"`
	VehicleClass           VehicleClass    `yaml:"vehicle_class,omitempty" json:"vehicle_class,omitempty"`
	GVW                    *GVWRange       `yaml:"gvw,omitempty" json:"gvw,omitempty"`
	Mode                   ReciprocityMode `yaml:"mode,omitempty" json:"mode,omitempty"`
	DisallowCredit         bool            `yaml:"disallow_credit" json:"disallow_credit"`
	MaxAgeDaysSinceTaxPaid int             `yaml:"max_age_days_since_tax_paid,omitempty" json:"max_age_days_since_tax_paid,omitempty"`
	RequiresMutualCredit   bool            `yaml:"requires_mutual_credit" json:"requires_mutual_credit"`
	RequiresSameOwner      bool            `yaml:"requires_same_owner" json:"requires_same_owner"`
}

// Specificity ranks an override for most-specific-match selection: a
// class-narrowed rule beats a bare one, a class+GVW rule beats both.
func (r ReciprocityOverrideRule) Specificity() int {
	score := 0
	if r.VehicleClass != "" {
		score++
	}
	if r.GVW != nil {
		score++
	}
	return score
}

// Matches reports whether the override applies to the deal's class and GVW.
func (r ReciprocityOverrideRule) Matches(class VehicleClass, gvw int64) bool {
	if r.VehicleClass != "" && r.VehicleClass != class {
		return false
	}
	if r.GVW != nil && !r.GVW.Contains(gvw) {
		return false
	}
	return true
}

// ReciprocityRules governs cross-state credit for tax already paid elsewhere.
type ReciprocityRules struct {
	Enabled               bool                      `yaml:"enabled" json:"enabled"`
	Scope                 ReciprocityScope          `yaml:"scope,omitempty" json:"scope,omitempty"`
	DefaultMode           ReciprocityMode           `yaml:"default_mode,omitempty" json:"default_mode,omitempty"`
	HomeStateBehavior     ReciprocityMode           `yaml:"home_state_behavior,omitempty" json:"home_state_behavior,omitempty"`
	RequireProofOfTaxPaid bool                      `yaml:"require_proof_of_tax_paid" json:"require_proof_of_tax_paid"`
	Basis                 ReciprocityBasis          `yaml:"basis,omitempty" json:"basis,omitempty"`
	CapAtThisStatesTax    bool                      `yaml:"cap_at_this_states_tax" json:"cap_at_this_states_tax"`
	Overrides             []ReciprocityOverrideRule `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}
