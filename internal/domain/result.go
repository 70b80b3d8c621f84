package domain

import (
	"github.com/shopspring/decimal"
)

// RateComponentTax is one labeled rate's contribution to the total, kept
// separate so stacked jurisdictions stay auditable.
type RateComponentTax struct {
	Label  string          `json:"label"`
	Rate   decimal.Decimal `json:"rate"`
	Base   decimal.Decimal `json:"base"`
	Amount decimal.Decimal `json:"amount"`
	Capped bool            `json:"capped,omitempty"`
}

// BaseBreakdown explains how the taxable base was assembled.
type BaseBreakdown struct {
	GrossPrice       decimal.Decimal `json:"gross_price"`
	TradeInAllowance decimal.Decimal `json:"trade_in_allowance"`
	RebateDeduction  decimal.Decimal `json:"rebate_deduction"`
	TaxableFees      decimal.Decimal `json:"taxable_fees"`
	NegativeEquity   decimal.Decimal `json:"negative_equity"`
	TaxableBase      decimal.Decimal `json:"taxable_base"`
}

// LeaseBreakdown carries the upfront and per-period results of a lease
// calculation. TotalTaxOverTerm = UpfrontTax + PerPaymentTax × PaymentCount.
type LeaseBreakdown struct {
	UpfrontBase      decimal.Decimal `json:"upfront_base"`
	UpfrontTax       decimal.Decimal `json:"upfront_tax"`
	PerPaymentBase   decimal.Decimal `json:"per_payment_base"`
	PerPaymentTax    decimal.Decimal `json:"per_payment_tax"`
	PaymentCount     int             `json:"payment_count"`
	TotalTaxOverTerm decimal.Decimal `json:"total_tax_over_term"`
}

// DecisionRecord is one structured entry in the debug trail. The trail must
// be sufficient to replay a disputed calculation deterministically.
type DecisionRecord struct {
	Step    string `json:"step"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// Warning codes surfaced in results.
const (
	WarnUnknownFeeCode       = "UNKNOWN_FEE_CODE"
	WarnUnmatchedRebate      = "UNMATCHED_REBATE"
	WarnMissingBasisEvidence = "MISSING_BASIS_EVIDENCE"
)

// Warning flags a condition the engine refuses to silently default, such as
// a fee code with no taxability rule.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReciprocityOutcome reports the credit decision. A denial is a normal,
// explained outcome, not an error; Note is mandatory for disputes.
type ReciprocityOutcome struct {
	Evaluated     bool             `json:"evaluated"`
	CreditAllowed bool             `json:"credit_allowed"`
	Credit        decimal.Decimal  `json:"credit"`
	Note          string           `json:"note"`
	Debug         []DecisionRecord `json:"debug,omitempty"`
}

// TaxCalculationResult is the engine's complete answer for one deal.
type TaxCalculationResult struct {
	DealType     DealType `json:"deal_type"`
	StateCode    string   `json:"state_code"`
	RulesVersion int      `json:"rules_version"`

	Base       BaseBreakdown      `json:"base"`
	Components []RateComponentTax `json:"components"`
	Lease      *LeaseBreakdown    `json:"lease,omitempty"`

	// CalculatedTax is the pre-credit tax; TotalTax nets the reciprocity
	// credit. For leases CalculatedTax is the total over the term.
	CalculatedTax decimal.Decimal     `json:"calculated_tax"`
	Reciprocity   *ReciprocityOutcome `json:"reciprocity,omitempty"`
	TotalTax      decimal.Decimal     `json:"total_tax"`

	Warnings []Warning        `json:"warnings,omitempty"`
	Debug    []DecisionRecord `json:"debug,omitempty"`
}

// AddWarning appends a warning to the result.
func (r *TaxCalculationResult) AddWarning(code, message string) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Message: message})
}

// AddDebug appends a decision record to the top-level debug trail.
func (r *TaxCalculationResult) AddDebug(step, outcome, detail string) {
	r.Debug = append(r.Debug, DecisionRecord{Step: step, Outcome: outcome, Detail: detail})
}
