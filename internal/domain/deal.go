package domain

import (
	"github.com/shopspring/decimal"
)

// DealType distinguishes one-time purchases from leases.
type DealType string

const (
	DealRetail DealType = "RETAIL"
	DealLease  DealType = "LEASE"
)

// IsValid checks if the deal type is recognized.
func (d DealType) IsValid() bool {
	return d == DealRetail || d == DealLease
}

// VehicleClass classifies the vehicle for rule narrowing (reciprocity
// overrides, rate tiers keyed on class in some jurisdictions).
type VehicleClass string

const (
	ClassPassenger  VehicleClass = "PASSENGER"
	ClassLightTruck VehicleClass = "LIGHT_TRUCK"
	ClassHeavyTruck VehicleClass = "HEAVY_TRUCK"
	ClassMotorcycle VehicleClass = "MOTORCYCLE"
	ClassRV         VehicleClass = "RV"
	ClassTrailer    VehicleClass = "TRAILER"
)

// IsValid checks if the vehicle class is recognized. Empty is allowed;
// narrowed rules simply never match.
func (c VehicleClass) IsValid() bool {
	switch c {
	case "", ClassPassenger, ClassLightTruck, ClassHeavyTruck, ClassMotorcycle, ClassRV, ClassTrailer:
		return true
	}
	return false
}

// FeeItem is a free-form charge on the deal, taxability resolved by code.
type FeeItem struct {
	Code   FeeCode         `yaml:"code" json:"code"`
	Amount decimal.Decimal `yaml:"amount" json:"amount"`
}

// CapReductions breaks down the upfront amounts lowering a lease's
// capitalized cost. Each bucket has its own taxability rules, so the
// calculators never treat them as one sum.
type CapReductions struct {
	Cash        decimal.Decimal `yaml:"cash" json:"cash"`
	Rebate      decimal.Decimal `yaml:"rebate" json:"rebate"`
	TradeEquity decimal.Decimal `yaml:"trade_equity" json:"trade_equity"`
}

// LeaseInput carries the lease-only fields. Present iff DealType is LEASE.
type LeaseInput struct {
	GrossCapCost  decimal.Decimal `yaml:"gross_cap_cost" json:"gross_cap_cost"`
	CapReductions CapReductions   `yaml:"cap_reductions" json:"cap_reductions"`
	BasePayment   decimal.Decimal `yaml:"base_payment" json:"base_payment"`
	TermMonths    int             `yaml:"term_months" json:"term_months"`
}

// OriginTaxInfo is the evidence that tax was already paid to another
// jurisdiction on the same vehicle. Absent means no credit is possible.
// TaxPaidDate is a strict YYYY-MM-DD string parsed at evaluation time;
// an unparsable or future date is a hard denial, never a zero-day credit.
type OriginTaxInfo struct {
	StateCode             string          `yaml:"state_code" json:"state_code"`
	Amount                decimal.Decimal `yaml:"amount" json:"amount"`
	AmountDueAtOriginRate decimal.Decimal `yaml:"amount_due_at_origin_rate,omitempty" json:"amount_due_at_origin_rate,omitempty"`
	TaxPaidDate           string          `yaml:"tax_paid_date" json:"tax_paid_date"`
	SameOwner             bool            `yaml:"same_owner" json:"same_owner"`
	IsHomeState           bool            `yaml:"is_home_state" json:"is_home_state"`
	HasProofDocument      bool            `yaml:"has_proof_document" json:"has_proof_document"`
}

// TaxCalculationInput is one deal's worth of raw figures. Transient; the
// engine never mutates it.
type TaxCalculationInput struct {
	DealType     DealType `yaml:"deal_type" json:"deal_type"`
	StateCode    string   `yaml:"state_code" json:"state_code"`
	RulesVersion int      `yaml:"rules_version,omitempty" json:"rules_version,omitempty"`

	// AsOfDate anchors every date computation (reciprocity time windows).
	// Strict YYYY-MM-DD; the engine carries no hidden clock.
	AsOfDate string `yaml:"as_of_date" json:"as_of_date"`

	VehiclePrice       decimal.Decimal `yaml:"vehicle_price" json:"vehicle_price"`
	TradeInValue       decimal.Decimal `yaml:"trade_in_value" json:"trade_in_value"`
	TradeInPayoff      decimal.Decimal `yaml:"trade_in_payoff" json:"trade_in_payoff"`
	RebateManufacturer decimal.Decimal `yaml:"rebate_manufacturer" json:"rebate_manufacturer"`
	RebateDealer       decimal.Decimal `yaml:"rebate_dealer" json:"rebate_dealer"`
	DocFee             decimal.Decimal `yaml:"doc_fee" json:"doc_fee"`
	Accessories        decimal.Decimal `yaml:"accessories" json:"accessories"`
	ServiceContract    decimal.Decimal `yaml:"service_contract" json:"service_contract"`
	GapInsurance       decimal.Decimal `yaml:"gap_insurance" json:"gap_insurance"`
	TitleFee           decimal.Decimal `yaml:"title_fee" json:"title_fee"`
	RegistrationFee    decimal.Decimal `yaml:"registration_fee" json:"registration_fee"`
	OtherFees          []FeeItem       `yaml:"other_fees,omitempty" json:"other_fees,omitempty"`

	VehicleClass VehicleClass `yaml:"vehicle_class,omitempty" json:"vehicle_class,omitempty"`
	GVW          int64        `yaml:"gvw,omitempty" json:"gvw,omitempty"`

	Lease     *LeaseInput    `yaml:"lease,omitempty" json:"lease,omitempty"`
	OriginTax *OriginTaxInfo `yaml:"origin_tax,omitempty" json:"origin_tax,omitempty"`
}

// NegativeEquity is the trade-in payoff in excess of the trade-in value.
// Never negative.
func (in *TaxCalculationInput) NegativeEquity() decimal.Decimal {
	ne := in.TradeInPayoff.Sub(in.TradeInValue)
	if ne.IsNegative() {
		return decimal.Zero
	}
	return ne
}
