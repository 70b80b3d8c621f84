package calculation

import (
	"fmt"

	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/autolytiq/vehicletax/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// Logger is the minimal logging surface the engine accepts. The CLI wires a
// zap sugared logger; tests leave it nil. Logging never feeds the result:
// identical (rules, input) pairs produce byte-identical results.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Engine is the calculation entry point. It is a pure, stateless function of
// (rules, input): no I/O, no shared mutable state, safe for unbounded
// concurrent callers. Each call works against the immutable config snapshot
// it was handed.
type Engine struct {
	Retail    *RetailCalculator
	Lease     *LeaseCalculator
	Directory ReciprocityDirectory

	logger Logger
}

// NewEngine creates an engine with no reciprocity directory; mutual-credit
// requirements will fail closed until one is attached.
func NewEngine() *Engine {
	return &Engine{
		Retail: NewRetailCalculator(),
		Lease:  NewLeaseCalculator(),
	}
}

// NewEngineWithDirectory creates an engine that can resolve reverse-direction
// reciprocity rules through the given directory.
func NewEngineWithDirectory(directory ReciprocityDirectory) *Engine {
	e := NewEngine()
	e.Directory = directory
	return e
}

// SetLogger attaches a logger. Nil is allowed and silences the engine.
func (e *Engine) SetLogger(l Logger) { e.logger = l }

func (e *Engine) debugf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Debugf(format, args...)
	}
}

// Calculate validates the input, dispatches to the retail or lease
// calculator, applies reciprocity when the ruleset's scope permits, and
// assembles the final result with its debug trail.
func (e *Engine) Calculate(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput) (*domain.TaxCalculationResult, error) {
	if rules == nil {
		return nil, fmt.Errorf("%w: nil rules", domain.ErrConfigurationNotFound)
	}
	if err := validateInput(rules, input); err != nil {
		return nil, err
	}

	res := &domain.TaxCalculationResult{
		DealType:     input.DealType,
		StateCode:    rules.StateCode,
		RulesVersion: rules.Version,
	}

	switch input.DealType {
	case domain.DealRetail:
		e.Retail.Calculate(rules, input, res)
	case domain.DealLease:
		e.Lease.Calculate(rules, input, res)
	}
	e.debugf("pre-credit tax for %s %s deal: %s", rules.StateCode, input.DealType, res.CalculatedTax.StringFixed(2))

	res.TotalTax = res.CalculatedTax
	if rules.Reciprocity.Enabled && rules.Reciprocity.Scope.Covers(input.DealType) {
		rr := ApplyReciprocity(res.CalculatedTax, input, rules, e.Directory)
		res.Reciprocity = &domain.ReciprocityOutcome{
			Evaluated:     true,
			CreditAllowed: rr.CreditAllowed,
			Credit:        rr.Credit,
			Note:          rr.Note,
			Debug:         rr.Debug,
		}
		res.TotalTax = rr.FinalTax
		res.AddDebug("reciprocity", "evaluated", rr.Note)
		for _, d := range rr.Debug {
			if d.Step == "basis" && d.Outcome == "fallback_tax_paid" {
				res.AddWarning(domain.WarnMissingBasisEvidence,
					fmt.Sprintf("basis %s requested but the amount due at %s's rate was not supplied; tax paid used instead", rules.Reciprocity.Basis, input.OriginTax.StateCode))
			}
		}
	} else if input.OriginTax != nil {
		note := fmt.Sprintf("reciprocity not evaluated: scope %s does not cover %s deals", rules.Reciprocity.Scope, input.DealType)
		if !rules.Reciprocity.Enabled {
			note = fmt.Sprintf("reciprocity not evaluated: disabled for %s", rules.StateCode)
		}
		res.Reciprocity = &domain.ReciprocityOutcome{Evaluated: false, Note: note}
		res.AddDebug("reciprocity", "skipped", note)
	}

	flagContradictoryLeaseAxes(rules, res)
	return res, nil
}

// flagContradictoryLeaseAxes surfaces the known ambiguous combination of
// TaxCapReduction with a trade-in credit mode that also touches the cap
// cost: depending on authoring intent the trade equity's tax effect could be
// double-counted or omitted. The engine computes with the documented
// interpretation (trade equity is never taxed as a reduction) and flags the
// combination instead of silently picking.
func flagContradictoryLeaseAxes(rules *domain.TaxRulesConfig, res *domain.TaxCalculationResult) {
	if res.DealType != domain.DealLease {
		return
	}
	lr := &rules.Lease
	if lr.TaxCapReduction && (lr.TradeInCredit == domain.LeaseTradeInFull || lr.TradeInCredit == domain.LeaseTradeInCapCostOnly) {
		res.AddDebug("consistency", "flagged",
			fmt.Sprintf("tax_cap_reduction with trade_in_credit=%s: trade equity excluded from taxed reductions", lr.TradeInCredit))
	}
}

// validateInput rejects malformed requests before any computation starts.
func validateInput(rules *domain.TaxRulesConfig, input *domain.TaxCalculationInput) error {
	if input == nil {
		return fmt.Errorf("%w: nil input", domain.ErrInvalidInput)
	}
	if !input.DealType.IsValid() {
		return fmt.Errorf("%w: unrecognized deal type %q", domain.ErrInvalidInput, input.DealType)
	}
	if input.StateCode == "" {
		return fmt.Errorf("%w: state code is required", domain.ErrInvalidInput)
	}
	if input.StateCode != rules.StateCode {
		return fmt.Errorf("%w: input state %s does not match ruleset state %s", domain.ErrInvalidInput, input.StateCode, rules.StateCode)
	}
	if !input.VehicleClass.IsValid() {
		return fmt.Errorf("%w: unrecognized vehicle class %q", domain.ErrInvalidInput, input.VehicleClass)
	}
	if input.AsOfDate == "" {
		return fmt.Errorf("%w: as-of date is required", domain.ErrInvalidInput)
	}
	if _, err := dateutil.ParseDate(input.AsOfDate); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	if input.GVW < 0 {
		return fmt.Errorf("%w: gvw cannot be negative", domain.ErrInvalidInput)
	}

	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"vehicle_price", input.VehiclePrice},
		{"trade_in_value", input.TradeInValue},
		{"trade_in_payoff", input.TradeInPayoff},
		{"rebate_manufacturer", input.RebateManufacturer},
		{"rebate_dealer", input.RebateDealer},
		{"doc_fee", input.DocFee},
		{"accessories", input.Accessories},
		{"service_contract", input.ServiceContract},
		{"gap_insurance", input.GapInsurance},
		{"title_fee", input.TitleFee},
		{"registration_fee", input.RegistrationFee},
	} {
		if f.value.IsNegative() {
			return fmt.Errorf("%w: %s cannot be negative", domain.ErrInvalidInput, f.name)
		}
	}
	for _, fee := range input.OtherFees {
		if fee.Amount.IsNegative() {
			return fmt.Errorf("%w: fee %s cannot be negative", domain.ErrInvalidInput, fee.Code)
		}
	}

	switch input.DealType {
	case domain.DealRetail:
		if input.Lease != nil {
			return fmt.Errorf("%w: lease fields present on a retail deal", domain.ErrInvalidInput)
		}
		if !input.VehiclePrice.IsPositive() {
			return fmt.Errorf("%w: vehicle price must be positive", domain.ErrInvalidInput)
		}
	case domain.DealLease:
		if input.Lease == nil {
			return fmt.Errorf("%w: lease fields are required for a lease deal", domain.ErrInvalidInput)
		}
		li := input.Lease
		if !li.GrossCapCost.IsPositive() {
			return fmt.Errorf("%w: gross cap cost must be positive", domain.ErrInvalidInput)
		}
		if li.TermMonths <= 0 {
			return fmt.Errorf("%w: lease term must be positive", domain.ErrInvalidInput)
		}
		if li.BasePayment.IsNegative() {
			return fmt.Errorf("%w: base payment cannot be negative", domain.ErrInvalidInput)
		}
		for _, f := range []struct {
			name  string
			value decimal.Decimal
		}{
			{"cap_reduction_cash", li.CapReductions.Cash},
			{"cap_reduction_rebate", li.CapReductions.Rebate},
			{"cap_reduction_trade_equity", li.CapReductions.TradeEquity},
		} {
			if f.value.IsNegative() {
				return fmt.Errorf("%w: %s cannot be negative", domain.ErrInvalidInput, f.name)
			}
		}
	}

	if origin := input.OriginTax; origin != nil {
		if origin.StateCode == "" {
			return fmt.Errorf("%w: origin tax state code is required", domain.ErrInvalidInput)
		}
		if origin.Amount.IsNegative() {
			return fmt.Errorf("%w: origin tax amount cannot be negative", domain.ErrInvalidInput)
		}
	}
	return nil
}
