package domain

import "errors"

// Error taxonomy. Callers test with errors.Is; the engine wraps these with
// context via fmt.Errorf("%w: ...").
//
// ReciprocityDenied and UnknownFeeCode are deliberately absent: a denied
// credit is a normal explained outcome and an unknown fee code is a result
// warning. Neither aborts a calculation.
var (
	// ErrInvalidInput rejects malformed or negative request fields before
	// any computation starts. The engine never partially computes.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfigurationNotFound means an unknown state code or an unloaded
	// historical rules version. The engine never substitutes a default or
	// latest ruleset.
	ErrConfigurationNotFound = errors.New("configuration not found")

	// ErrConfigurationInvalid means a ruleset failed static validation.
	// It surfaces at load time, never at first use.
	ErrConfigurationInvalid = errors.New("configuration invalid")
)
