package limits

import "errors"

// Validation errors abort a request before any computation starts.
var (
	ErrInputTooLong  = errors.New("input too long")
	ErrUnparsable    = errors.New("unparsable expression")
	ErrEmptyInput    = errors.New("empty input")
	ErrInvalidNumber = errors.New("invalid number")
	ErrDirection     = errors.New("invalid direction")
)

// Engine errors are absorbed into a Failed value by the evaluator.
var (
	ErrEngineTimeout = errors.New("engine call timed out")
	ErrEnginePanic   = errors.New("engine call panicked")
	ErrSubstitution  = errors.New("substitution failed")
)

// IsValidation reports whether err is a user-facing validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInputTooLong) ||
		errors.Is(err, ErrUnparsable) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrInvalidNumber) ||
		errors.Is(err, ErrDirection)
}
