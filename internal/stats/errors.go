package stats

import "errors"

// Error kinds returned by the engine. Every failure wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidEffectSize  = errors.New("invalid effect size")
	ErrDegenerateVariance = errors.New("degenerate variance")
	ErrUndefinedUplift    = errors.New("undefined uplift")
)

// Kind returns the short name of the error kind wrapped by err, or "" if
// err does not wrap one of the engine's kinds.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrInvalidEffectSize):
		return "InvalidEffectSize"
	case errors.Is(err, ErrDegenerateVariance):
		return "DegenerateVariance"
	case errors.Is(err, ErrUndefinedUplift):
		return "UndefinedUplift"
	}
	return ""
}
