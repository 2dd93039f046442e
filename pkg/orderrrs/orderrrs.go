// Package orderrrs gives the five abstract error kinds of spec §7 concrete,
// distinguishable sentinels, built on cockroachdb/errors (already present
// in the dependency graph via cockroachdb/pebble in the teacher repo; kept
// here as a direct dependency because the core's error-kind taxonomy is
// exactly the "wrap with a stable identity, let the caller errors.Is/As it"
// use case that library is for).
package orderrrs

import "github.com/cockroachdb/errors"

var (
	// ErrDecodeFailure: a raw cell payload does not parse. Discovery
	// absorbs this per cell and skips it; it is never returned upward.
	ErrDecodeFailure = errors.New("order: decode failure")

	// ErrInvalidEntity: semantic validation of a parsed entity failed
	// (bad ckbMinMatchLog, half-populated ratio, value-extracting dual
	// ratio, negative amount, bad master padding).
	ErrInvalidEntity = errors.New("order: invalid entity")

	// ErrInfeasibleMatch: a caller-supplied allowance is below bMinMatch
	// on a direct match call. Upper-layer optimizers never raise this —
	// they test feasibility before calling match().
	ErrInfeasibleMatch = errors.New("order: infeasible match")

	// ErrInvalidDescendant: a candidate descendant fails the
	// confusion-attack checks of §4.3/§4.5.
	ErrInvalidDescendant = errors.New("order: invalid descendant")

	// ErrIncompatibleOrder: match() was invoked on an order that cannot
	// be matched in the requested direction.
	ErrIncompatibleOrder = errors.New("order: incompatible order")
)

// Wrapf attaches additional context to one of the sentinel kinds above while
// keeping it identifiable via errors.Is.
func Wrapf(kind error, format string, args ...any) error {
	return errors.Wrapf(kind, format, args...)
}

// Wrap is Wrapf without format arguments.
func Wrap(kind error, msg string) error {
	return errors.Wrap(kind, msg)
}

// Is reports whether err (or anything it wraps) is the given sentinel kind.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}
