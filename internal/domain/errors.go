package domain

import (
	"errors"
	"fmt"
)

// Sentinel targets for errors.Is checks across package boundaries.
var (
	// ErrAuth marks credential failures. Fatal: the app refuses to start
	// without platform access.
	ErrAuth = errors.New("imagery platform authentication failed")

	// ErrQuery marks remote query failures. Surfaced per operation and never
	// retried silently; remote compute is metered.
	ErrQuery = errors.New("imagery platform query failed")

	// ErrWindow marks invalid date windows, rejected before any remote call.
	ErrWindow = errors.New("invalid date window")

	// ErrSceneMasked reports a scene whose study-area pixels are entirely
	// cloud-masked. Not a failure; the series skips such scenes.
	ErrSceneMasked = errors.New("scene fully masked over the study area")
)

// AuthError reports a credential failure during startup.
type AuthError struct {
	Mode string // "service-account", "adc", or "emulator"
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authenticate (%s): %v", e.Mode, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches ErrAuth so callers need not know the concrete type.
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// QueryError reports one failed platform operation. Layer is set for
// per-layer map queries and empty for series and asset operations.
type QueryError struct {
	Op    string
	Layer LayerID
	Err   error
}

func (e *QueryError) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Layer, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is matches ErrQuery so callers need not know the concrete type.
func (e *QueryError) Is(target error) bool { return target == ErrQuery }
