package revision

import "errors"

// ErrNotFound is returned when a revision or its owning record is absent.
var ErrNotFound = errors.New("revision not found")

// SoftError marks a failure the caller must log and move past: a failed
// snapshot never blocks the primary write it guards.
type SoftError struct {
	Err error
}

func (e *SoftError) Error() string { return "revision (non-fatal): " + e.Err.Error() }
func (e *SoftError) Unwrap() error { return e.Err }

// HardError marks a failure of the authoritative write. It propagates
// to the caller.
type HardError struct {
	Err error
}

func (e *HardError) Error() string { return e.Err.Error() }
func (e *HardError) Unwrap() error { return e.Err }

// IsSoft reports whether err is in the log-and-continue class.
func IsSoft(err error) bool {
	var soft *SoftError
	return errors.As(err, &soft)
}
