// Package failcode defines the transport-neutral failure taxonomy of
// spec.md 4.6 ("Failure codes") as a set of sentinel errors plus a
// stable positive reply code for each, the way the original's
// lasso_errno.h assigns small positive integers. It is its own leaf
// package (rather than living on the root lasso package) so both the
// root facade and lasso/interp can depend on it without a cycle.
package failcode

import "errors"

var (
	ErrInvalidArgument  = errors.New("lasso: invalid argument")
	ErrPermissionDenied = errors.New("lasso: permission denied")
	ErrBadAddress       = errors.New("lasso: unknown cell index")
	ErrNotSupported     = errors.New("lasso: not supported")
	ErrIO               = errors.New("lasso: io error")
	ErrNoData           = errors.New("lasso: no data")
	ErrNoSpace          = errors.New("lasso: no space")
	ErrOverflow         = errors.New("lasso: overflow")
	ErrIllegalSequence  = errors.New("lasso: illegal sequence")
	ErrCancelled        = errors.New("lasso: cancelled")
	ErrBusy             = errors.New("lasso: busy")
)

var errnoTable = map[error]int32{
	nil:                 0,
	ErrInvalidArgument:  1,
	ErrPermissionDenied: 2,
	ErrBadAddress:       3,
	ErrNotSupported:     4,
	ErrIO:               5,
	ErrNoData:           6,
	ErrNoSpace:          7,
	ErrOverflow:         8,
	ErrIllegalSequence:  9,
	ErrCancelled:        10,
	ErrBusy:             16, // matches the original's EBUSY value
}

// Of maps a sentinel failure to its reply error code. Unknown errors
// (including nil wrapped oddly, or errors from lower layers never
// mapped here) fall back to ErrIO's code rather than panicking.
func Of(err error) int32 {
	if code, ok := errnoTable[err]; ok {
		return code
	}
	return errnoTable[ErrIO]
}
