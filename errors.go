package lasso

import "github.com/lassohost/lasso/failcode"

// Re-exported so callers of the root facade can write lasso.ErrBusy
// etc. without importing lasso/failcode directly; lasso/interp uses
// failcode itself to avoid importing this package back.
var (
	ErrInvalidArgument  = failcode.ErrInvalidArgument
	ErrPermissionDenied = failcode.ErrPermissionDenied
	ErrBadAddress       = failcode.ErrBadAddress
	ErrNotSupported     = failcode.ErrNotSupported
	ErrIO               = failcode.ErrIO
	ErrNoData           = failcode.ErrNoData
	ErrNoSpace          = failcode.ErrNoSpace
	ErrOverflow         = failcode.ErrOverflow
	ErrIllegalSequence  = failcode.ErrIllegalSequence
	ErrCancelled        = failcode.ErrCancelled
	ErrBusy             = failcode.ErrBusy
)

// ErrnoOf maps a sentinel failure to its reply error code.
func ErrnoOf(err error) int32 { return failcode.Of(err) }
