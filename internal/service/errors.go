package service

import "errors"

// Sentinel errors for sample mutations.
var (
	ErrNonForwardTransition = errors.New("status change is not a forward transition")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrNotClaimable         = errors.New("sample results are not available yet")
	ErrAlreadyClaimed       = errors.New("sample already claimed")
	ErrMissingClaimer       = errors.New("claimer name is required")
	ErrMissingSampleID      = errors.New("sample id is required")
)
