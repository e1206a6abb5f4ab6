package ccat

import "errors"

// Sentinel errors for callers that prefer errors.Is. The settings
// validation errors Create returns wrap ErrInvalidInput; the errors
// returned by the four entry points wrap no sentinel, so Result is the
// value to branch on there. No code path returns ErrOutOfMemory.
// ErrReentrant is the value Session panics with on a reentrant call.
var (
	ErrInvalidInput = errors.New("ccat: invalid input")
	ErrOutOfMemory  = errors.New("ccat: out of memory")
	ErrReentrant    = errors.New("ccat: reentrant call from OnRecoveredData")
)
