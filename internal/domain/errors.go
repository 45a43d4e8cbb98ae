package domain

import "errors"

// Errors returned by block session operations. Each one is also shown to
// the user as a transient notification; none of them is fatal.
var (
	ErrConfigInvalid                   = errors.New("invalid block window")
	ErrPinTooShort                     = errors.New("PIN must be at least 4 digits")
	ErrPinNotNumeric                   = errors.New("PIN must contain digits only")
	ErrDisableWhileBlocking            = errors.New("cannot disable while a block is active")
	ErrEditWhileBlocking               = errors.New("cannot change the block window while a block is active")
	ErrSetPinWhileBlockingAndPinExists = errors.New("cannot change the PIN while a block is active")
	ErrClearPinWhileBlocking           = errors.New("cannot clear the PIN while a block is active")
	ErrNoBypassPIN                     = errors.New("no bypass PIN is set")
	ErrNotBlocking                     = errors.New("no block is active")
	ErrNotAwaitingBypass               = errors.New("no bypass prompt is open")
	ErrIncorrectPIN                    = errors.New("incorrect PIN")
)
