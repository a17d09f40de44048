package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound           = errors.New("domain: not found")
	ErrConflict           = errors.New("domain: conflict")
	ErrImmutable          = errors.New("domain: record is immutable")
	ErrInsufficientPoints = errors.New("domain: insufficient points")
	ErrInsufficientFunds  = errors.New("domain: insufficient funds")
)
