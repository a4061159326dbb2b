package domain

import "errors"

var (
	// ErrInvalidWeights is returned when holdings are empty or do not sum to 1
	ErrInvalidWeights = errors.New("invalid portfolio weights")
	// ErrUnknownRiskIntent is returned for a level outside the closed set
	ErrUnknownRiskIntent = errors.New("unknown risk intent level")
	// ErrInvalidRecord is returned when a record violates its construction invariants
	ErrInvalidRecord = errors.New("invalid record")
)
