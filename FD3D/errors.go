package FD3D

import "errors"

var (
	// ErrInvalidDimension is returned for bad grid or field construction parameters
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrOutOfMemory is returned when field storage cannot be allocated
	ErrOutOfMemory = errors.New("out of memory")
	// ErrSourcePlacement is returned when a source coordinate lies outside the grid
	ErrSourcePlacement = errors.New("source placement error")
	// ErrInvalidState is returned when a time stepper is used out of order
	ErrInvalidState = errors.New("invalid state")
)
