package services

import "errors"

// Service errors
var (
	// File errors
	ErrFileNotFound = errors.New("file not found")
	ErrNoFiles      = errors.New("at least one file is required")

	// Label errors
	ErrLabelNotFound = errors.New("label matrix not found")
	ErrLabelInUse    = errors.New("label matrix is in use or marked to keep")
	ErrInvalidLabels = errors.New("invalid label matrix")

	// Job errors
	ErrJobNotFound = errors.New("job not found")

	// Dimension errors
	ErrDimensionMismatch = errors.New("dimensions do not match")

	// Aggregation errors
	ErrTooFewJobs = errors.New("at least two jobs are required")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
