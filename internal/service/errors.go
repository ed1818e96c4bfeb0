package service

import "errors"

var (
	// ErrInvalidInput is returned for rejected user input; state is never
	// mutated when it is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDataset means the analytics report returned no rows.
	ErrEmptyDataset = errors.New("no analytics data for the report window")

	// ErrNotAuthenticated means no owner session is active.
	ErrNotAuthenticated = errors.New("not authenticated")
)
