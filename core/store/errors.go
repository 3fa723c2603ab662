package store

import "errors"

var (
	// ErrNotFound indicates no record exists for the given id.
	ErrNotFound = errors.New("screenshot not found")

	// ErrDuplicate indicates an insert collided with the unique path or
	// content-hash constraint.
	ErrDuplicate = errors.New("screenshot already indexed")

	// ErrInvalidCategory indicates a category outside the fixed enumeration.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrMalformedRecord indicates a stored keyword/tag column that could
	// not be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)
