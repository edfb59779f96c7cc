package service

import "errors"

// Sentinel errors for the expected, caller-recoverable rejection cases.
// Handlers map these to 404/403/409; nothing here is a system fault.
var (
	// ErrNotFound is returned when a referenced record does not exist
	// or has been soft-deleted.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden is returned when the acting user lacks the permission
	// required for the operation.
	ErrForbidden = errors.New("permission denied")

	// ErrStaleState is returned when an order's status changed between
	// read and commit. The caller must refetch before retrying; the
	// service never retries on its own.
	ErrStaleState = errors.New("status changed concurrently, refetch and retry")
)
