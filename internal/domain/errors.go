package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure: no infrastructure dependency.

var (
	// ErrDiscoveryUnavailable means the enumeration mechanism itself could
	// not run (driver absent, API not initialized). Finding zero devices
	// is not an error.
	ErrDiscoveryUnavailable = errors.New("gpu discovery unavailable")

	// ErrQueryFailed means a single per-device query did not succeed.
	// The device stays valid for other queries.
	ErrQueryFailed = errors.New("gpu query failed")

	// ErrDeviceNotFound is returned when a caller addresses a device index
	// outside the discovered set.
	ErrDeviceNotFound = errors.New("gpu device not found")

	// ErrUnknownDriver is returned for a driver name no binding answers to.
	ErrUnknownDriver = errors.New("unknown gpu driver")
)

// VendorStatus is implemented by vendor status codes so typed errors can
// report them without importing the vendor package.
type VendorStatus interface {
	error
	Code() int32
}

// DiscoveryError carries the vendor status behind ErrDiscoveryUnavailable.
type DiscoveryError struct {
	Status VendorStatus
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%v: %v", ErrDiscoveryUnavailable, e.Status)
}

func (e *DiscoveryError) Unwrap() []error {
	return []error{ErrDiscoveryUnavailable, e.Status}
}

// QueryError carries the failing operation and vendor status behind
// ErrQueryFailed.
type QueryError struct {
	Op     string
	Status VendorStatus
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrQueryFailed, e.Op, e.Status)
}

func (e *QueryError) Unwrap() []error {
	return []error{ErrQueryFailed, e.Status}
}
