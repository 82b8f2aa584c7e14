package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and upstream clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the store or upstream
// - ErrConflict: uniqueness constraint lost to a concurrent writer
// - ErrUnavailable: dependency temporarily unreachable or shedding load
// - ErrExpired: cached value or credential past its validity window
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrExpired     = errors.New("expired")
)
