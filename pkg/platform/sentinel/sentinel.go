package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and stream backends return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write rejected by a uniqueness or integrity constraint
// - ErrExpired: sign-in challenge has expired
// - ErrClosed: subscription or client already closed
// - ErrUnavailable: backend temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrClosed      = errors.New("closed")
	ErrUnavailable = errors.New("unavailable")
)
