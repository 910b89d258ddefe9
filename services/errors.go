// Package services provides external service integrations.
package services

import "errors"

// Typed upstream errors. Handlers map ErrUpstream to a bad-gateway response;
// the localizer treats both as a signal to fall back to stored data.
var (
	// ErrUpstream is returned when a catalog call fails (network error or
	// a non-success status from the catalog).
	ErrUpstream = errors.New("catalog request failed")

	// ErrUnavailable is returned while the circuit breaker is open and
	// catalog calls are being rejected without hitting the network.
	ErrUnavailable = errors.New("catalog temporarily unavailable")
)
