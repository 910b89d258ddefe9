package repository

import "errors"

// Typed storage errors. Handlers map these to HTTP statuses; everything else
// coming out of the store is treated as fatal for the request.
var (
	// ErrNotFound is returned when a row does not exist or does not belong
	// to the requesting user. The two cases are deliberately
	// indistinguishable so one user cannot probe another's diary.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned on a uniqueness violation (the movie is
	// already in the diary) or a stale-version update.
	ErrConflict = errors.New("record conflict")
)
