// Package sentinel holds infrastructure facts that stores report and services
// translate into domain errors. Input validation belongs in pkg/domain-errors.
package sentinel

import "errors"

var (
	// ErrConflict means a unique key is already taken: a voter already
	// enrolled in the voting, or a reuse target that already holds entries.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable means an optional dependency is deliberately skipped,
	// such as a cache behind an open circuit.
	ErrUnavailable = errors.New("unavailable")

	// ErrAmbiguous means a lookup key matches more than one record.
	ErrAmbiguous = errors.New("ambiguous")
)
