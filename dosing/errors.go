/*
errors.go - Centralized error types for the dosing engine

PURPOSE:
  All error values in one place. The computation engine itself never returns
  errors (missing inputs degrade to zero/absent results); these errors belong
  to the surfaces around it: stores, the factory, and the API.

ERROR CATEGORIES:
  1. Not-found errors - Lookups against the store
  2. Append errors - Violations of the append-only reading history
  3. Definition errors - Invalid tank/supply configuration at the edges

USAGE:
  if dosing.IsNotFound(err) {
      http.Error(w, err.Error(), http.StatusNotFound)
  }

SEE ALSO:
  - store.go: Returns the not-found and append errors
  - ../factory/tank.go: Returns definition errors
*/
package dosing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTankNotFound is returned when a referenced tank doesn't exist.
	ErrTankNotFound = errors.New("tank not found")

	// ErrSupplyNotFound is returned when a referenced supply contract doesn't exist.
	ErrSupplyNotFound = errors.New("supply contract not found")

	// ErrNoteNotFound is returned when a referenced note doesn't exist.
	ErrNoteNotFound = errors.New("note not found")

	// ErrSnapshotNotFound is returned when no report snapshot exists for a
	// tank/month pair.
	ErrSnapshotNotFound = errors.New("report snapshot not found")

	// ErrDuplicateReading is returned when appending a reading whose ID is
	// already in the history. Readings are immutable events; the same ID
	// cannot be recorded twice.
	ErrDuplicateReading = errors.New("duplicate reading")

	// ErrInvalidDefinition is returned when a tank or supply definition
	// fails validation. Wrapped by DefinitionError for field detail.
	ErrInvalidDefinition = errors.New("invalid definition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateReadingError identifies which reading collided.
type DuplicateReadingError struct {
	TankID    TankID
	ReadingID ReadingID
}

func (e *DuplicateReadingError) Error() string {
	return fmt.Sprintf("duplicate reading %s for tank %s", e.ReadingID, e.TankID)
}

func (e *DuplicateReadingError) Unwrap() error { return ErrDuplicateReading }

// DefinitionError describes a single invalid field in a definition.
type DefinitionError struct {
	Field  string
	Value  string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *DefinitionError) Unwrap() error { return ErrInvalidDefinition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTankNotFound) ||
		errors.Is(err, ErrSupplyNotFound) ||
		errors.Is(err, ErrNoteNotFound) ||
		errors.Is(err, ErrSnapshotNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateReading) ||
		errors.Is(err, ErrInvalidDefinition)
}
