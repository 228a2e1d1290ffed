package patientstore

import "errors"

var (
	// ErrNotFound is returned when a patient identifier is not in the store.
	ErrNotFound = errors.New("patient not found")
	// ErrUnknownIndex is returned when a walk-order position has no patient.
	// It means the cursor and the store disagree and the session must stop.
	ErrUnknownIndex = errors.New("walk index has no patient")
	// ErrComplete is returned when committing a label to a patient that
	// already has one label per segment.
	ErrComplete = errors.New("patient already fully annotated")
	// ErrFormat marks attribute values whose JSON type does not match what
	// rendering or reporting needs.
	ErrFormat = errors.New("attribute format mismatch")
	// ErrLocked is returned when another process holds the store lock.
	ErrLocked = errors.New("store is locked by another ecgnote process")
)
