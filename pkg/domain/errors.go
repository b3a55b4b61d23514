package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the sentinel behind every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNodeNotFound is returned when an id or link target matches no node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrFlowchartNotFound is returned when a document key does not exist in storage.
	ErrFlowchartNotFound = errors.New("flowchart not found")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when creating a session under a taken id.
	ErrSessionExists = errors.New("session already exists")

	// ErrVersionConflict is returned when a write precondition does not hold.
	ErrVersionConflict = errors.New("version conflict")

	// ErrInvalidAction is returned when an action does not apply to the current node.
	ErrInvalidAction = errors.New("invalid action")

	// ErrEmptyFlowchart is returned when a flowchart has no nodes to start from.
	ErrEmptyFlowchart = errors.New("flowchart has no nodes")

	// ErrStorage is the sentinel behind every StorageError.
	ErrStorage = errors.New("storage failure")
)

// ValidationError reports a missing or invalid field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a reference that could not be resolved.
type NotFoundError struct {
	Kind   string
	Key    string
	ByText bool
}

func (e *NotFoundError) Error() string {
	if e.ByText {
		return fmt.Sprintf("%s with text %q not found", e.Kind, e.Key)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	switch e.Kind {
	case "flowchart":
		return ErrFlowchartNotFound
	case "session":
		return ErrSessionNotFound
	}
	return ErrNodeNotFound
}

// StorageError wraps a backend failure with the operation and key involved.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap exposes both the sentinel and the backend cause.
func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }
