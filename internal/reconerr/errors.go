// Package reconerr defines the error taxonomy shared by the parser, importer
// and reconciliation services. Every concrete type matches one sentinel kind
// through errors.Is, so callers can branch on the kind without type switches.
package reconerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds.
var (
	ErrParse        = errors.New("parse error")
	ErrValidation   = errors.New("validation error")
	ErrInvalidState = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// ParseError reports a statement file that cannot be read at all.
type ParseError struct {
	Format string
	Line   int
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Format)
	b.WriteString(": failed to parse")
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " %s='%s'", e.Field, e.Value)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ConfigMismatchError reports that the columns a parser config requires are
// absent from the whole file, which means the wrong config was chosen.
type ConfigMismatchError struct {
	Config  string
	Missing []string
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("parser config %q does not match file: missing columns %s",
		e.Config, strings.Join(e.Missing, ", "))
}

func (e *ConfigMismatchError) Is(target error) bool { return target == ErrParse }

// ValidationError represents a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidStateError reports an operation the entity's current state forbids.
type InvalidStateError struct {
	Entity string
	ID     string
	State  string
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s: %s", e.Op, e.Entity, e.ID, e.State)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a lost optimistic-concurrency race or a lock that
// could not be obtained. The caller may retry.
type ConflictError struct {
	Entity string
	ID     string
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("concurrent modification of %s %s", e.Entity, e.ID)
	}
	return fmt.Sprintf("concurrent modification of %s %s: %s", e.Entity, e.ID, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFound is shorthand for &NotFoundError{...}.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Invalid is shorthand for &ValidationError{...}.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidState is shorthand for &InvalidStateError{...}.
func InvalidState(entity, id, op, state string) error {
	return &InvalidStateError{Entity: entity, ID: id, Op: op, State: state}
}
