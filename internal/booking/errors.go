package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is wrapped by every lookup failure of a referenced entity.
var ErrNotFound = errors.New("not found")

// ErrModifyCutoff is returned when a client tries to change or cancel a
// reservation that starts in less than ModifyCutoff.
var ErrModifyCutoff = errors.New("reservation can no longer be changed: it starts in less than 30 minutes")

// ErrForbidden is returned when the actor may not use an operation at all.
var ErrForbidden = errors.New("forbidden")

func notFound(kind string, id uint64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}

// ValidationError carries every rule a candidate write violated, keyed by
// the offending field.
type ValidationError struct {
	Fields map[string][]string
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no violation has been recorded.
func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// OrNil returns e as an error when it holds violations, otherwise nil.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

// Merge folds the violations of err into e. Errors that are not
// validation failures are returned unchanged.
func (e *ValidationError) Merge(err error) error {
	var other *ValidationError
	if !errors.As(err, &other) {
		return err
	}
	for field, msgs := range other.Fields {
		for _, m := range msgs {
			e.Add(field, m)
		}
	}
	return nil
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func invalid(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// IntegrityError reports a delete blocked by dependent records.
type IntegrityError struct {
	Entity     string
	Dependents string
	Count      int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("cannot delete %s: it has %d %s", e.Entity, e.Count, e.Dependents)
}
