package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrValidation indicates invalid caller-supplied data.
	ErrValidation = errors.New("validation failed")
	// ErrDependencyMissing indicates a service was constructed without a
	// collaborator it needs. A wiring defect, never a user error.
	ErrDependencyMissing = errors.New("dependency not configured")
)

// UnresolvedError reports assignment identifiers that matched no record.
// Matches ErrValidation so callers can classify it without unwrapping.
type UnresolvedError struct {
	Entity string
	IDs    []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unknown %s identifiers: %s", e.Entity, strings.Join(e.IDs, ", "))
}

func (e *UnresolvedError) Is(target error) bool {
	return target == ErrValidation
}
