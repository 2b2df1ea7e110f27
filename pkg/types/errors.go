package types

import (
	"errors"
	"fmt"
)

// Storage lifecycle errors.
var (
	ErrNotInitialized    = errors.New("database not initialized")
	ErrPlatformMismatch  = errors.New("backend not supported on this platform")
	ErrNestedTransaction = errors.New("transaction already in progress")
	ErrInvalidImage      = errors.New("invalid database image")
	ErrInvalidDump       = errors.New("invalid database dump")
)

// Repository errors.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrBuiltinTemplate  = errors.New("builtin templates cannot be modified")
	ErrInvalidGeometry  = errors.New("invalid geometry")
	ErrGeometryMismatch = errors.New("geometry type does not match geometry")
	ErrInvalidValue     = errors.New("invalid value")
)

// Project archive errors.
var (
	ErrImportFormat       = errors.New("invalid export file")
	ErrUnsupportedVersion = errors.New("unsupported export version")
	ErrInvalidMode        = errors.New("invalid import mode")
)

// NotFoundError reports a missing entity with its type and id. It matches
// ErrNotFound under errors.Is.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound returns a NotFoundError for the given entity type and id.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}
