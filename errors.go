package dynafile

import (
	"fmt"

	"github.com/dynafile-io/dynafile/internal/meta"
	"github.com/dynafile-io/dynafile/internal/storage"
)

// ConfigMismatchError is returned by Open when an existing table's
// persisted key attribute names disagree with the caller-supplied
// ones.
type ConfigMismatchError = meta.MismatchError

// MissingKeyError is returned by DeleteItem, and by a batch containing
// a delete, when the sort key does not exist.
type MissingKeyError = storage.MissingKeyError

// IoFaultError wraps an underlying filesystem failure.
type IoFaultError = storage.IoFaultError

// GsiExistsError is returned by CreateGsi when name is already in use.
type GsiExistsError struct {
	Name string
}

func (e *GsiExistsError) Error() string {
	return fmt.Sprintf("dynafile: GSI %q already exists", e.Name)
}

// UnknownIndexError is returned by Query when index names a GSI that
// does not exist.
type UnknownIndexError struct {
	Name string
}

func (e *UnknownIndexError) Error() string {
	return fmt.Sprintf("dynafile: unknown index %q", e.Name)
}

// UnsupportedFilterError is returned when a filter value is a string
// and no ExpressionCompiler was configured, or when a filter value is
// of an unrecognized shape.
type UnsupportedFilterError struct {
	Reason string
}

func (e *UnsupportedFilterError) Error() string {
	return fmt.Sprintf("dynafile: unsupported filter: %s", e.Reason)
}

// RecursiveGsiError is returned by CreateGsi when called on a Table
// that is itself a GSI: a GSI has no sub-GSIs, which prevents
// propagation cycles by construction.
type RecursiveGsiError struct {
	Name string
}

func (e *RecursiveGsiError) Error() string {
	return fmt.Sprintf("dynafile: cannot create GSI %q on a GSI table", e.Name)
}
