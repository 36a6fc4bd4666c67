// Package store declares the data-access contracts of the viewer.
package store

import (
	"context"
	"errors"
	"time"

	"go.ngs.io/hydroviewer/internal/adapter/grid"
)

var (
	// ErrVariableNotFound is returned when a dataset lacks the requested variable.
	ErrVariableNotFound = errors.New("variable not found in dataset")
	// ErrNoTimeAxis is returned when a dataset has no time coordinate.
	ErrNoTimeAxis = errors.New("dataset has no time coordinate")
)

// Dataset is an open gridded ensemble file.
type Dataset interface {
	// Path is the source the dataset was opened from.
	Path() string

	// Variable reads a whole variable into memory.
	Variable(name string) (*grid.Array, error)

	// Axis reads the first 1D coordinate variable found among names.
	Axis(names ...string) ([]float64, error)

	// Times decodes the CF time coordinate. Returns ErrNoTimeAxis when absent.
	Times() ([]time.Time, error)

	// Close releases the underlying handle.
	Close() error
}

// DatasetOpener opens datasets by path or URL.
type DatasetOpener interface {
	Open(ctx context.Context, path string) (Dataset, error)
}
