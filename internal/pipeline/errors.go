package pipeline

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/churnguard-cli/internal/schema"
)

// FileError indicates an input file that could not be loaded.
type FileError struct {
	Index int
	Path  string
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("could not read %s (file %d): %v", e.Path, e.Index, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// FeatureError indicates a required feature that is unusable after the join.
type FeatureError struct {
	Role   schema.Role
	Column string
	Reason string
}

func (e *FeatureError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("required feature %s %s", e.Role, e.Reason)
	}
	return fmt.Sprintf("required feature %s (column %q) %s", e.Role, e.Column, e.Reason)
}

var (
	// ErrEmptyTable is returned when the joined table has no rows.
	ErrEmptyTable = errors.New("no customer rows to score")
	// ErrNoFeatures is returned when no feature column survived the join.
	ErrNoFeatures = errors.New("no feature columns available")
	// ErrSingleClass is returned when observed labels hold only one class.
	ErrSingleClass = errors.New("labels contain a single class")
)
