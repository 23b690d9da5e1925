package dataset

import (
	"fmt"
	"strings"
)

// MissingFileError indicates the backing sales file does not exist.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("sales file not found: %s", e.Path)
}

func (e *MissingFileError) Unwrap() error {
	return e.Err
}

// SchemaError indicates required columns are absent after header
// normalization. Missing holds exactly the absent column names.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ParseError indicates that no delimiter/decimal configuration produced a
// usable table. It wraps the failure of the final unguarded parse attempt.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse sales file: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
