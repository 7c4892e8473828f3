package db

import (
	"errors"
)

// User facing errors returned by record stores and the import parser. Callers
// wrap these with fmt.Errorf("%w: detail", ...) so the category survives while
// the detail still reaches the user.
var (
	// ErrorInvalidRequest is returned for caller-supplied values outside
	// their allowed domain.
	ErrorInvalidRequest = errors.New("invalid request")
	// ErrorDuplicateRecord is returned when an insert collides with an
	// existing roll number.
	ErrorDuplicateRecord = errors.New("duplicate record")
	// ErrorNotFound is returned when no record matches the provided roll
	// number.
	ErrorNotFound = errors.New("record not found")
	// ErrorBadFile is returned when an uploaded file cannot be read as
	// tabular data.
	ErrorBadFile = errors.New("unreadable file")
	// ErrorBadSchema is returned when an uploaded file does not have all the
	// required columns.
	ErrorBadSchema = errors.New("missing required columns")
)
