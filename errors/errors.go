package errors

import (
	"github.com/cockroachdb/errors"
)

// Sentinels used to classify failures. Concrete errors are marked with one
// of these via errors.Mark so callers can test with Is* helpers.
var (
	ErrNotFound     = errors.New("not found")
	ErrSchema       = errors.New("schema mismatch")
	ErrMalformedRow = errors.New("malformed row")
	ErrValidation   = errors.New("validation error")
	ErrDatabase     = errors.New("database error")
)

// Malformed reports a row that could not be parsed into a Record.
func Malformed(line int, column, value string, cause error) error {
	err := errors.Newf("line %d: column %q: cannot parse %q", line, column, value)
	if cause != nil {
		err = errors.WithSecondaryError(err, cause)
	}
	return errors.Mark(err, ErrMalformedRow)
}

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// Mark wraps err with msg and tags it with the given sentinel.
func Mark(err error, sentinel error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, msg), sentinel)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSchema(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsMalformedRow(err error) bool {
	return errors.Is(err, ErrMalformedRow)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}
