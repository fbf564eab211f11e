package app

import (
	"errors"
	"fmt"
)

const (
	ExitSuccess    = 0
	ExitUserError  = 1
	ExitInputError = 3
	ExitIOFailure  = 4
)

var (
	ErrNotObject          = errors.New("document is not a JSON object")
	ErrUnknownSource      = errors.New("unknown source")
	ErrMissingFile        = errors.New("file not found")
	ErrEmptySource        = errors.New("source document has no categories")
	ErrInvalidPermutation = errors.New("invalid permutation")
)

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func WrapExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUserError
}
