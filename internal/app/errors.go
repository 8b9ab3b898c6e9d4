package app

import "fmt"

// FormatError is a validation failure: bad pattern, bad view name, tree
// leaves that do not match headers, and the like.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatErr(format string, args ...any) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}
