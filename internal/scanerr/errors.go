package scanerr

import (
	"errors"
	"fmt"
)

// Kind classifies a scan failure so callers can decide how to report it
type Kind int

const (
	// KindUnexpected is any failure that does not fit another kind
	KindUnexpected Kind = iota
	// KindConfiguration means missing or invalid connection parameters or dialect
	KindConfiguration
	// KindConnectivity means the database could not be reached
	KindConnectivity
	// KindQuery means a per-table sample query failed
	KindQuery
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindConnectivity:
		return "connectivity"
	case KindQuery:
		return "query"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error is a categorized scan error. Messages must never carry credentials.
type Error struct {
	Kind  Kind
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Table != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Table)
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration wraps err as a configuration error
func Configuration(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

// Configurationf builds a configuration error from a format string
func Configurationf(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

// Connectivity wraps err as a connectivity error
func Connectivity(op string, err error) error {
	return &Error{Kind: KindConnectivity, Op: op, Err: err}
}

// Query wraps err as a query error for the given table
func Query(op, table string, err error) error {
	return &Error{Kind: KindQuery, Op: op, Table: table, Err: err}
}

// Unexpected wraps err as an unexpected error
func Unexpected(op string, err error) error {
	return &Error{Kind: KindUnexpected, Op: op, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
// Errors without one are unexpected.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnexpected
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
