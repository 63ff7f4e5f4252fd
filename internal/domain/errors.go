package domain

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// AuthError reports bad credentials or an invalid or expired token.
type AuthError struct {
	Op  string
	Msg string
	Err error
}

func (e *AuthError) Error() string { return describe(e.Op, e.Msg, e.Err) }

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError reports malformed or conflicting input.
type ValidationError struct {
	Op  string
	Msg string
	Err error
}

func (e *ValidationError) Error() string { return describe(e.Op, e.Msg, e.Err) }

func (e *ValidationError) Unwrap() error { return e.Err }

// NetworkError reports an unreachable or failing remote.
type NetworkError struct {
	Op  string
	Msg string
	Err error
}

func (e *NetworkError) Error() string { return describe(e.Op, e.Msg, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// LocalStorageError reports unreadable or corrupt persisted state.
type LocalStorageError struct {
	Op  string
	Msg string
	Err error
}

func (e *LocalStorageError) Error() string { return describe(e.Op, e.Msg, e.Err) }

func (e *LocalStorageError) Unwrap() error { return e.Err }

// Message returns the human-readable part of err, suitable for display.
func Message(err error) string {
	var (
		ae *AuthError
		ve *ValidationError
		ne *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ae) && ae.Msg != "":
		return ae.Msg
	case errors.As(err, &ve) && ve.Msg != "":
		return ve.Msg
	case errors.As(err, &ne) && ne.Msg != "":
		return ne.Msg
	}
	return err.Error()
}

func describe(op, msg string, err error) string {
	s := msg
	if op != "" {
		s = op + ": " + s
	}
	if err != nil {
		s += ": " + err.Error()
	}
	return s
}
