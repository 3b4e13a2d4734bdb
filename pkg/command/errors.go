package command

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned when a command or sub-command name is empty
	// or contains a reserved token.
	ErrInvalidName = errors.New("invalid command name")
	// ErrDuplicateChild is returned when two sub-commands share a name under
	// the same parent.
	ErrDuplicateChild = errors.New("duplicate sub-command")
	// ErrSealed is returned when a descriptor is mutated after registration.
	ErrSealed = errors.New("descriptor is sealed")
	// ErrNoHandler is returned when a descriptor without a binding is invoked.
	ErrNoHandler = errors.New("command has no handler")
	// ErrNotFound is returned by lookups that found nothing.
	ErrNotFound = errors.New("not found")
)

// ParseError reports a malformed sub-command entry or suggestion spec.
type ParseError struct {
	Command string // owning command
	Entry   string // offending raw text
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("invalid entry '%s' in '%s' command: %s", e.Entry, e.Command, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResolutionError reports a type or member that could not be resolved or
// instantiated while registering a command.
type ResolutionError struct {
	Command string
	Entry   string
	Reason  string
	Err     error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("cannot resolve '%s'", e.Entry)
	if e.Command != "" {
		msg += fmt.Sprintf(" in '%s' command", e.Command)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsResolutionError reports whether err is or wraps a *ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
