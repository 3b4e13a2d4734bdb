package dispatch

import (
	"fmt"
	"strings"

	"github.com/kcaldas/cmdcore/pkg/command"
)

// Status is the outcome of one dispatch.
type Status int

const (
	Success Status = iota
	UnknownCommand
	WrongTarget
	Unauthorized
	HandlerError
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case UnknownCommand:
		return "unknown_command"
	case WrongTarget:
		return "wrong_target"
	case Unauthorized:
		return "unauthorized"
	case HandlerError:
		return "handler_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is what every dispatch returns. Command is nil for
// UnknownCommand.
type Result struct {
	ID      string
	Status  Status
	Command *command.Descriptor
	// Path is the resolved command path, root first.
	Path []string
	Args command.Args
	// Err is the handler failure for HandlerError.
	Err error
	// DidYouMean is the closest registered name for UnknownCommand.
	DidYouMean string
	// Name is the command name as typed.
	Name string
}

// OK reports whether the handler ran and succeeded.
func (r Result) OK() bool { return r.Status == Success }

// Error returns a message fit for the invoking source, empty on success.
func (r Result) Error() string {
	path := strings.Join(r.Path, " ")
	switch r.Status {
	case Success:
		return ""
	case UnknownCommand:
		msg := fmt.Sprintf("unknown command '%s'", r.Name)
		if r.DidYouMean != "" {
			msg += fmt.Sprintf(", did you mean '%s'?", r.DidYouMean)
		}
		return msg
	case WrongTarget:
		if restrictedTo(r.Command) == command.ConsoleOnly {
			return fmt.Sprintf("'%s' can only be used from the console", path)
		}
		return fmt.Sprintf("'%s' can only be used by users", path)
	case Unauthorized:
		return fmt.Sprintf("you do not have permission to use '%s'", path)
	case HandlerError:
		return fmt.Sprintf("'%s' failed: %v", path, r.Err)
	default:
		return r.Status.String()
	}
}

// Unwrap exposes the handler error.
func (r Result) Unwrap() error { return r.Err }

// restrictedTo returns the nearest usage restriction on the path to d.
func restrictedTo(d *command.Descriptor) command.UsageTarget {
	for cur := d; cur != nil; cur = cur.Parent() {
		if cur.Target() != command.Both {
			return cur.Target()
		}
	}
	return command.Both
}
