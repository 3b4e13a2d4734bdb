// Package dispatch routes command lines to their handlers and reports
// every outcome as a Result.
package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/events"
	"github.com/kcaldas/cmdcore/pkg/logging"
)

// Authorizer decides whether a source holds a permission.
type Authorizer interface {
	HasPermission(src command.Source, permission string) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(src command.Source, permission string) bool

func (f AuthorizerFunc) HasPermission(src command.Source, permission string) bool {
	return f(src, permission)
}

// AllowAll grants every permission.
var AllowAll Authorizer = AuthorizerFunc(func(command.Source, string) bool { return true })

// Finder looks up top-level commands. The registry implements it.
type Finder interface {
	FindByName(name string) (*command.Descriptor, bool)
	Names() []string
}

// Options configures a Dispatcher.
type Options struct {
	Finder     Finder
	Authorizer Authorizer // nil means AllowAll
	Bus        events.Publisher
	Logger     logging.Logger
}

// Dispatcher runs commands. It holds no per-invocation state and is safe
// for concurrent use.
type Dispatcher struct {
	finder     Finder
	authorizer Authorizer
	bus        events.Publisher
	logger     logging.Logger
	now        func() time.Time
}

// New creates a dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.Finder == nil {
		return nil, errors.New("dispatcher finder is required")
	}
	if opts.Authorizer == nil {
		opts.Authorizer = AllowAll
	}
	return &Dispatcher{
		finder:     opts.Finder,
		authorizer: opts.Authorizer,
		bus:        opts.Bus,
		logger:     logging.ForComponent(opts.Logger, "dispatch"),
		now:        time.Now,
	}, nil
}

// DispatchLine splits line on whitespace and dispatches it. A blank line
// is an UnknownCommand.
func (d *Dispatcher) DispatchLine(src command.Source, line string) Result {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return d.Dispatch("", src, nil)
	}
	return d.Dispatch(fields[0], src, fields[1:])
}

// Dispatch resolves name, descends into sub-commands while the leading
// arguments name them, checks usage targets and then permissions of every
// command on the path, root first, and runs the handler with the
// remaining arguments.
func (d *Dispatcher) Dispatch(name string, src command.Source, rawArgs []string) Result {
	start := d.now()
	res := Result{ID: uuid.NewString(), Name: name}

	res = d.dispatch(res, name, src, rawArgs)

	d.report(res, src, d.now().Sub(start))
	return res
}

func (d *Dispatcher) dispatch(res Result, name string, src command.Source, rawArgs []string) Result {
	cmd, ok := d.finder.FindByName(name)
	if !ok {
		res.Status = UnknownCommand
		res.Args = append(command.Args(nil), rawArgs...)
		res.DidYouMean = closest(name, d.finder.Names())
		return res
	}

	args := rawArgs
	for len(args) > 0 && cmd.HasChildren() {
		child := cmd.ResolveChild(args[0])
		if child == nil {
			break
		}
		cmd = child
		args = args[1:]
	}
	res.Command = cmd
	res.Path = cmd.Path()
	res.Args = append(command.Args{}, args...)

	path := lineage(cmd)
	for _, node := range path {
		if !node.IsUsableBy(kindOf(src)) {
			res.Status = WrongTarget
			return res
		}
	}
	for _, node := range path {
		if p := node.Permission(); p != "" && !d.authorizer.HasPermission(src, p) {
			res.Status = Unauthorized
			return res
		}
	}

	if err := invoke(cmd, src, res.Args); err != nil {
		res.Status = HandlerError
		res.Err = err
		return res
	}
	res.Status = Success
	return res
}

// invoke runs the handler and turns a panic into an error.
func invoke(cmd *command.Descriptor, src command.Source, args command.Args) (err error) {
	h := cmd.Binding().Handler
	if h == nil {
		return fmt.Errorf("%s: %w", cmd, command.ErrNoHandler)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Execute(src, args)
}

// lineage returns the descriptors from the root command down to cmd.
func lineage(cmd *command.Descriptor) []*command.Descriptor {
	var nodes []*command.Descriptor
	for cur := cmd; cur != nil; cur = cur.Parent() {
		nodes = append([]*command.Descriptor{cur}, nodes...)
	}
	return nodes
}

func kindOf(src command.Source) command.SourceKind {
	if src == nil {
		return command.Console
	}
	return src.Kind()
}

func (d *Dispatcher) report(res Result, src command.Source, elapsed time.Duration) {
	sourceName := ""
	if src != nil {
		sourceName = src.Name()
	}
	errText := ""
	if !res.OK() {
		errText = res.Error()
	}

	attrs := []any{"id", res.ID, "command", res.Name, "status", res.Status.String(), "source", sourceName, "duration", elapsed}
	if res.OK() {
		d.logger.Debug("command dispatched", attrs...)
	} else {
		d.logger.Info("command dispatch failed", append(attrs, "reason", errText)...)
	}

	events.Emit(d.bus, events.CommandDispatchedEvent{
		ID:       res.ID,
		Command:  res.Name,
		Path:     res.Path,
		Args:     res.Args,
		Source:   sourceName,
		Status:   res.Status.String(),
		Error:    errText,
		Duration: elapsed,
	})
}

// closest returns the candidate nearest to input by edit distance, or ""
// when none is close enough. The allowed distance grows with the input
// length.
func closest(input string, candidates []string) string {
	input = command.Fold(input)
	if len(input) < 2 {
		return ""
	}
	maxDistance := 1
	if len(input) >= 4 {
		maxDistance = 2
	}
	if len(input) > 8 {
		maxDistance = 3
	}

	best, bestDistance := "", -1
	for _, c := range candidates {
		distance := levenshtein.ComputeDistance(input, command.Fold(c))
		if distance == 0 {
			continue
		}
		if distance <= maxDistance && (bestDistance == -1 || distance < bestDistance) {
			best, bestDistance = c, distance
		}
	}
	return best
}
