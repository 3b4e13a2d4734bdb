package command

import (
	"fmt"
	"strings"
)

// UsageTarget restricts which kind of source may invoke a command.
type UsageTarget int

const (
	Both UsageTarget = iota
	ConsoleOnly
	UserOnly
)

func (t UsageTarget) String() string {
	switch t {
	case ConsoleOnly:
		return "console"
	case UserOnly:
		return "user"
	default:
		return "both"
	}
}

// ParseUsageTarget converts "both", "console" or "user" into a UsageTarget.
func ParseUsageTarget(s string) (UsageTarget, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return Both, nil
	case "console", "console_only", "consoleonly":
		return ConsoleOnly, nil
	case "user", "user_only", "useronly", "player":
		return UserOnly, nil
	}
	return Both, fmt.Errorf("unknown usage target %q", s)
}

// UnmarshalText lets YAML and TOML decoders read usage targets by name.
func (t *UsageTarget) UnmarshalText(text []byte) error {
	parsed, err := ParseUsageTarget(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t UsageTarget) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Allows reports whether a source of the given kind satisfies the target.
func (t UsageTarget) Allows(kind SourceKind) bool {
	switch t {
	case ConsoleOnly:
		return kind == Console
	case UserOnly:
		return kind == User
	default:
		return true
	}
}

// SourceKind is the class of an invocation source.
type SourceKind int

const (
	User SourceKind = iota
	Console
)

func (k SourceKind) String() string {
	if k == Console {
		return "console"
	}
	return "user"
}

// Source is whoever issued a command.
type Source interface {
	Name() string
	Kind() SourceKind
	SendMessage(msg string)
}

// Args holds the arguments left after command and sub-command names were
// consumed.
type Args []string

func (a Args) Len() int { return len(a) }

// Get returns the i-th argument (0-based).
func (a Args) Get(i int) (string, bool) {
	if i < 0 || i >= len(a) {
		return "", false
	}
	return a[i], true
}

// Join joins the arguments starting at from with single spaces.
func (a Args) Join(from int) string {
	if from >= len(a) {
		return ""
	}
	if from < 0 {
		from = 0
	}
	return strings.Join(a[from:], " ")
}

// Meta is the declarative record a command is built from. Handler authors
// fill it in next to their code, or load it from a declaration file.
type Meta struct {
	Name        string      `yaml:"name" toml:"name"`
	Permission  string      `yaml:"permission,omitempty" toml:"permission"`
	Description string      `yaml:"description,omitempty" toml:"description"`
	Usage       string      `yaml:"usage,omitempty" toml:"usage"`
	Aliases     []string    `yaml:"aliases,omitempty" toml:"aliases"`
	SubCommands []string    `yaml:"subcommands,omitempty" toml:"subcommands"`
	Suggestions string      `yaml:"suggestions,omitempty" toml:"suggestions"`
	Target      UsageTarget `yaml:"target,omitempty" toml:"target"`
}

// Handler executes a command.
type Handler interface {
	Execute(src Source, args Args) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(src Source, args Args) error

func (f HandlerFunc) Execute(src Source, args Args) error { return f(src, args) }

// MethodFunc is a command implemented as a method on a shared receiver.
type MethodFunc func(recv any, src Source, args Args) error

// BindMethod binds fn to its receiver.
func BindMethod(recv any, fn MethodFunc) Handler {
	return HandlerFunc(func(src Source, args Args) error {
		return fn(recv, src, args)
	})
}

// Command is a full command object that carries its own metadata.
type Command interface {
	Handler
	Meta() Meta
}

// Completer produces tab completions for a command on its own terms,
// replacing the suggestion rules.
type Completer interface {
	Complete(src Source, d *Descriptor, args Args) []string
}

// Suggester answers completion queries for one argument position.
type Suggester interface {
	Suggest(pos int, partial string) []string
}

// Binding associates a descriptor with the code that runs it.
type Binding struct {
	Handler Handler
	// Type is the qualified name of the handler's defining type. Empty for
	// free functions.
	Type string
}
