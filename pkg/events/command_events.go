package events

import "time"

// CommandRegisteredEvent is published after a descriptor is added to the
// host command table.
type CommandRegisteredEvent struct {
	Name        string
	Prefix      string
	Aliases     []string
	HandlerType string
	SubCommands []string
}

// Topic returns the event topic for command registration
func (e CommandRegisteredEvent) Topic() string {
	return "command.registered"
}

// CommandDispatchedEvent is published once per dispatch attempt, whatever
// its outcome.
type CommandDispatchedEvent struct {
	ID       string
	Command  string
	Path     []string
	Args     []string
	Source   string
	Status   string
	Error    string
	Duration time.Duration
}

// Topic returns the event topic for command dispatch
func (e CommandDispatchedEvent) Topic() string {
	return "command.dispatched"
}

// CommandsReloadedEvent is published when declared commands are loaded
// again from disk.
type CommandsReloadedEvent struct {
	Path     string
	Commands int
	Error    string
}

// Topic returns the event topic for declaration reloads
func (e CommandsReloadedEvent) Topic() string {
	return "commands.reloaded"
}
