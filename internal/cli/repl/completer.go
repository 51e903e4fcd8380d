package repl

import "strings"

// Completer provides command completion for the REPL.
type Completer struct {
	commands []command
}

type command struct {
	name  string
	usage string
}

// NewCompleter creates a new Completer.
func NewCompleter() *Completer {
	return &Completer{
		commands: []command{
			{"PING", "PING"},
			{"ECHO", "ECHO message"},
			{"SET", "SET key value [PX milliseconds]"},
			{"GET", "GET key"},
			{"help", "help"},
			{"exit", "exit | quit"},
			{"quit", ""},
		},
	}
}

// Complete returns the commands starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(strings.ToLower(cmd.name), strings.ToLower(prefix)) {
			suggestions = append(suggestions, cmd.name)
		}
	}
	return suggestions
}

// Usage returns one usage line per command.
func (c *Completer) Usage() []string {
	var lines []string
	for _, cmd := range c.commands {
		if cmd.usage != "" {
			lines = append(lines, cmd.usage)
		}
	}
	return lines
}
