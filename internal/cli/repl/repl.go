package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yndnr/respkv/internal/cli/connection"
)

// Executor sends one command to the server.
type Executor interface {
	Do(args ...string) (connection.Reply, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      Executor
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// New creates a REPL that sends commands to exec. prompt is usually the
// server address.
func New(exec Executor, prompt string, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    prompt + "> ",
		exec:      exec,
		completer: NewCompleter(),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads commands until EOF, exit or quit.
func (r *REPL) Run() error {
	reader := bufio.NewReader(r.input)

	for {
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		case "help":
			r.help()
			continue
		}

		if err := r.execute(line); err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
	}
}

func (r *REPL) execute(line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		return err
	}

	reply, err := r.exec.Do(args...)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.output, reply.Format())
	return nil
}

func (r *REPL) help() {
	fmt.Fprintln(r.output, "Commands:")
	for _, c := range r.completer.Usage() {
		fmt.Fprintln(r.output, "  "+c)
	}
}
