package command

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/connection"
	"github.com/yndnr/respkv/internal/cli/repl"
	"github.com/yndnr/respkv/internal/infra/buildinfo"
	"github.com/yndnr/respkv/internal/infra/tlsroots"
)

// ErrServerReply is returned by a one-shot command whose reply was an error.
// The reply has already been printed.
var ErrServerReply = errors.New("server replied with an error")

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:      "respkv-cli",
		Usage:     "command-line client for respkv-server",
		UsageText: "respkv-cli [global options] [command [arguments...]]",
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Action:    run,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Aliases: []string{"a"},
			Usage:   "respkv-server address",
			EnvVars: []string{"RESPKV_ADDR"},
			Value:   "127.0.0.1:6379",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Dial and request timeout",
			Value: connection.DefaultTimeout,
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "Connect over TLS",
		},
		&cli.StringFlag{
			Name:  "cacert",
			Usage: "PEM file of CA certificates to trust in addition to the system roots (implies --tls)",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip server certificate verification (implies --tls)",
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "Do not read or write the history file in interactive mode",
		},
	}
}

func run(c *cli.Context) error {
	var opts []connection.ClientOption
	if c.Bool("tls") || c.IsSet("cacert") || c.Bool("insecure") {
		tlsConfig, err := clientTLS(c.String("cacert"), c.Bool("insecure"))
		if err != nil {
			return err
		}
		opts = append(opts, connection.WithTLS(tlsConfig))
	}

	client := connection.NewClient(c.String("addr"), c.Duration("timeout"), opts...)
	defer client.Close()

	if c.Args().Present() {
		return runOnce(client, c.Args().Slice(), c.App.Writer)
	}

	historyFile := ""
	if !c.Bool("no-history") {
		historyFile = repl.DefaultHistoryFile()
	}
	history := repl.NewHistory(historyFile)
	if err := history.Load(); err != nil {
		PrintError("load history: %v", err)
	}

	r := repl.New(client, client.Addr(),
		repl.WithIO(os.Stdin, c.App.Writer),
		repl.WithHistory(history),
	)
	err := r.Run()
	if serr := history.Save(); serr != nil {
		PrintError("save history: %v", serr)
	}
	return err
}

func clientTLS(caFile string, insecure bool) (*tls.Config, error) {
	pool := tlsroots.NewPool()
	if caFile != "" {
		if err := pool.AddCertFile(caFile); err != nil {
			return nil, err
		}
	}
	cfg := pool.ClientTLSConfig()
	cfg.InsecureSkipVerify = insecure
	return cfg, nil
}

func runOnce(client *connection.Client, args []string, out io.Writer) error {
	reply, err := client.Do(args...)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, reply.Format())
	if reply.Kind == connection.KindError {
		return ErrServerReply
	}
	return nil
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
