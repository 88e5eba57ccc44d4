package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/specialistvlad/stepflow/internal/app"
	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/spf13/cobra"
)

// Exit codes returned through ExitError.
const (
	ExitFailure    = 1 // generic failure, or nodes failed during a run
	ExitUsage      = 2 // invalid flags or arguments
	ExitNotStarted = 3 // the run aborted before executing any node
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	server    string
	logLevel  string
	logFormat string
	timeout   time.Duration
}

func (g *globalFlags) validate() error {
	g.logFormat = strings.ToLower(g.logFormat)
	if g.logFormat != "" && g.logFormat != "text" && g.logFormat != "json" {
		return usageError("invalid log-format: must be 'text' or 'json'")
	}
	g.logLevel = strings.ToLower(g.logLevel)
	switch g.logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	return nil
}

// logger builds the command logger and stores it in ctx.
func (g *globalFlags) logger(ctx context.Context, w io.Writer) (context.Context, *slog.Logger) {
	level, format := g.logLevel, g.logFormat
	if level == "" {
		level = "warn"
	}
	if format == "" {
		format = "text"
	}
	logger := app.NewLogger(level, format, w)
	return ctxlog.WithLogger(ctx, logger), logger
}

// NewRootCommand creates the stepflow command tree. Command output goes to
// outW and logs go to logW.
func NewRootCommand(outW, logW io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "stepflow",
		Short: "Stepflow - compose, store and run step-by-step workflows.",
		Long: `Stepflow executes directed workflows one node at a time, following the first
outgoing edge of every node, and reports per-node status while it runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.validate()
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)

	pf := root.PersistentFlags()
	pf.StringVar(&g.server, "server", "http://localhost:8080", "Base URL of the stepflow API.")
	pf.StringVar(&g.logLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&g.logFormat, "log-format", "", "Log output format. Options: 'text' or 'json'.")
	pf.DurationVar(&g.timeout, "timeout", 30*time.Second, "Timeout for a single request to the API.")

	root.AddCommand(
		newServeCommand(g, logW),
		newRunCommand(g, logW),
		newSaveCommand(g, logW),
		newLoadCommand(g, logW),
		newWatchCommand(g, logW),
	)
	return root
}
