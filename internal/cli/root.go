// Package cli implements the strata command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	hierarchy string
	jsonMode  bool
	verbose   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "strata" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "strata",
		Short: "Single-table inheritance records on SQLite",
		Long: "Strata stores every variant of a declared type hierarchy in one table,\n" +
			"discriminated by a type column, and decodes rows back into their\nconcrete variant.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .strata)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .strata-db)")
	root.PersistentFlags().StringVar(&flags.hierarchy, "hierarchy", "", "hierarchy declaration file (default: <config-dir>/hierarchy.yaml)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newDescribeCmd())
	root.AddCommand(newDecodeCmd())
	root.AddCommand(newFilterCmd())
	root.AddCommand(newSetCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newDeleteCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		os.Exit(exitSuccess)
	}
	fmt.Fprintln(os.Stderr, "strata:", err)
	os.Exit(exitCode(err))
}

// cliError carries the exit code for a failed command.
type cliError struct {
	code int
	msg  string
}

func (e *cliError) Error() string {
	return e.msg
}

// exitError returns an error that makes Execute exit with code.
func exitError(code int, format string, args ...any) error {
	return &cliError{code: code, msg: fmt.Sprintf(format, args...)}
}

// exitCode maps err to a process exit code. Errors from cobra itself
// (unknown commands, bad arguments) are user errors.
func exitCode(err error) int {
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitUserError
}

// newLogger returns the CLI logger. Only warnings and errors are shown
// unless --verbose is set.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
