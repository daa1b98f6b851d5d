package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/labrig/internal/app"
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

// stringList collects every occurrence of a repeatable flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("labrig", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
labrig - resolve experiment configurations and record runs.

Usage:
  labrig [options] PATH...

Arguments:
  PATH...
    One or more .hcl declaration files, or directories containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	experimentFlag := flagSet.String("experiment", "", "Run a single experiment by name. Default runs all of them.")
	var setFlags stringList
	flagSet.Var(&setFlags, "set", "Override an attribute as name=value. Repeatable.")
	var orderFlags stringList
	flagSet.Var(&orderFlags, "order", "Evaluation order group of comma-separated attribute names. Repeat for consecutive groups; overrides the experiment's own order.")
	runsDirFlag := flagSet.String("runs-dir", "runs", "Directory run records are written under.")
	repoDirFlag := flagSet.String("repo-dir", ".", "Repository whose git state is captured for each run.")
	checkDirtyFlag := flagSet.Bool("check-repo-dirty", false, "Refuse to start a run when the repository has uncommitted changes.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Resolve and print configurations without recording runs.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 10, "Number of concurrent workers for the evaluator.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	paths := flagSet.Args()
	slog.Debug("Declaration paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No declaration paths provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Paths:          paths,
		Experiment:     *experimentFlag,
		Overrides:      setFlags,
		Order:          parseOrderGroups(orderFlags),
		RunsDir:        *runsDirFlag,
		RepoDir:        *repoDirFlag,
		CheckRepoDirty: *checkDirtyFlag,
		DryRun:         *dryRunFlag,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		WorkerCount:    *workersFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// parseOrderGroups splits each --order occurrence into one group of
// attribute names. Blank entries are dropped.
func parseOrderGroups(groups []string) [][]string {
	var order [][]string
	for _, group := range groups {
		var names []string
		for _, name := range strings.Split(group, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			order = append(order, names)
		}
	}
	return order
}
