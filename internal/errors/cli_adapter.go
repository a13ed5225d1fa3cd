package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if be, ok := As(err); ok {
		return a.exitCodeFromBuildError(be)
	}

	return 1
}

// exitCodeFromBuildError maps BuildError categories to exit codes.
func (a *CLIErrorAdapter) exitCodeFromBuildError(err *BuildError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid input identifier
	case CategoryInput:
		return 3 // Malformed report data
	case CategoryTemplate:
		return 4 // Template resolution/execution
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryBuild, CategoryFileSystem:
		return 11 // Build error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display. The diagnostic always
// carries the context fields (template, report, path) and the underlying cause.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if be, ok := As(err); ok && !a.verbose && be.Category == CategoryConfig {
		return fmt.Sprintf("Error: %s %s", be.Message, be.Context.String())
	}

	return fmt.Sprintf("Error: %v", err)
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	a.logError(err)
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(exitCode)
}

// logError logs an error with its category and context.
func (a *CLIErrorAdapter) logError(err error) {
	if be, ok := As(err); ok {
		attrs := []slog.Attr{
			slog.String("category", string(be.Category)),
			slog.String("severity", string(be.Severity)),
		}
		for k, v := range be.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
		if be.Cause != nil && a.verbose {
			attrs = append(attrs, slog.String("cause", be.Cause.Error()))
		}
		a.logger.LogAttrs(context.Background(), a.levelFor(be.Severity), be.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

func (a *CLIErrorAdapter) levelFor(severity ErrorSeverity) slog.Level {
	if severity == SeverityWarning {
		return slog.LevelWarn
	}
	return slog.LevelError
}
