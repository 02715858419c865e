// Main application entry point
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maxgreen01/go-wheredoc/internal/config"
	"github.com/maxgreen01/go-wheredoc/internal/parsercommands"
	"github.com/maxgreen01/go-wheredoc/pkg/parser"

	"github.com/jessevdk/go-flags"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	slogmulti "github.com/samber/slog-multi"
)

// =========== Global command-line flag definitions ===========
type GlobalOptions = config.GlobalOptions

// =========== Parse command-line flags and initialize the application ===========
func main() {
	// Create the flag parser itself
	var opts GlobalOptions
	flagParser := flags.NewParser(&opts, flags.Default|flags.AllowBoolValues)

	// Add every registered command
	for _, register := range parsercommands.CommandRegistry {
		register(flagParser, &opts)
	}

	// Set up a hook to validate and apply global flags before executing any command.
	// Also handles logic for after the command finishes executing using `defer`.
	flagParser.CommandHandler = func(command flags.Commander, args []string) error {
		if command == nil {
			return nil
		}

		cmd, ok := command.(parsercommands.Command)
		if !ok {
			slog.Error("Command does not implement the Command interface")
			os.Exit(1)
		}

		// Only commands that scan a project need the project directory
		_, needsProject := command.(parser.Task)

		// Validate and apply global flags
		closeLog := applyGlobals(&opts, needsProject)
		defer closeLog()
		defer cmd.Close()

		// Set up timer hook
		if opts.Timer {
			startTime := time.Now()
			defer func() {
				// Runs after the command finishes executing
				slog.Info("Total execution time:", "duration", time.Since(startTime))
			}()
		}

		// Actually execute the command
		if err := command.Execute(args); err != nil {
			if errors.Is(err, parsercommands.ErrProblemsFound) {
				slog.Warn("Doc tables have problems", "err", err, "command", cmd.Name())
			} else {
				slog.Error("Error running command", "err", err, "command", cmd.Name(), "project", opts.ProjectDir)
			}
			return err
		}

		if needsProject {
			fmt.Println()
			slog.Info("Finished running the parser!", "command", cmd.Name(), "project", opts.ProjectDir)
			fmt.Println()
		}
		return nil
	}

	// Actually run the flag parser and start the application
	_, err := flagParser.Parse()
	if err != nil {
		// Exit successfully when printing the help menu, but with a failure code otherwise
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// Trim whitespace and quotes from a path flag, then make it absolute
func cleanPath(path, description string) string {
	path = strings.Trim(path, "\t\n\v\f\r \"")
	if path == "" {
		return ""
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		fmt.Printf("Error resolving absolute path for %s %q: %v\n", description, path, err)
		os.Exit(1)
	}
	return absPath
}

// Validate (in-place) and apply global flags such as logging level and color output.
// Returns a function that closes the log file, if one was opened.
func applyGlobals(opts *GlobalOptions, needsProject bool) func() {
	//
	// =========== Validate flag values ===========
	//
	opts.ProjectDir = cleanPath(opts.ProjectDir, "Go project")
	if needsProject {
		if opts.ProjectDir == "" {
			fmt.Printf("You must provide a path to a Go project (e.g., ./myproject)!\n")
			os.Exit(1)
		}
		if info, err := os.Stat(opts.ProjectDir); err != nil || !info.IsDir() {
			fmt.Printf("Go project path %q is not a directory\n", opts.ProjectDir)
			os.Exit(1)
		}
	}

	// Allowed options are handled by the `choice` tag in the struct definition
	opts.LogLevel = strings.ToLower(strings.TrimSpace(opts.LogLevel))

	opts.OutputPath = cleanPath(opts.OutputPath, "output file")
	opts.ConfigPath = cleanPath(opts.ConfigPath, "config file")
	opts.LogFile = cleanPath(opts.LogFile, "log file")

	project, err := config.LoadProjectOptions(opts.ConfigPath)
	if err != nil {
		fmt.Printf("Error loading config file: %v\n", err)
		os.Exit(1)
	}
	opts.Project = project

	// Map string flag to slog.Level
	var level slog.Level
	switch opts.LogLevel {
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		// Should never happen because `LogLevel` options should be validated already
		fmt.Printf("Invalid logLevel %q", opts.LogLevel)
		os.Exit(1)
	}

	//
	// =========== Set up the logger (with tint for colored output) ===========
	//
	handler := tint.NewHandler(colorable.NewColorableStderr(), &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Write `error` values in red
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})

	if opts.LogFile == "" {
		slog.SetDefault(slog.New(handler))
		return func() {}
	}

	// Also send every message to the log file as JSON
	logFile, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Printf("Error opening log file %q: %v\n", opts.LogFile, err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slogmulti.Fanout(
		handler,
		slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}),
	)))
	return func() { logFile.Close() }
}
