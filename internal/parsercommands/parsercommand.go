package parsercommands

import (
	"path/filepath"

	"github.com/maxgreen01/go-wheredoc/internal/config"
	"github.com/maxgreen01/go-wheredoc/pkg/doctable"
	"github.com/maxgreen01/go-wheredoc/pkg/parser"

	"github.com/jessevdk/go-flags"
)

// Represents an application command, which is registered with the flag parser and run by the `main` function.
type Command interface {
	flags.Commander
	Name() string
	Close()
}

// Represents an application command that can be executed as a task by the parser.
// This is a combination of both the Parser's Task interface and the Flags package's Commander interface.
// Stores input flags for the task, as well as fields representing the data to be collected.
//
// Implementations of this interface should include fields for global and command-specific options,
// as well as fields for any data that needs to be collected during the execution of the task.
// Implementations should use the `init` function to register themselves via the command registry.
type ParserCommand interface {
	parser.Task
	flags.Commander
}

// Stores anonymous functions used to register each command with the flag parser, which are all called by the `main` function.
// Should only be modified by calling `RegisterCommand` in the `init` function of each command implementation.
var CommandRegistry []func(*flags.Parser, *config.GlobalOptions)

// Prepares a command for use by saving the function that registers it in the flag parser.
func RegisterCommand(registerFunc func(*flags.Parser, *config.GlobalOptions)) {
	CommandRegistry = append(CommandRegistry, registerFunc)
}

// Build the doc table discovery settings from the loaded project settings
func tableOptions(globals *config.GlobalOptions) doctable.Options {
	return doctable.Options{
		Label:      globals.Project.Label,
		WhereCalls: globals.Project.WhereCalls,
		BuildCalls: globals.Project.BuildCalls,
	}
}

// Run a parser command over the configured project
func runParser(cmd ParserCommand, globals *config.GlobalOptions) error {
	return parser.Parse(cmd, globals.ProjectDir, globals.SplitByDir, globals.Threads, globals.Project.IsExcluded)
}

// Return the project name used in reports
func projectName(globals *config.GlobalOptions) string {
	return filepath.Base(globals.ProjectDir)
}
