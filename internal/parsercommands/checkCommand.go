package parsercommands

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/maxgreen01/go-wheredoc/internal/config"
	"github.com/maxgreen01/go-wheredoc/internal/filewriter"
	"github.com/maxgreen01/go-wheredoc/pkg/doctable"
	"github.com/maxgreen01/go-wheredoc/pkg/parser"
	"golang.org/x/tools/go/packages"

	"github.com/aaronriekenberg/gsm"
	"github.com/jessevdk/go-flags"
)

// Returned by the check command when at least one doc table has a problem.
var ErrProblemsFound = errors.New("problems found in doc tables")

// Implementation of both the Parser Task interface and the Flags package's Commander interface.
// Finds every doc table in a project, runs each through the scenario pipeline, and reports any problems.
type CheckCommand struct {
	// Input flags
	globals *config.GlobalOptions // Avoid embedding because the flag parser treats this as duplicating the global options
	checkOptions

	// Output file writer
	output *filewriter.FileWriter

	// Shared between clones: the same file is loaded once per package variant (e.g. with and without tests),
	// so tables are de-duplicated by location across the whole run
	seen     *gsm.GenericSyncMap[string, *doctable.DocTable]
	problems *atomic.Int64

	// Data fields
	tables []*doctable.DocTable
}

// Command-line flags for the Check command specifically
type checkOptions struct {
	NoFail  bool `long:"noFail" description:"Exit successfully even if problems are found"`
	Verbose bool `long:"verbose" short:"v" description:"Also list tables without problems"`
}

// Compile-time interface implementation check
var _ ParserCommand = (*CheckCommand)(nil)

// Register the command with the global flag parser
func init() {
	RegisterCommand(func(flagParser *flags.Parser, opts *config.GlobalOptions) {
		flagParser.AddCommand("check", "Check every doc table in a Go project for problems", "", NewCheckCommand(opts))
	})
}

// Create a new instance of the CheckCommand using a reference to the global options.
func NewCheckCommand(globals *config.GlobalOptions) *CheckCommand {
	return &CheckCommand{
		globals:  globals,
		seen:     &gsm.GenericSyncMap[string, *doctable.DocTable]{},
		problems: &atomic.Int64{},
	}
}

func (cmd *CheckCommand) Name() string {
	return "check"
}

// Create a new instance of the CheckCommand with the same initial state and flags, COPYING `globals`.
// Note that `output`, `seen` and `problems` are shared by reference between all cloned instances.
func (cmd *CheckCommand) Clone() parser.Task {
	globals := *cmd.globals
	return &CheckCommand{
		globals:      &globals,
		checkOptions: cmd.checkOptions,
		output:       cmd.output,
		seen:         cmd.seen,
		problems:     cmd.problems,
	}
}

// Set the project directory for this task.
func (cmd *CheckCommand) SetProjectDir(dir string) {
	cmd.globals.ProjectDir = dir
}

// Validate the values of this Command's flags, then run the task itself.
// THIS SHOULD ONLY BE CALLED ONCE PER PROGRAM EXECUTION.
func (cmd *CheckCommand) Execute(args []string) error {
	if cmd.globals.OutputPath != "" {
		writer, err := filewriter.NewFileWriter(cmd.globals.OutputPath, cmd.globals.AppendOutput)
		if err != nil {
			return fmt.Errorf("creating output writer for path %q: %w", cmd.globals.OutputPath, err)
		}
		cmd.output = writer
	}

	if err := runParser(cmd, cmd.globals); err != nil {
		return err
	}

	if n := cmd.problems.Load(); n > 0 && !cmd.NoFail {
		return fmt.Errorf("%w: %d table(s)", ErrProblemsFound, n)
	}
	return nil
}

func (cmd *CheckCommand) Visit(file *ast.File, fset *token.FileSet, pkg *packages.Package) {
	for _, dt := range doctable.Find(file, fset, pkg, projectName(cmd.globals), tableOptions(cmd.globals)) {
		if _, loaded := cmd.seen.LoadOrStore(dt.Location(), dt); loaded {
			continue
		}
		cmd.tables = append(cmd.tables, dt)
		if dt.HasProblems() {
			cmd.problems.Add(1)
		}
	}
}

// Return the lines of the human-readable report
func (cmd *CheckCommand) reportLines() []string {
	lines := []string{
		fmt.Sprintf("\n=============  Doc Table Report for %q:  =============\n", cmd.globals.ProjectDir),
	}

	if len(cmd.tables) == 0 {
		return append(lines, "No doc tables found in the specified project.\n")
	}

	problemCount := 0
	for _, dt := range cmd.tables {
		if !dt.HasProblems() {
			if cmd.Verbose {
				lines = append(lines, fmt.Sprintf("ok    %s (%d rows)", dt.Location(), len(dt.Table.Rows)))
			}
			continue
		}

		problemCount++
		lines = append(lines, fmt.Sprintf("FAIL  %s (%s)", dt.Location(), dt.Origin))
		for _, msg := range slices.Concat(dt.Corrections, dt.RowErrors, dt.ConversionErrors) {
			lines = append(lines, "      "+msg)
		}
	}

	return append(lines,
		"",
		fmt.Sprintf("Doc tables found: %d", len(cmd.tables)),
		fmt.Sprintf("Doc tables with problems: %d", problemCount),
		"",
	)
}

func (cmd *CheckCommand) ReportResults() error {
	// Keep the report in source order, even though files may be visited in any order
	slices.SortFunc(cmd.tables, func(a, b *doctable.DocTable) int {
		if c := strings.Compare(a.FilePath, b.FilePath); c != 0 {
			return c
		}
		return a.Line - b.Line
	})

	reportLines := cmd.reportLines()
	slog.Info("Finished running check task on project \"" + cmd.globals.ProjectDir + "\"")
	fmt.Print(strings.Join(reportLines, "\n") + "\n")

	if cmd.output == nil {
		return nil
	}

	switch cmd.output.DetectFormat() {
	case filewriter.FormatTxt:
		return cmd.output.Write(reportLines)

	case filewriter.FormatCSV:
		if len(cmd.tables) == 0 {
			return nil
		}
		rows := make([][]string, 0, len(cmd.tables))
		for _, dt := range cmd.tables {
			rows = append(rows, dt.EncodeAsCSV())
		}
		return cmd.output.Write(rows, cmd.tables[0].GetCSVHeaders())

	case filewriter.FormatJSON, filewriter.FormatYAML:
		if len(cmd.tables) == 0 {
			return nil
		}
		return cmd.output.Write(cmd.tables, true)

	default:
		return fmt.Errorf("unsupported output format (file %q)", cmd.output.GetPath())
	}
}

func (cmd *CheckCommand) Close() {
	if cmd.output != nil {
		cmd.output.Close()
	}
}
