package parsercommands

import (
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"
	"strconv"
	"strings"

	"github.com/maxgreen01/go-wheredoc/internal/config"
	"github.com/maxgreen01/go-wheredoc/internal/filewriter"
	"github.com/maxgreen01/go-wheredoc/pkg/doctable"
	"github.com/maxgreen01/go-wheredoc/pkg/parser"
	"golang.org/x/tools/go/packages"

	"github.com/aaronriekenberg/gsm"
	"github.com/jessevdk/go-flags"
)

// Implementation of both the Parser Task interface and the Flags package's Commander interface.
// Collects statistics about the doc tables in a project.
type StatsCommand struct {
	// Input flags
	globals *config.GlobalOptions
	statsOptions

	// Output file writer
	output *filewriter.FileWriter

	// Shared between clones
	seenFiles  *gsm.GenericSyncMap[string, struct{}]
	seenTables *gsm.GenericSyncMap[string, struct{}]

	// Output fields
	Stats ProjectStats
}

// Command-line flags for the Stats command specifically
type statsOptions struct {
}

// Represents the statistics collected about a single project (or top-level directory, when splitting by directory)
type ProjectStats struct {
	Project      string         `json:"project" yaml:"project"`
	FileCount    int            `json:"files" yaml:"files"`         // Go files visited
	TestFiles    int            `json:"testFiles" yaml:"testFiles"` // files ending in "_test.go"
	TableCount   int            `json:"tables" yaml:"tables"`
	TestTables   int            `json:"testTables" yaml:"testTables"` // tables inside valid test functions
	RowCount     int            `json:"rows" yaml:"rows"`
	CellCount    int            `json:"cells" yaml:"cells"`
	ProblemCount int            `json:"tablesWithProblems" yaml:"tablesWithProblems"`
	ValueKinds   map[string]int `json:"valueKinds" yaml:"valueKinds"`
}

// Compile-time interface implementation check
var _ ParserCommand = (*StatsCommand)(nil)

// Register the command with the global flag parser
func init() {
	RegisterCommand(func(flagParser *flags.Parser, opts *config.GlobalOptions) {
		flagParser.AddCommand("stats", "Collect statistics about the doc tables in a Go project", "", NewStatsCommand(opts))
	})
}

// Create a new instance of the StatsCommand using a reference to the global options.
func NewStatsCommand(globals *config.GlobalOptions) *StatsCommand {
	return &StatsCommand{
		globals:    globals,
		seenFiles:  &gsm.GenericSyncMap[string, struct{}]{},
		seenTables: &gsm.GenericSyncMap[string, struct{}]{},
		Stats:      ProjectStats{ValueKinds: make(map[string]int)},
	}
}

func (cmd *StatsCommand) Name() string {
	return "stats"
}

// Create a new instance of the StatsCommand with the same initial state and flags, COPYING `globals`.
// The output writer and de-duplication maps are shared by reference.
func (cmd *StatsCommand) Clone() parser.Task {
	globals := *cmd.globals
	return &StatsCommand{
		globals:      &globals,
		statsOptions: cmd.statsOptions,
		output:       cmd.output,
		seenFiles:    cmd.seenFiles,
		seenTables:   cmd.seenTables,
		Stats:        ProjectStats{ValueKinds: make(map[string]int)},
	}
}

// Set the project directory for this task.
func (cmd *StatsCommand) SetProjectDir(dir string) {
	cmd.globals.ProjectDir = dir
}

// Validate the values of this Command's flags, then run the task itself.
// THIS SHOULD ONLY BE CALLED ONCE PER PROGRAM EXECUTION.
func (cmd *StatsCommand) Execute(args []string) error {
	if cmd.globals.OutputPath != "" {
		writer, err := filewriter.NewFileWriter(cmd.globals.OutputPath, cmd.globals.AppendOutput)
		if err != nil {
			return fmt.Errorf("creating output writer for path %q: %w", cmd.globals.OutputPath, err)
		}
		cmd.output = writer
	}

	return runParser(cmd, cmd.globals)
}

func (cmd *StatsCommand) Visit(file *ast.File, fset *token.FileSet, pkg *packages.Package) {
	fileName := fset.Position(file.Pos()).Filename
	if _, loaded := cmd.seenFiles.LoadOrStore(fileName, struct{}{}); loaded {
		return
	}

	cmd.Stats.FileCount++
	if strings.HasSuffix(fileName, "_test.go") {
		cmd.Stats.TestFiles++
	}

	for _, dt := range doctable.Find(file, fset, pkg, projectName(cmd.globals), tableOptions(cmd.globals)) {
		if _, loaded := cmd.seenTables.LoadOrStore(dt.Location(), struct{}{}); loaded {
			continue
		}

		cmd.Stats.TableCount++
		if dt.IsTest {
			cmd.Stats.TestTables++
		}
		cmd.Stats.RowCount += len(dt.Table.Rows)
		cmd.Stats.CellCount += dt.NumCells()
		if dt.HasProblems() {
			cmd.Stats.ProblemCount++
		}
		for kind, count := range dt.ValueKinds {
			cmd.Stats.ValueKinds[kind] += count
		}
	}
}

// Return the lines of the human-readable report
func (cmd *StatsCommand) reportLines() []string {
	s := cmd.Stats
	lines := []string{
		fmt.Sprintf("\n=================  Statistics Report for %q:  =================\n", cmd.globals.ProjectDir),
	}

	if s.TableCount == 0 {
		return append(lines, "No doc tables found in the specified project.\n")
	}

	return append(lines,
		fmt.Sprintf("Total number of doc tables: %d", s.TableCount),
		fmt.Sprintf("Doc tables inside test functions: %d", s.TestTables),
		fmt.Sprintf("Doc tables with problems: %d", s.ProblemCount),
		"",
		fmt.Sprintf("Number of '_test.go' files: %d", s.TestFiles),
		fmt.Sprintf("Total number of Go files: %d", s.FileCount),
		"",
		fmt.Sprintf("Total rows: %d", s.RowCount),
		fmt.Sprintf("Total cells: %d", s.CellCount),
		fmt.Sprintf("Average rows per table: %.1f", float64(s.RowCount)/float64(s.TableCount)),
		fmt.Sprintf("Converted values by kind: %s", doctable.FormatKindCounts(s.ValueKinds)),
		"",
	)
}

// Return the CSV headers for the statistics
func (cmd *StatsCommand) csvHeaders() []string {
	return []string{"project", "files", "testFiles", "tables", "testTables", "rows", "cells", "tablesWithProblems", "valueKinds"}
}

// Return the statistics as a CSV row, in the same order as `csvHeaders`
func (cmd *StatsCommand) csvRow() []string {
	s := cmd.Stats
	return []string{
		s.Project,
		strconv.Itoa(s.FileCount),
		strconv.Itoa(s.TestFiles),
		strconv.Itoa(s.TableCount),
		strconv.Itoa(s.TestTables),
		strconv.Itoa(s.RowCount),
		strconv.Itoa(s.CellCount),
		strconv.Itoa(s.ProblemCount),
		doctable.FormatKindCounts(s.ValueKinds),
	}
}

func (cmd *StatsCommand) ReportResults() error {
	cmd.Stats.Project = projectName(cmd.globals)

	reportLines := cmd.reportLines()
	slog.Info("Finished running stats task on project \"" + cmd.globals.ProjectDir + "\"")
	fmt.Print(strings.Join(reportLines, "\n") + "\n")

	if cmd.output == nil {
		return nil
	}

	switch cmd.output.DetectFormat() {
	case filewriter.FormatTxt:
		return cmd.output.Write(reportLines)
	case filewriter.FormatCSV:
		return cmd.output.Write(cmd.csvRow(), cmd.csvHeaders())
	case filewriter.FormatJSON, filewriter.FormatYAML:
		return cmd.output.Write(cmd.Stats)
	default:
		return fmt.Errorf("unsupported output format (file %q)", cmd.output.GetPath())
	}
}

func (cmd *StatsCommand) Close() {
	if cmd.output != nil {
		cmd.output.Close()
	}
}
