package parsercommands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/maxgreen01/go-wheredoc/internal/config"
	"github.com/maxgreen01/go-wheredoc/internal/filewriter"
	"github.com/maxgreen01/go-wheredoc/pkg/docsource"
	"github.com/maxgreen01/go-wheredoc/pkg/doctable"
	"github.com/maxgreen01/go-wheredoc/pkg/wheredoc"

	"github.com/jessevdk/go-flags"
)

// Implementation of the Flags package's Commander interface.
// Converts a single doc table from a file (or stdin) into records, without scanning a project.
type RenderCommand struct {
	// Input flags
	globals *config.GlobalOptions
	renderOptions

	// Where input is read from when the input path is "-", and where records are printed without an output file
	stdin  io.Reader
	stdout io.Writer

	output *filewriter.FileWriter
}

// Command-line flags for the Render command specifically
type renderOptions struct {
	InputPath string `long:"input" short:"i" description:"Path to a file containing a doc table, or \"-\" for stdin" default:"-"`
	Strict    bool   `long:"strict" description:"Fail if the table has any problems, instead of only reporting them"`
}

// Compile-time interface implementation check
var _ Command = (*RenderCommand)(nil)

// Register the command with the global flag parser
func init() {
	RegisterCommand(func(flagParser *flags.Parser, opts *config.GlobalOptions) {
		flagParser.AddCommand("render", "Convert a single doc table into records", "", NewRenderCommand(opts))
	})
}

// Create a new instance of the RenderCommand using a reference to the global options.
func NewRenderCommand(globals *config.GlobalOptions) *RenderCommand {
	return &RenderCommand{
		globals: globals,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}
}

func (cmd *RenderCommand) Name() string {
	return "render"
}

// Read the table's text. If the input contains the configured label, only the table following it is kept.
func (cmd *RenderCommand) readTable() (string, error) {
	var data []byte
	var err error
	if cmd.InputPath == "" || cmd.InputPath == "-" {
		data, err = io.ReadAll(cmd.stdin)
	} else {
		data, err = os.ReadFile(cmd.InputPath)
	}
	if err != nil {
		return "", fmt.Errorf("reading doc table input: %w", err)
	}

	text := string(data)
	label := cmd.globals.Project.Label
	if label == "" {
		label = docsource.DefaultLabel
	}
	if strings.Contains(text, label) {
		return docsource.ExtractLabel(text, label), nil
	}
	return text, nil
}

// Read and convert the table, then write its records.
func (cmd *RenderCommand) Execute(args []string) error {
	text, err := cmd.readTable()
	if err != nil {
		return err
	}

	dt := doctable.New(text, doctable.OriginBuild, true)
	dt.FilePath = cmd.InputPath
	for _, msg := range dt.Corrections {
		slog.Warn("Doc table needs correction", "problem", msg)
	}
	for _, msg := range dt.RowErrors {
		slog.Warn("Skipping invalid row", "problem", msg)
	}
	for _, msg := range dt.ConversionErrors {
		slog.Warn("Could not convert value", "problem", msg)
	}

	if err := cmd.writeRecords(dt); err != nil {
		return err
	}

	if cmd.Strict && dt.HasProblems() {
		return fmt.Errorf("%w: %q", ErrProblemsFound, cmd.InputPath)
	}
	return nil
}

// Return each record as a line of `key=value` pairs, in key order
func recordLines(dt *doctable.DocTable) []string {
	lines := make([]string, 0, len(dt.Records))
	for _, record := range dt.Records {
		pairs := make([]string, 0, len(dt.Table.Keys))
		for _, key := range dt.Table.Keys {
			pairs = append(pairs, key+"="+wheredoc.Format(record[key]))
		}
		lines = append(lines, strings.Join(pairs, ", "))
	}
	return lines
}

// Return each record as a CSV row, in key order
func recordRows(dt *doctable.DocTable) [][]string {
	rows := make([][]string, 0, len(dt.Records))
	for _, record := range dt.Records {
		row := make([]string, 0, len(dt.Table.Keys))
		for _, key := range dt.Table.Keys {
			row = append(row, wheredoc.Format(record[key]))
		}
		rows = append(rows, row)
	}
	return rows
}

func (cmd *RenderCommand) writeRecords(dt *doctable.DocTable) error {
	if cmd.globals.OutputPath == "" {
		for _, line := range recordLines(dt) {
			if _, err := fmt.Fprintln(cmd.stdout, line); err != nil {
				return err
			}
		}
		return nil
	}

	writer, err := filewriter.NewFileWriter(cmd.globals.OutputPath, cmd.globals.AppendOutput)
	if err != nil {
		return fmt.Errorf("creating output writer for path %q: %w", cmd.globals.OutputPath, err)
	}
	cmd.output = writer

	if len(dt.Records) == 0 {
		return nil
	}

	switch writer.DetectFormat() {
	case filewriter.FormatTxt:
		return writer.Write(recordLines(dt))
	case filewriter.FormatCSV:
		return writer.Write(recordRows(dt), dt.Table.Keys)
	case filewriter.FormatJSON, filewriter.FormatYAML:
		return writer.Write(doctable.EncodeRecords(dt.Records), true)
	default:
		return fmt.Errorf("unsupported output format (file %q)", writer.GetPath())
	}
}

func (cmd *RenderCommand) Close() {
	if cmd.output != nil {
		cmd.output.Close()
	}
}
