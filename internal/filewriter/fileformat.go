// Includes functions for actually writing data to files of various formats.
package filewriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Represents the format of an output file.
type FileFormat int

// Represents the different file formats supported by the writer.
// Other packages that use this may choose to only support a subset of these formats.
const (
	FormatUnknown FileFormat = iota
	FormatTxt
	FormatCSV
	FormatJSON
	FormatYAML
)

func (f FileFormat) String() string {
	switch f {
	case FormatTxt:
		return "txt"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// Determine a file's format based on file extension.
// Returns FormatUnknown if the file extension is not recognized or not supported.
func DetectFormat(path string) FileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatTxt
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// Alias for DetectFormat function using the FileWriter's path.
func (writer *FileWriter) DetectFormat() FileFormat {
	return DetectFormat(writer.GetPath())
}

//
// =============== File Append Operations ===============
//

// Represents a generic way to append data to a file. Used by `FileWriter` to prepare and write data to files.
// The `append` method should format, check, and write data as needed for the specific file format.
// The `close` method should close any resources associated with the appender, but NOT the file itself.
// Appenders are not thread-safe, so references to them should not be shared between multiple `FileWriter` instances.
type appender interface {
	// Append data to the file
	append(data any, otherData ...any) error

	// Close any resources associated with the appender, but NOT the file itself
	close() error
}

// Return an `appender` for the given file format using the specified file, or nil if the format is not supported.
func newAppender(format FileFormat, file *os.File) appender {
	switch format {
	case FormatTxt:
		return &textAppender{file: file}
	case FormatCSV:
		return &csvAppender{file: file, writer: csv.NewWriter(file)}
	case FormatJSON:
		return newJsonAppender(file)
	case FormatYAML:
		return &yamlAppender{file: file, encoder: yaml.NewEncoder(file)}
	default:
		return nil
	}
}

// Ensure that some data is of type []T (or optionally just T), always returning the data as []T.
// `prefix` and `dataName` are used to create error messages like "<prefix> requires <dataName> to be of []<T>, got %T".
func enforceTypeSlice[T any](data any, nonSliceAllowed bool, prefix, dataName string) ([]T, error) {
	if slice, ok := data.([]T); ok {
		return slice, nil
	}
	if nonSliceAllowed {
		if val, ok := data.(T); ok {
			return []T{val}, nil
		}
		return nil, fmt.Errorf("%s requires %s to be of type %T or []%[3]T, but got %T", prefix, dataName, *new(T), data)
	}
	return nil, fmt.Errorf("%s requires %s to be of type []%T, but got %T", prefix, dataName, *new(T), data)
}

// Return whether `otherData[0]` asks for slice data to be flattened into separate elements
func flattenRequested(otherData []any) bool {
	if len(otherData) == 0 {
		return false
	}
	flag, ok := otherData[0].(bool)
	return ok && flag
}

// Return the elements of slice data as separate values, or the data itself as a single value
func sliceElements(data any) []any {
	slice := reflect.ValueOf(data)
	if slice.Kind() != reflect.Slice {
		return []any{data}
	}
	elems := make([]any, slice.Len())
	for i := range elems {
		elems[i] = slice.Index(i).Interface()
	}
	return elems
}

//
// ~~~~~~~ `appender` implementation for text files ~~~~~~~
//

type textAppender struct {
	file *os.File
}

// Print strings with each on its own line, appending a newline character at the end.
// Expects `data` to be a string or a slice of strings. `otherData` is ignored.
func (a *textAppender) append(data any, _ ...any) error {
	lines, err := enforceTypeSlice[string](data, true, "writing to text", "data")
	if err != nil {
		return err
	}

	_, err = a.file.WriteString(strings.Join(lines, "\n") + "\n")
	return err
}

func (a *textAppender) close() error { return nil }

//
// ~~~~~~~ `appender` implementation for CSV files ~~~~~~~
//

type csvAppender struct {
	file            *os.File
	writer          *csv.Writer
	existingHeaders []string  // the headers already written to the file, used to ensure data consistency
	once            sync.Once // ensure headers are only initialized (written or read) once
}

// Append rows to a CSV file, with headers provided in `otherData[0]`.
// `data` is either a single row ([]string) or several rows ([][]string).
// Ensures that the provided headers match any existing ones, or writes headers if the file is initially empty.
func (a *csvAppender) append(data any, otherData ...any) error {
	if len(otherData) == 0 {
		return fmt.Errorf("writing to CSV requires headers in otherData[0]")
	}

	rows, ok := data.([][]string)
	if !ok {
		row, err := enforceTypeSlice[string](data, false, "writing to CSV", "data")
		if err != nil {
			return err
		}
		rows = [][]string{row}
	}
	headers, err := enforceTypeSlice[string](otherData[0], false, "writing to CSV", "headers")
	if err != nil {
		return err
	}
	if len(headers) == 0 {
		return fmt.Errorf("writing to CSV requires non-empty headers")
	}
	for _, row := range rows {
		if len(row) != len(headers) {
			return fmt.Errorf("provided CSV row field count (%d) does not match header count (%d)", len(row), len(headers))
		}
	}

	// Only initialize headers once, before the first write
	var headerErr error
	a.once.Do(func() {
		headerErr = a.initHeaders(headers)
	})
	if headerErr != nil {
		return headerErr
	}

	// Check that the provided headers exactly match the existing ones
	if !slices.Equal(headers, a.existingHeaders) {
		return fmt.Errorf("provided CSV headers %v do not match existing headers %v", headers, a.existingHeaders)
	}

	defer a.writer.Flush()
	if err := a.writer.WriteAll(rows); err != nil {
		return err
	}
	return a.writer.Error()
}

// Write headers if the file is empty, or read the existing ones otherwise
func (a *csvAppender) initHeaders(headers []string) error {
	fileInfo, err := a.file.Stat()
	if err != nil {
		return err
	}

	if fileInfo.Size() == 0 {
		if err := a.writer.Write(headers); err != nil {
			return err
		}
		a.existingHeaders = headers
		slog.Debug("Wrote CSV headers", "headers", headers)
		return nil
	}

	// Reopen the file because `Seek` behavior is undefined on files opened with `O_APPEND`
	f, err := os.Open(a.file.Name())
	if err != nil {
		return err
	}
	defer f.Close()

	existing, err := csv.NewReader(f).Read()
	if err != nil {
		return fmt.Errorf("reading CSV headers: %w", err)
	}
	a.existingHeaders = existing
	return nil
}

func (a *csvAppender) close() error {
	a.writer.Flush()
	return a.writer.Error()
}

//
// ~~~~~~~ `appender` implementation for JSON files ~~~~~~~
//

type jsonAppender struct {
	file           *os.File
	encoder        *json.Encoder
	alreadyWritten []any     // in-memory representation of all the data that's already written to the file
	once           sync.Once // only read from the file once to get existing data
}

func newJsonAppender(file *os.File) *jsonAppender {
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")  // Set indentation for pretty printing
	encoder.SetEscapeHTML(false) // Retain characters like '<', '>', '&' in the output
	return &jsonAppender{file: file, encoder: encoder}
}

// Write some data element (of any type) to a JSON file.
// The file always holds a single JSON array, and every write appends to it and rewrites the file.
// If the new data is a slice, `otherData[0]` (expected to be a boolean) indicates whether
// to flatten the slice elements into the array instead of appending the slice as a nested array.
func (a *jsonAppender) append(data any, otherData ...any) error {
	var readingErr error
	a.once.Do(func() {
		readingErr = a.readExisting()
	})
	if readingErr != nil {
		return readingErr
	}

	if flattenRequested(otherData) {
		elems := sliceElements(data)
		a.alreadyWritten = slices.Grow(a.alreadyWritten, len(elems))
		a.alreadyWritten = append(a.alreadyWritten, elems...)
	} else {
		a.alreadyWritten = append(a.alreadyWritten, data)
	}

	// Clear the file and write the updated data
	if err := a.file.Truncate(0); err != nil {
		return err
	}
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return a.encoder.Encode(a.alreadyWritten)
}

// Read any data already in the file, so new elements are added to it
func (a *jsonAppender) readExisting() error {
	f, err := os.Open(a.file.Name())
	if err != nil {
		return err
	}
	defer f.Close()

	var existing any
	if err := json.NewDecoder(f).Decode(&existing); err != nil {
		if err == io.EOF {
			return nil // Nothing to read
		}
		return fmt.Errorf("reading existing JSON data: %w", err)
	}

	// Wrap single elements in a slice so they can be appended to
	if v, ok := existing.([]any); ok {
		a.alreadyWritten = v
	} else {
		a.alreadyWritten = []any{existing}
	}
	return nil
}

func (a *jsonAppender) close() error { return nil }

//
// ~~~~~~~ `appender` implementation for YAML files ~~~~~~~
//

type yamlAppender struct {
	file    *os.File
	encoder *yaml.Encoder
	once    sync.Once
}

// Write data to a YAML file as a new document in the stream.
// If the data is a slice and `otherData[0]` is true, each element is written as its own document.
func (a *yamlAppender) append(data any, otherData ...any) error {
	// Separate new documents from any that are already in the file
	var sepErr error
	a.once.Do(func() {
		info, err := a.file.Stat()
		if err != nil {
			sepErr = err
			return
		}
		if info.Size() > 0 {
			_, sepErr = a.file.WriteString("---\n")
		}
	})
	if sepErr != nil {
		return sepErr
	}

	docs := []any{data}
	if flattenRequested(otherData) {
		docs = sliceElements(data)
	}
	for _, doc := range docs {
		if err := a.encoder.Encode(doc); err != nil {
			return fmt.Errorf("encoding YAML document: %w", err)
		}
	}
	return nil
}

func (a *yamlAppender) close() error {
	return a.encoder.Close()
}
