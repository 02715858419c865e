// Utility package for writing report data to files in different formats.
// To synchronize multiple places that can write to the same file, pass around a reference to the same `FileWriter` instance.
package filewriter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Provides a simple, thread-safe way to write data to files in different formats.
// File format is automatically detected based on the file extension.
// Only one distinct `FileWriter` instance should refer to any particular file at a time.
type FileWriter struct {
	// Path to the output file. If the path does not contain a directory, (e.g. "output.txt"),
	// the file is placed in the default output directory.
	path string

	// The detected format of the output file, based on the file extension of the provided path.
	format FileFormat

	// Whether to append to the output file instead of overwriting it if the file already exists.
	append bool

	// Reference to the file being written to, or `nil` if it is not open.
	file *os.File

	// Format-specific helper that prepares and writes data to the file.
	appender appender

	mu sync.Mutex
}

// Creates a new FileWriter and opens its file, creating any missing directories.
// If the path does not contain a directory, the file will be placed in the default output directory.
func NewFileWriter(path string, append bool) (*FileWriter, error) {
	writer := &FileWriter{append: append}
	if err := writer.SetPath(path); err != nil {
		return nil, fmt.Errorf("constructing FileWriter: %w", err)
	}
	return writer, nil
}

// Gets the output file path for this FileWriter instance in a thread-safe manner.
func (writer *FileWriter) GetPath() string {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	return writer.path
}

// Gets the directory containing the output file.
func (writer *FileWriter) GetPathDir() string {
	return filepath.Dir(writer.GetPath())
}

// Sets the output file path and format for this FileWriter instance in a thread-safe manner,
// then opens the file and initializes related fields.
func (writer *FileWriter) SetPath(path string) error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if path == "" {
		return errors.New("empty output file path")
	}

	// Close the opened file (if any) before replacing it
	if writer.file != nil {
		slog.Debug("Closing existing FileWriter resources before updating them", "oldPath", writer.path, "newPath", path)
		writer.closeLocked()
	}

	// If the path doesn't have a directory, prepend the output directory
	if filepath.Dir(path) == "." {
		outputDir, err := GetDefaultOutputDir()
		if err != nil {
			return fmt.Errorf("setting output file path: %w", err)
		}
		path = filepath.Join(outputDir, path)
	}

	format := DetectFormat(path)
	if format == FormatUnknown {
		return fmt.Errorf("unsupported output file format (file %q)", path)
	}
	writer.path = path
	writer.format = format

	return writer.openFile()
}

// Write data to the file associated with this FileWriter instance, with file format automatically detected.
// The provided arguments will have a different form depending on the file format:
//   - For text files, `data` is a string or a slice of strings (one per line), and `otherData` is ignored.
//   - For CSV files, `data` is a single record ([]string) or several records ([][]string), and
//     `otherData[0]` holds the CSV headers, which are written if the file is empty.
//   - For JSON and YAML files, `data` can be anything that can be encoded. If `otherData[0]` is true,
//     the elements of slice data are written individually instead of as a single nested value.
func (writer *FileWriter) Write(data any, otherData ...any) error {
	if data == nil {
		return nil // Nothing to write
	}

	// Only allow one write operation at a time per FileWriter instance
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.file == nil || writer.appender == nil {
		return errors.New("writer is not properly initialized - try calling SetPath() first")
	}

	if err := writer.appender.append(data, otherData...); err != nil {
		return fmt.Errorf("writing data to output file %q: %w", writer.path, err)
	}

	slog.Debug("Data written successfully to file", "outputPath", writer.path)
	return nil
}

// Close the output file and any associated resources, or do nothing if they are already closed.
// This should only be called when the FileWriter is no longer needed and all data has been written.
func (writer *FileWriter) Close() {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	writer.closeLocked()
}

func (writer *FileWriter) closeLocked() {
	if writer.file == nil {
		return // Nothing to close
	}
	slog.Debug("Closing FileWriter resources", "outputPath", writer.path)

	if writer.appender != nil {
		if err := writer.appender.close(); err != nil {
			slog.Error("Error closing FileWriter appender", "err", err, "outputPath", writer.path)
		}
	}
	writer.appender = nil

	if err := writer.file.Close(); err != nil {
		slog.Error("Error closing FileWriter output file", "err", err, "outputPath", writer.path)
	}
	writer.file = nil
}

//
// =============== Utility functions ===============
//

// Open the output file for writing, creating it if it doesn't exist and respecting the `append` flag.
// Also populates the `appender` field based on the detected file format.
// Must be called with the lock held.
func (writer *FileWriter) openFile() error {
	path := writer.path

	// Create the path's directory (including parents) if it doesn't already exist.
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	// Clear the existing file if it already exists (unless the `append` flag is set)
	flag := os.O_CREATE | os.O_RDWR
	if writer.append {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return fmt.Errorf("opening output file %q: %w", path, err)
	}
	writer.file = f
	writer.appender = newAppender(writer.format, f)
	return nil
}

// Default directory name for output files, relative to the current working directory.
const defaultOutputDirName = "wheredoc-output"

// Get the default output directory, relative to the current working directory
func GetDefaultOutputDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting default output directory: %w", err)
	}
	return filepath.Join(cwd, defaultOutputDirName), nil
}
