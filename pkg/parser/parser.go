// General-purpose parser for Go source files, using the Task interface to specify behavior.
package parser

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"
)

// The Task interface defines a task that can be performed on all the Go source files in a project.
// This includes a method to visit each source file, and another to report results after all files have been processed.
// Implementations should include fields (either public or private) to track progress, results, etc. across the entire project.
type Task interface {
	Name() string

	// Create a new instance of the Task with the same initial state and options, used when parsing directories concurrently.
	// Resources that are safe for concurrent use (like output writers) may be shared between clones.
	Clone() Task

	// Set the project directory that this Task instance is responsible for.
	SetProjectDir(dir string)

	Visit(file *ast.File, fset *token.FileSet, pkg *packages.Package)
	ReportResults() error
	Close()
}

// Decides whether a file should be skipped entirely. Returning true skips the file.
type ExcludeFunc func(path string) bool

// Runs the specified task on all Go source files in the given directory.
// If `splitByDir` is true, parses each top-level directory in the specified directory separately (ignoring top-level Go files),
// using up to `threads` goroutines. Each directory is handled by its own clone of `task`.
// Files for which `exclude` returns true are skipped, as are vendored files and files with errors.
func Parse(task Task, rootDir string, splitByDir bool, threads int, exclude ExcludeFunc) error {
	if task == nil {
		return errors.New("nil task")
	}
	if rootDir == "" {
		return errors.New("empty root directory")
	}
	if exclude == nil {
		exclude = func(string) bool { return false }
	}

	slog.Info("Running task on directory", "task", task.Name(), "dir", rootDir, "splitByDir", splitByDir)

	if !splitByDir {
		task.SetProjectDir(rootDir)
		return parseDir(task, rootDir, exclude)
	}

	// Parse each top-level directory separately
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return fmt.Errorf("reading root directory: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(max(threads, 1))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		subDir := filepath.Join(rootDir, entry.Name())

		g.Go(func() error {
			clone := task.Clone()
			clone.SetProjectDir(subDir)
			if err := parseDir(clone, subDir, exclude); err != nil {
				return fmt.Errorf("parsing subdirectory %q: %w", subDir, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Iterates over all Go source files in the specified directory and runs the provided task on each file.
// After processing all files, calls the task's ReportResults method to output any accumulated results.
func parseDir(task Task, dir string, exclude ExcludeFunc) error {
	slog.Debug("Parsing directory", "dir", dir, "task", task.Name())

	fset := token.NewFileSet()
	cfg := &packages.Config{
		Mode:  packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedForTest,
		Dir:   dir,
		Fset:  fset,
		Tests: true, // doc tables live in test files
	}

	// Construct a pattern to load all packages in the specified directory and its subdirectories
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return fmt.Errorf("loading packages: %w", err)
	}

	// ========== Iterate over all packages ==========
	for _, pkg := range pkgs {
		// Generated test main packages only hold files from the build cache
		if strings.HasSuffix(pkg.ID, ".test") {
			continue
		}

		// Build a "set" of filepaths that have errors in this package before iterating files
		errFiles := make(map[string]struct{}, len(pkg.Errors))
		for _, e := range pkg.Errors {
			if file, _, found := strings.Cut(e.Pos, ":"); found && file != "" {
				errFiles[file] = struct{}{}
			}
		}

		// ========== Iterate over all files in the package ==========
		for _, file := range pkg.Syntax {
			filePath := fset.Position(file.Pos()).Filename

			if isVendored(filePath) {
				slog.Debug("Skipping vendored file", "file", filePath)
				continue
			}
			if exclude(filePath) {
				slog.Debug("Skipping excluded file", "file", filePath)
				continue
			}
			if _, found := errFiles[filePath]; found {
				slog.Info("Skipping file with errors", "file", filePath)
				continue
			}

			task.Visit(file, fset, pkg)
		}
	}

	slog.Debug("Finished parsing all source files in directory", "dir", dir)
	if err := task.ReportResults(); err != nil {
		return fmt.Errorf("reporting results: %w", err)
	}
	return nil
}

// Return whether a file lives inside a `vendor` directory
func isVendored(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "vendor" {
			return true
		}
	}
	return false
}
