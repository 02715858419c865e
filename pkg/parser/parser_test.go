package parser

import (
	"go/ast"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
)

// Records the files visited by every clone of the task
type recordingTask struct {
	dir     string
	mu      *sync.Mutex
	visited map[string][]string // project dir -> visited file base names
	reports *int
}

func newRecordingTask() *recordingTask {
	return &recordingTask{mu: &sync.Mutex{}, visited: make(map[string][]string), reports: new(int)}
}

func (r *recordingTask) Name() string { return "record" }

func (r *recordingTask) Clone() Task {
	return &recordingTask{mu: r.mu, visited: r.visited, reports: r.reports}
}

func (r *recordingTask) SetProjectDir(dir string) { r.dir = dir }

func (r *recordingTask) Visit(file *ast.File, fset *token.FileSet, pkg *packages.Package) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := filepath.Base(fset.Position(file.Pos()).Filename)
	r.visited[r.dir] = append(r.visited[r.dir], name)
}

func (r *recordingTask) ReportResults() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.reports++
	return nil
}

func (r *recordingTask) Close() {}

// Write a small module with two top-level packages, one of which contains a generated package
func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"go.mod":                "module example.com/sample\n\ngo 1.21\n",
		"alpha/alpha.go":        "package alpha\n\nfunc A() int { return 1 }\n",
		"alpha/alpha_test.go":   "package alpha\n\nimport \"testing\"\n\nfunc TestA(t *testing.T) {}\n",
		"beta/beta.go":          "package beta\n\nfunc B() int { return 2 }\n",
		"beta/generated/gen.go": "package generated\n\nconst X = 1\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func allVisited(task *recordingTask) []string {
	var names []string
	for _, files := range task.visited {
		names = append(names, files...)
	}
	return names
}

func TestParseWholeProject(t *testing.T) {
	root := writeProject(t)
	task := newRecordingTask()

	err := Parse(task, root, false, 1, func(path string) bool {
		return strings.Contains(filepath.ToSlash(path), "/generated/")
	})
	require.NoError(t, err)

	visited := allVisited(task)
	assert.Contains(t, visited, "alpha.go")
	assert.Contains(t, visited, "alpha_test.go")
	assert.Contains(t, visited, "beta.go")
	assert.NotContains(t, visited, "gen.go")
	assert.Equal(t, 1, *task.reports)
}

func TestParseSplitByDir(t *testing.T) {
	root := writeProject(t)
	task := newRecordingTask()

	require.NoError(t, Parse(task, root, true, 2, nil))

	assert.Contains(t, task.visited[filepath.Join(root, "alpha")], "alpha.go")
	assert.Contains(t, task.visited[filepath.Join(root, "beta")], "beta.go")
	assert.Contains(t, task.visited[filepath.Join(root, "beta")], "gen.go")
	assert.Equal(t, 2, *task.reports, "each top-level directory is reported separately")
}

func TestParseErrors(t *testing.T) {
	assert.Error(t, Parse(nil, "dir", false, 1, nil))
	assert.Error(t, Parse(newRecordingTask(), "", false, 1, nil))
	assert.Error(t, Parse(newRecordingTask(), filepath.Join(t.TempDir(), "missing"), true, 1, nil))
}

func TestIsVendored(t *testing.T) {
	assert.True(t, isVendored("/repo/vendor/github.com/x/y.go"))
	assert.False(t, isVendored("/repo/vendored/y.go"))
	assert.False(t, isVendored("/repo/pkg/y.go"))
}
