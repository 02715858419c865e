package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/maxgreen01/go-wheredoc/pkg/docsource"
)

// Settings describing how doc tables are written in a particular project.
// Loaded from a TOML or YAML file, e.g.
//
//	label = "where:"
//	where_calls = ["wheredoc.Where"]
//	build_calls = ["wheredoc.Build"]
//	exclude = ["testdata", "third_party/"]
type ProjectOptions struct {
	Label      string   `toml:"label" yaml:"label"`             // the label line that introduces a table inside a callback
	WhereCalls []string `toml:"where_calls" yaml:"where_calls"` // calls taking a callback (or Spec) as their first argument
	BuildCalls []string `toml:"build_calls" yaml:"build_calls"` // calls taking a table string and a callback
	Exclude    []string `toml:"exclude" yaml:"exclude"`         // path fragments of files that should not be scanned
}

// Return the settings used when no config file is provided.
func DefaultProjectOptions() ProjectOptions {
	return ProjectOptions{
		Label:      docsource.DefaultLabel,
		WhereCalls: []string{"wheredoc.Where"},
		BuildCalls: []string{"wheredoc.Build"},
	}
}

// Represents the format of a config file.
type fileFormat int

const (
	formatUnknown fileFormat = iota
	formatTOML
	formatYAML
)

// Determine a config file's format based on its extension
func detectFormat(path string) fileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return formatTOML
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatUnknown
	}
}

// Load project settings from a TOML or YAML file. Settings missing from the file keep their default values.
// An empty path returns the defaults.
func LoadProjectOptions(path string) (ProjectOptions, error) {
	opts := DefaultProjectOptions()
	if path == "" {
		return opts, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading config file: %w", err)
	}

	switch detectFormat(path) {
	case formatTOML:
		if err := toml.Unmarshal(content, &opts); err != nil {
			return opts, fmt.Errorf("parsing TOML config file %q: %w", path, err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(content, &opts); err != nil {
			return opts, fmt.Errorf("parsing YAML config file %q: %w", path, err)
		}
	default:
		return opts, fmt.Errorf("unsupported config file format (file %q)", path)
	}

	return opts.normalize(), nil
}

// Trim every setting and drop empty entries, restoring defaults for settings that end up empty
func (opts ProjectOptions) normalize() ProjectOptions {
	defaults := DefaultProjectOptions()

	opts.Label = strings.TrimSpace(opts.Label)
	if opts.Label == "" {
		opts.Label = defaults.Label
	}

	opts.WhereCalls = cleanList(opts.WhereCalls)
	opts.BuildCalls = cleanList(opts.BuildCalls)
	if len(opts.WhereCalls) == 0 && len(opts.BuildCalls) == 0 {
		opts.WhereCalls = defaults.WhereCalls
		opts.BuildCalls = defaults.BuildCalls
	}

	opts.Exclude = cleanList(opts.Exclude)
	return opts
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" && !slices.Contains(out, item) {
			out = append(out, item)
		}
	}
	return out
}

// Return whether a file path contains any of the excluded fragments.
func (opts ProjectOptions) IsExcluded(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, fragment := range opts.Exclude {
		if strings.Contains(slashed, filepath.ToSlash(fragment)) {
			return true
		}
	}
	return false
}
