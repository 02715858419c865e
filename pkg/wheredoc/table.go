// Core pipeline for turning a pipe-delimited "doc string" table into runnable test scenarios.
// The pipeline is Parse -> Analyze -> (Convert -> Map) per row, orchestrated by Build and Where.
// None of the functions in this package hold any state between calls.
package wheredoc

import (
	"regexp"
	"strings"
)

// Represents a parsed doc string table: the header row of keys, followed by the data rows.
// A Table should be treated as immutable once it has been parsed.
type Table struct {
	Keys []string   // the tokens of the first non-empty line
	Rows [][]string // the tokens of every following non-empty line, in order
}

var (
	lineCommentPattern = regexp.MustCompile(`//[^\n]*`)
	continuationSuffix = regexp.MustCompile(`\\$`)
	fencePostPattern   = regexp.MustCompile(`^\|.*\|$`)
)

// Parse a doc string into its keys and rows. Parsing is purely lexical, so no token is interpreted here.
//
// The following formatting rules are applied:
//   - `//` starts a line comment, which is removed along with everything after it on that line
//   - each line is trimmed, and a single trailing `\` (from old-style multiline strings) is removed
//   - outer table borders are removed when a line both starts and ends with `|`
//   - empty lines are skipped
//   - each remaining line is split on `|`, and every token is trimmed
func Parse(doc string) Table {
	text := lineCommentPattern.ReplaceAllString(strings.TrimSpace(doc), "")

	var lines [][]string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(continuationSuffix.ReplaceAllString(strings.TrimSpace(raw), ""))

		// Remove external fence posts, e.g. `| a | b |` becomes `a | b`
		if fencePostPattern.MatchString(line) {
			line = strings.TrimSpace(line[1 : len(line)-1])
		}

		if line == "" {
			continue
		}

		parts := strings.Split(line, "|")
		tokens := make([]string, len(parts))
		for i, part := range parts {
			tokens[i] = strings.TrimSpace(part)
		}
		lines = append(lines, tokens)
	}

	// Both fields are always non-nil so callers can range and compare without special cases
	table := Table{Keys: []string{}, Rows: [][]string{}}
	if len(lines) > 0 {
		table.Keys = lines[0]
		table.Rows = lines[1:]
	}
	return table
}
