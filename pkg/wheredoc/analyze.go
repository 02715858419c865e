package wheredoc

import (
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
)

// Keys must look like identifiers: start with a letter, `$`, or `_`, followed by letters, digits, `$`, or `_`.
var keyPattern = regexp.MustCompile(`^[A-Za-z$_][A-Za-z0-9$_]*$`)

// Check the outline of a table (its keys, its rows, and the callback) for problems that must be corrected
// before any row can be turned into a scenario.
// Every check is evaluated, and each problem found produces its own correction scenario, in this order:
//   - the callback is not a func
//   - there are no data rows
//   - there are no keys
//   - some keys are duplicated
//   - a key is not a valid identifier (one correction per invalid key)
//
// Returns an empty slice if the outline is valid.
func Analyze(keys []string, rows [][]string, callback any) []*Scenario {
	var messages []string

	if !IsCallable(callback) {
		messages = append(messages, fmt.Sprintf("Expected callback to be a func but was %s.", describeType(callback)))
	}

	if len(rows) == 0 {
		messages = append(messages, fmt.Sprintf("No data rows defined for keys, [%s].", strings.Join(keys, ", ")))
	}

	if len(keys) == 0 {
		messages = append(messages, "No keys defined.")
	}

	if dupes := duplicateKeys(keys); len(dupes) > 0 {
		messages = append(messages, fmt.Sprintf("Duplicate keys: [%s].", strings.Join(dupes, ", ")))
	}

	for _, key := range keys {
		if !keyPattern.MatchString(key) {
			messages = append(messages, fmt.Sprintf("Invalid key, %s, expected to start with A-z, $, or _ (Key, key, $key, _Key).", key))
		}
	}

	corrections := make([]*Scenario, 0, len(messages))
	for _, msg := range messages {
		corrections = append(corrections, newCorrection(keys, rows, msg))
	}

	if len(corrections) > 0 {
		slog.Debug("Found corrections in table outline", "keys", keys, "rows", len(rows), "corrections", len(corrections))
	}
	return corrections
}

// Return each key that appears more than once, listed a single time in the order its first duplicate was seen.
func duplicateKeys(keys []string) []string {
	visited := make(map[string]bool, len(keys))
	reported := make(map[string]bool)

	var dupes []string
	for _, key := range keys {
		if visited[key] && !reported[key] {
			reported[key] = true
			dupes = append(dupes, key)
		}
		visited[key] = true
	}
	return dupes
}

// Return whether the value is a non-nil func that can be invoked as a scenario callback.
func IsCallable(callback any) bool {
	v := reflect.ValueOf(callback)
	return v.Kind() == reflect.Func && !v.IsNil()
}

// Describe the runtime type of a value for error messages, distinguishing typed nil funcs.
func describeType(v any) string {
	if v == nil {
		return "nil"
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func && rv.IsNil() {
		return fmt.Sprintf("nil %T", v)
	}
	return fmt.Sprintf("%T", v)
}
