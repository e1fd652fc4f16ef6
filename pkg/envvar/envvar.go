// Package envvar applies environment variable overrides to configuration
// fields. Each setter is a no-op when the variable name is empty, the variable
// is unset or empty, or its value does not parse; the target keeps its
// current value in those cases.
package envvar

import (
	"os"
	"strconv"
	"strings"
)

func lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v := os.Getenv(name)
	return v, v != ""
}

// String overrides target with the value of name.
func String(name string, target *string) {
	if v, ok := lookup(name); ok {
		*target = v
	}
}

// Int overrides target with the integer value of name.
func Int(name string, target *int) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*target = n
		}
	}
}

// Bool overrides target with the strconv.ParseBool value of name.
func Bool(name string, target *bool) {
	if v, ok := lookup(name); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*target = b
		}
	}
}

// List overrides target with the comma-separated items of name.
// Items are trimmed and blanks dropped.
func List(name string, target *[]string) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	items := make([]string, 0)
	for item := range strings.SplitSeq(v, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	*target = items
}

// Fields overrides target with the whitespace-separated words of name.
func Fields(name string, target *[]string) {
	if v, ok := lookup(name); ok {
		if fields := strings.Fields(v); len(fields) > 0 {
			*target = fields
		}
	}
}
