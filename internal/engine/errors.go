package engine

import (
	"fmt"
	"strings"
)

// NotFoundError reports that no dataset file exists at any candidate location.
type NotFoundError struct {
	Tried []string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("conflict dataset not found; tried:")
	for _, p := range e.Tried {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	fmt.Fprintf(&b, "\nset %s to the file's absolute path, pass --data <path>, or place %s next to the binary",
		DefaultEnvVar, DefaultRelPath)
	return b.String()
}

// SchemaError reports a mandatory column missing from the source header.
type SchemaError struct {
	Missing string
	Header  []string
}

func (e *SchemaError) Error() string {
	if len(e.Header) == 0 {
		return fmt.Sprintf("missing required column %q: source has no header", e.Missing)
	}
	return fmt.Sprintf("missing required column %q (header: %s)", e.Missing, strings.Join(e.Header, ", "))
}
