package descriptor

import (
	"fmt"
	"strings"
)

// ParseError reports a descriptor that could not be decoded: malformed
// syntax, schema violations or content the in-memory model rejects.
type ParseError struct {
	Path   string            // file path, empty for in-memory input
	Err    error             // syntax or model error, nil when Issues is set
	Issues []ValidationIssue // schema violations
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parsing descriptor")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for i, issue := range e.Issues {
		sep := "; "
		if i == 0 {
			sep = ": "
		}
		at := issue.Path
		if at == "" {
			at = "(root)"
		}
		fmt.Fprintf(&b, "%s%s %s", sep, at, issue.Message)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// withPath returns err with its ParseError path set, or err unchanged.
func withPath(err error, path string) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Path = path
	}
	return err
}
