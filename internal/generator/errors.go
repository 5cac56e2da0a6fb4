package generator

import (
	"fmt"

	"github.com/temoto-labs/taassist/internal/umrf"
)

// UnknownTypeWarning notes a parameter whose declared type has no alias.
// The declared type is written to the output verbatim.
type UnknownTypeWarning struct {
	Direction umrf.Direction
	Parameter string
	Type      string
}

func (w UnknownTypeWarning) String() string {
	return fmt.Sprintf("%s parameter %q: type %q has no alias, used verbatim", w.Direction, w.Parameter, w.Type)
}

// FilesystemError reports a directory or file that could not be written.
// Files written before the failure are left in place.
type FilesystemError struct {
	Op   string // "mkdir" or "write"
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }
