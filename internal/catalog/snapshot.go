package catalog

import (
	"slices"
	"time"

	"github.com/temoto-labs/taassist/internal/umrf"
)

// Entry is one indexed descriptor.
type Entry struct {
	Node *umrf.Node
	Path string
}

// Snapshot is the result of one scan. It is never modified after being
// published.
type Snapshot struct {
	ScannedAt time.Time
	Errors    []error // descriptors skipped because they failed to parse

	byPackage map[string]Entry
	byNode    map[string]string // node name -> package name
	names     []string
}

func newSnapshot(entries []Entry, errs []error, at time.Time) *Snapshot {
	s := &Snapshot{
		ScannedAt: at,
		Errors:    errs,
		byPackage: make(map[string]Entry, len(entries)),
		byNode:    make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		pkg := e.Node.ResolvedPackageName()
		if _, dup := s.byPackage[pkg]; dup {
			continue
		}
		s.byPackage[pkg] = e
		if _, dup := s.byNode[e.Node.Name]; !dup {
			s.byNode[e.Node.Name] = pkg
		}
		s.names = append(s.names, pkg)
	}
	slices.Sort(s.names)
	return s
}

func (s *Snapshot) lookup(name string) (Entry, bool) {
	if e, ok := s.byPackage[name]; ok {
		return e, true
	}
	if pkg, ok := s.byNode[name]; ok {
		return s.byPackage[pkg], true
	}
	return Entry{}, false
}

// Get returns a copy of the node indexed under name, which may be a package
// name or a node name.
func (s *Snapshot) Get(name string) (*umrf.Node, bool) {
	e, ok := s.lookup(name)
	if !ok {
		return nil, false
	}
	return e.Node.Clone(), true
}

// Path returns the descriptor file the node under name was read from.
func (s *Snapshot) Path(name string) (string, bool) {
	e, ok := s.lookup(name)
	return e.Path, ok
}

// Has reports whether name is a known package name or node name.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.lookup(name)
	return ok
}

// Count returns the number of indexed packages.
func (s *Snapshot) Count() int { return len(s.names) }

// Names returns the indexed package names, sorted.
func (s *Snapshot) Names() []string { return slices.Clone(s.names) }
