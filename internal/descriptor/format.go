package descriptor

import (
	"path/filepath"
	"strings"
)

// Format is the text encoding of a descriptor document.
type Format int

const (
	JSON Format = iota
	YAML
)

func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "json"
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == YAML {
		return ".yaml"
	}
	return ".json"
}

// FormatFromPath picks the format from the file extension; anything that is
// not .yaml or .yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Conventional descriptor file names.
const (
	NodeBase      = "umrf"        // umrf.json at a package root
	NodeSuffix    = ".umrf"       // <name>.umrf.json
	GraphSuffix   = ".umrfg"      // <graph_name>.umrfg.json
	LibrarySuffix = ".param.umrf" // <entry>.param.umrf.json
	InvokerGraph  = "invoker_umrf_graph"
)

// stem returns base without a recognised descriptor extension, and whether
// one was present.
func stem(base string) (string, bool) {
	switch strings.ToLower(filepath.Ext(base)) {
	case ".json", ".yaml", ".yml":
		return strings.TrimSuffix(base, filepath.Ext(base)), true
	}
	return base, false
}

// IsNodeFile reports whether the base name follows a node descriptor
// convention: umrf.<ext> or <name>.umrf.<ext>. Library entries do not count.
func IsNodeFile(path string) bool {
	s, ok := stem(filepath.Base(path))
	if !ok {
		return false
	}
	if strings.HasSuffix(s, LibrarySuffix) {
		return false
	}
	return s == NodeBase || (strings.HasSuffix(s, NodeSuffix) && len(s) > len(NodeSuffix))
}

// IsGraphFile reports whether the base name is <graph_name>.umrfg.<ext>.
func IsGraphFile(path string) bool {
	s, ok := stem(filepath.Base(path))
	return ok && strings.HasSuffix(s, GraphSuffix) && len(s) > len(GraphSuffix)
}

// IsLibraryFile reports whether the base name is <entry>.param.umrf.<ext>.
func IsLibraryFile(path string) bool {
	s, ok := stem(filepath.Base(path))
	return ok && strings.HasSuffix(s, LibrarySuffix) && len(s) > len(LibrarySuffix)
}

// GraphFileName returns the file name a graph is written under.
func GraphFileName(graphName string, f Format) string {
	return graphName + GraphSuffix + f.Ext()
}
