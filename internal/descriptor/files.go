package descriptor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/temoto-labs/taassist/internal/umrf"
)

// ReadNodeFile reads and decodes a node descriptor. The format follows the
// file extension.
func ReadNodeFile(path string) (*umrf.Node, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	n, err := DecodeNode(data, FormatFromPath(path))
	return n, withPath(err, path)
}

// WriteNodeFile encodes n and writes it to path, creating parent
// directories.
func WriteNodeFile(path string, n *umrf.Node) error {
	data, err := EncodeNode(n, FormatFromPath(path))
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// ReadGraphFile reads and decodes a graph descriptor.
func ReadGraphFile(path string) (*umrf.Graph, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	g, err := DecodeGraph(data, FormatFromPath(path))
	return g, withPath(err, path)
}

// WriteGraphFile encodes g and writes it to path.
func WriteGraphFile(path string, g *umrf.Graph) error {
	data, err := EncodeGraph(g, FormatFromPath(path))
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	return nil
}

// FindFiles walks root and returns every file accepted by match, in lexical
// order. Hidden directories are not entered. A missing root yields no files.
func FindFiles(root string, match func(path string) bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if match(path) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return out, nil
}

// LibraryEntry is one predefined parameter (or parameter group) that can be
// copied into a node.
type LibraryEntry struct {
	Name       string // first top-level key
	Compound   bool   // the entry is a group rather than a single parameter
	Parameters *umrf.Parameters
	Path       string
}

// Library is the content of a parameter library directory.
type Library struct {
	Entries []LibraryEntry
	Errors  []error // files that were skipped, as *ParseError
}

// LoadLibrary reads every *.param.umrf.{json,yaml,yml} file under dir.
// Files that fail to parse are recorded in Errors and skipped.
func LoadLibrary(dir string) (*Library, error) {
	paths, err := FindFiles(dir, IsLibraryFile)
	if err != nil {
		return nil, err
	}

	lib := &Library{}
	for _, path := range paths {
		data, err := readFile(path)
		if err != nil {
			lib.Errors = append(lib.Errors, &ParseError{Path: path, Err: err})
			continue
		}
		ps, err := DecodeParameters(data, FormatFromPath(path))
		if err != nil {
			lib.Errors = append(lib.Errors, withPath(err, path))
			continue
		}
		if ps.Len() == 0 {
			lib.Errors = append(lib.Errors, &ParseError{Path: path, Err: errors.New("library entry has no parameters")})
			continue
		}
		first := ps.Slice()[0]
		lib.Entries = append(lib.Entries, LibraryEntry{
			Name:       first.Segments()[0],
			Compound:   first.Namespace() != "",
			Parameters: ps,
			Path:       path,
		})
	}
	return lib, nil
}

// Entry returns the library entry with the given name.
func (l *Library) Entry(name string) (LibraryEntry, bool) {
	for _, e := range l.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return LibraryEntry{}, false
}
