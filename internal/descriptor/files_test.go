package descriptor

import (
	"errors"
	"path/filepath"
	"testing"
)

const testdataDir = "testdata"

func testPath(parts ...string) string {
	return filepath.Join(append([]string{testdataDir}, parts...)...)
}

func TestReadNodeFile(t *testing.T) {
	n, err := ReadNodeFile(testPath("actions", "ta_grab", "umrf.json"))
	if err != nil {
		t.Fatalf("ReadNodeFile error: %v", err)
	}
	if n.Name != "TaGrab" {
		t.Errorf("Name = %q, want %q", n.Name, "TaGrab")
	}
	if n.PackageName != "ta_grab" {
		t.Errorf("PackageName = %q, want %q", n.PackageName, "ta_grab")
	}
	want := []string{"object::name", "object::pose", "force"}
	got := n.Inputs.Names()
	if len(got) != len(want) {
		t.Fatalf("Inputs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Inputs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	force, _ := n.Inputs.Get("force")
	if force.Value != 2.5 {
		t.Errorf("force value = %v, want 2.5", force.Value)
	}
}

func TestReadNodeFileYAML(t *testing.T) {
	n, err := ReadNodeFile(testPath("actions", "ta_look.umrf.yaml"))
	if err != nil {
		t.Fatalf("ReadNodeFile error: %v", err)
	}
	if n.Effect != "asynchronous" {
		t.Errorf("Effect = %q, want %q", n.Effect, "asynchronous")
	}
	if len(n.Children) != 1 || n.Children[0].Name != "TaGrab" || n.Children[0].Suffix != 0 {
		t.Errorf("Children = %v, want [TaGrab:0]", n.Children)
	}
}

func TestReadNodeFileParseErrorCarriesPath(t *testing.T) {
	path := testPath("actions", "broken.umrf.json")
	_, err := ReadNodeFile(path)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if pe.Path != path {
		t.Errorf("Path = %q, want %q", pe.Path, path)
	}
}

func TestReadNodeFileNotFound(t *testing.T) {
	_, err := ReadNodeFile(testPath("nonexistent.umrf.json"))
	if err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestWriteAndReadGraphFile(t *testing.T) {
	g := sampleGraph(t)
	path := filepath.Join(t.TempDir(), "nested", GraphFileName(g.Name, YAML))
	if err := WriteGraphFile(path, g); err != nil {
		t.Fatalf("WriteGraphFile error: %v", err)
	}
	got, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile error: %v", err)
	}
	if !g.Equal(got) {
		t.Errorf("graph read back differs from graph written")
	}
}

func TestWriteNodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ta_pick.umrf.json")
	want := sampleNode(t)
	if err := WriteNodeFile(path, want); err != nil {
		t.Fatalf("WriteNodeFile error: %v", err)
	}
	got, err := ReadNodeFile(path)
	if err != nil {
		t.Fatalf("ReadNodeFile error: %v", err)
	}
	if !want.Equal(got) {
		t.Errorf("node read back differs from node written")
	}
}

func TestFindFiles(t *testing.T) {
	files, err := FindFiles(testPath("actions"), IsNodeFile)
	if err != nil {
		t.Fatalf("FindFiles error: %v", err)
	}
	want := []string{
		testPath("actions", "broken.umrf.json"),
		testPath("actions", "ta_grab", "umrf.json"),
		testPath("actions", "ta_look.umrf.yaml"),
	}
	if len(files) != len(want) {
		t.Fatalf("FindFiles = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestFindFilesMissingRoot(t *testing.T) {
	files, err := FindFiles(filepath.Join(t.TempDir(), "missing"), IsNodeFile)
	if err != nil {
		t.Fatalf("FindFiles error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("FindFiles = %v, want none", files)
	}
}

func TestFileNameConventions(t *testing.T) {
	tests := []struct {
		path                 string
		node, graph, library bool
	}{
		{"umrf.json", true, false, false},
		{"pkg/umrf.yml", true, false, false},
		{"ta_x.umrf.json", true, false, false},
		{".umrf.json", false, false, false},
		{"demo.umrfg.json", false, true, false},
		{"demo.umrfg.yaml", false, true, false},
		{"loc.param.umrf.json", false, false, true},
		{"umrf.js", false, false, false},
		{"umrf", false, false, false},
		{"notes.json", false, false, false},
	}
	for _, tt := range tests {
		if got := IsNodeFile(tt.path); got != tt.node {
			t.Errorf("IsNodeFile(%q) = %v, want %v", tt.path, got, tt.node)
		}
		if got := IsGraphFile(tt.path); got != tt.graph {
			t.Errorf("IsGraphFile(%q) = %v, want %v", tt.path, got, tt.graph)
		}
		if got := IsLibraryFile(tt.path); got != tt.library {
			t.Errorf("IsLibraryFile(%q) = %v, want %v", tt.path, got, tt.library)
		}
	}
}

func TestLoadLibrary(t *testing.T) {
	lib, err := LoadLibrary(testPath("library"))
	if err != nil {
		t.Fatalf("LoadLibrary error: %v", err)
	}
	if len(lib.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(lib.Entries))
	}
	if len(lib.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(lib.Errors))
	}
	var pe *ParseError
	if !errors.As(lib.Errors[0], &pe) || filepath.Base(pe.Path) != "bad.param.umrf.json" {
		t.Errorf("unexpected library error: %v", lib.Errors[0])
	}

	loc, ok := lib.Entry("location")
	if !ok {
		t.Fatal("entry location not found")
	}
	if !loc.Compound {
		t.Error("location should be compound")
	}
	if loc.Parameters.Len() != 2 {
		t.Errorf("location has %d parameters, want 2", loc.Parameters.Len())
	}

	name, ok := lib.Entry("name")
	if !ok {
		t.Fatal("entry name not found")
	}
	if name.Compound {
		t.Error("name should not be compound")
	}
	p, _ := name.Parameters.Get("name")
	if p.Example != "robot" {
		t.Errorf("Example = %q, want %q", p.Example, "robot")
	}
}
