//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	SourceDir  string // hand-written descriptors and graphs
	ActionsDir string // generated packages
	GraphsDir  string // generated graph descriptors
	LibraryDir string // predefined parameter library
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		SourceDir:  t.TempDir(),
		ActionsDir: t.TempDir(),
		GraphsDir:  t.TempDir(),
		LibraryDir: t.TempDir(),
	}
}

// setupLibrary writes a small parameter library into dir.
func setupLibrary(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "pose.param.umrf.json"), `{
  "pose": {
    "position": {
      "x": { "pvf_type": "number" },
      "y": { "pvf_type": "number" }
    },
    "frame": { "pvf_type": "string", "pvf_example": "map" }
  }
}
`)
	writeFile(t, filepath.Join(dir, "label.param.umrf.yaml"), `label:
  pvf_type: string
`)
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
