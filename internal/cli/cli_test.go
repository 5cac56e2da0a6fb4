package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temoto-labs/taassist/internal/config"
	"github.com/temoto-labs/taassist/internal/descriptor"
	"github.com/temoto-labs/taassist/internal/umrf"
)

// execute runs the root command with args against an isolated config file
// and returns what the command printed to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TAASSIST_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	return executeWithConfig(t, args...)
}

func executeWithConfig(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.Reset()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func newAction(t *testing.T, dir, name string) string {
	t.Helper()
	_, err := execute(t, "new", name, "--dir", dir)
	require.NoError(t, err)
	return filepath.Join(dir, umrf.DerivePackageName(name), "umrf.json")
}

func TestNewWritesDescriptor(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "new", "Pick Place", "--dir", dir, "--effect", "asynchronous", "--description", "pick it")
	require.NoError(t, err)

	path := filepath.Join(dir, "ta_pick_place", "umrf.json")
	assert.Contains(t, out, "Created "+path)

	n, err := descriptor.ReadNodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Pick Place", n.Name)
	assert.Equal(t, "ta_pick_place", n.PackageName)
	assert.Equal(t, umrf.EffectAsynchronous, n.Effect)
	assert.Equal(t, "pick it", n.Description)

	_, err = execute(t, "new", "Pick Place", "--dir", dir)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "new", "Other", "--dir", dir, "--effect", "eventually")
	assert.ErrorIs(t, err, umrf.ErrUnknownEffect)
}

func TestNewYAML(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "new", "Look", "--dir", dir, "--format", "yaml")
	require.NoError(t, err)
	_, err = descriptor.ReadNodeFile(filepath.Join(dir, "ta_look", "umrf.yaml"))
	require.NoError(t, err)
}

func TestParamEditing(t *testing.T) {
	path := newAction(t, t.TempDir(), "Look")

	_, err := execute(t, "param", "set", path, "camera::exposure", "number", "--value", "0.5", "--example", "0.25")
	require.NoError(t, err)
	_, err = execute(t, "param", "set", path, "target", "string")
	require.NoError(t, err)
	_, err = execute(t, "param", "set", path, "ok", "bool", "--output")
	require.NoError(t, err)

	_, err = execute(t, "param", "set", path, "target", "number")
	var dup *umrf.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	_, err = execute(t, "param", "set", path, "target", "number", "--force")
	require.NoError(t, err)

	_, err = execute(t, "param", "set", path, "gain", "number", "--value", "loud")
	assert.ErrorContains(t, err, "not a number")

	out, err := execute(t, "show", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Look\n")
	assert.Contains(t, out, "  effect: synchronous\n")
	assert.Contains(t, out, "  camera/ (input)\n")
	assert.Contains(t, out, "    exposure: number = 0.5 (e.g. 0.25) [input]\n")
	assert.Contains(t, out, "  target: number [input]\n")
	assert.Contains(t, out, "  ok: bool [output]\n")

	n, err := descriptor.ReadNodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"camera::exposure", "target"}, n.Inputs.Names())
	assert.Equal(t, []string{"ok"}, n.Outputs.Names())
}

func TestParamGroupOperations(t *testing.T) {
	path := newAction(t, t.TempDir(), "Grab")
	for _, name := range []string{"arm::x", "arm::y", "force"} {
		_, err := execute(t, "param", "set", path, name, "number")
		require.NoError(t, err)
	}

	_, err := execute(t, "param", "subgroup", path, "force", "grip")
	require.NoError(t, err)
	_, err = execute(t, "param", "rename-group", path, "arm", "hand")
	require.NoError(t, err)
	_, err = execute(t, "param", "ungroup", path, "hand::y")
	require.NoError(t, err)

	n, err := descriptor.ReadNodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hand::x", "y", "grip::force"}, n.Inputs.Names())

	_, err = execute(t, "param", "ungroup", path, "y")
	assert.ErrorIs(t, err, umrf.ErrNoNamespace)

	out, err := execute(t, "param", "rm-group", path, "hand")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 input parameters from hand")

	_, err = execute(t, "param", "rm", path, "y")
	require.NoError(t, err)
	_, err = execute(t, "param", "rm", path, "y")
	assert.ErrorIs(t, err, umrf.ErrNotFound)

	n, err = descriptor.ReadNodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"grip::force"}, n.Inputs.Names())
}

func TestParamLibrary(t *testing.T) {
	lib := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(lib, "pose.param.umrf.json"),
		[]byte(`{"pose": {"x": {"pvf_type": "number"}, "y": {"pvf_type": "number"}}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "label.param.umrf.json"),
		[]byte(`{"label": {"pvf_type": "string"}}`), 0o644))

	out, err := execute(t, "param", "library", "--library", lib)
	require.NoError(t, err)
	assert.Regexp(t, `label\s+single\s+1`, out)
	assert.Regexp(t, `pose\s+compound\s+2`, out)

	path := newAction(t, t.TempDir(), "Place")
	out, err = execute(t, "param", "import", path, "pose", "--library", lib)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported pose (2 input parameters)")

	_, err = execute(t, "param", "import", path, "pose", "--library", lib)
	var dup *umrf.DuplicateNameError
	require.ErrorAs(t, err, &dup)

	_, err = execute(t, "param", "import", path, "missing", "--library", lib)
	assert.ErrorIs(t, err, umrf.ErrNotFound)

	n, err := descriptor.ReadNodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"pose::x", "pose::y"}, n.Inputs.Names())

	_, err = execute(t, "param", "library")
	assert.ErrorContains(t, err, config.KeyParametersPath)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := newAction(t, dir, "Good")
	bad := filepath.Join(dir, "bad.umrf.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"suffix": 0}`), 0o644))

	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+good)

	out, err = execute(t, "validate", good, bad)
	assert.EqualError(t, err, "1 of 2 descriptors invalid")
	assert.Contains(t, out, "✗ "+bad)
}

func TestGraphEditing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.umrfg.json")

	_, err := execute(t, "graph", "new", path, "demo", "--description", "a demo")
	require.NoError(t, err)
	_, err = execute(t, "graph", "new", filepath.Join(t.TempDir(), "demo.json"), "demo")
	assert.ErrorContains(t, err, "graph files end in")
	_, err = execute(t, "graph", "new", filepath.Join(t.TempDir(), "x.umrfg.json"), "../escaped")
	assert.ErrorIs(t, err, umrf.ErrInvalidName)

	for _, name := range []string{"Find", "Grab", "Grab"} {
		_, err := execute(t, "graph", "add", path, name)
		require.NoError(t, err)
	}
	out, err := execute(t, "graph", "add", path, "Grab", "--suffix", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Grab:5")

	_, err = execute(t, "graph", "connect", path, "Find", "Grab:1")
	require.NoError(t, err)
	out, err = execute(t, "graph", "rename", path, "Grab:1", "Place")
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed Grab:1 to Place:1")

	gr, err := descriptor.ReadGraphFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a demo", gr.Description)
	assert.Equal(t, 4, gr.Len())
	find, ok := gr.Node(umrf.Relation{Name: "Find"})
	require.True(t, ok)
	assert.Equal(t, []umrf.Relation{{Name: "Place", Suffix: 1}}, find.Children)
	require.NoError(t, gr.Validate())

	_, err = execute(t, "graph", "rm", path, "Place:1")
	require.NoError(t, err)
	_, err = execute(t, "graph", "disconnect", path, "Find", "Missing")
	assert.ErrorIs(t, err, umrf.ErrNotFound)

	gr, err = descriptor.ReadGraphFile(path)
	require.NoError(t, err)
	find, _ = gr.Node(umrf.Relation{Name: "Find"})
	assert.Empty(t, find.Children)
	assert.Equal(t, 3, gr.Len())
}

func TestGraphAddFromDescriptor(t *testing.T) {
	dir := t.TempDir()
	action := newAction(t, dir, "Look")
	_, err := execute(t, "param", "set", action, "target", "string")
	require.NoError(t, err)

	path := filepath.Join(dir, "g.umrfg.yaml")
	_, err = execute(t, "graph", "new", path, "g")
	require.NoError(t, err)
	_, err = execute(t, "graph", "add", path, action)
	require.NoError(t, err)

	gr, err := descriptor.ReadGraphFile(path)
	require.NoError(t, err)
	n, ok := gr.Node(umrf.Relation{Name: "Look"})
	require.True(t, ok)
	assert.True(t, n.Inputs.Has("target"))
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want umrf.Relation
		err  bool
	}{
		{"Grab", umrf.Relation{Name: "Grab"}, false},
		{"Grab:3", umrf.Relation{Name: "Grab", Suffix: 3}, false},
		{"Grab:x", umrf.Relation{Name: "Grab:x"}, false},
		{"Grab:-1", umrf.Relation{}, true},
		{"", umrf.Relation{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRef(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateAndCatalog(t *testing.T) {
	src, actions := t.TempDir(), t.TempDir()
	path := newAction(t, src, "pick place")
	_, err := execute(t, "param", "set", path, "object", "string", "--example", "cup")
	require.NoError(t, err)

	out, err := execute(t, "generate", path, "--actions-path", actions)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated "+filepath.Join(actions, "ta_pick_place"))
	assert.Contains(t, out, "Generated: 1  Skipped: 0  Failed: 0")
	assert.FileExists(t, filepath.Join(actions, "ta_pick_place", "src", "ta_pick_place.cpp"))

	out, err = execute(t, "generate", path, "--actions-path", actions)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated: 0  Skipped: 1  Failed: 0")

	out, err = execute(t, "generate", path, "--actions-path", actions, "--no-catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Generated: 1  Skipped: 0  Failed: 0")

	out, err = execute(t, "catalog", "list", "--path", actions, "--json")
	require.NoError(t, err)
	var entries []catalogEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "ta_pick_place", entries[0].Package)
	assert.Equal(t, "TaPickPlace", entries[0].Action)

	out, err = execute(t, "catalog", "show", "TaPickPlace", "--path", actions)
	require.NoError(t, err)
	assert.Contains(t, out, "TaPickPlace\n")
	assert.Contains(t, out, "object: string [input]")

	_, err = execute(t, "catalog", "show", "Nothing", "--path", actions)
	assert.ErrorIs(t, err, umrf.ErrNotFound)
}

func TestGenerateGraphWritesGraphFile(t *testing.T) {
	dir, actions, graphs := t.TempDir(), t.TempDir(), t.TempDir()
	path := filepath.Join(dir, "demo.umrfg.json")
	_, err := execute(t, "graph", "new", path, "demo")
	require.NoError(t, err)
	for _, name := range []string{"find object", "grab"} {
		_, err := execute(t, "graph", "add", path, name)
		require.NoError(t, err)
	}
	_, err = execute(t, "graph", "connect", path, "find object", "grab")
	require.NoError(t, err)

	out, err := execute(t, "generate", path, "--actions-path", actions, "--graphs-path", graphs)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated: 2  Skipped: 0  Failed: 0")

	gr, err := descriptor.ReadGraphFile(filepath.Join(graphs, "demo.umrfg.json"))
	require.NoError(t, err)
	grab, ok := gr.Node(umrf.Relation{Name: "TaGrab"})
	require.True(t, ok)
	assert.Equal(t, []umrf.Relation{{Name: "TaFindObject"}}, grab.Parents)
}

func TestCatalogListEmpty(t *testing.T) {
	out, err := execute(t, "catalog", "list", "--path", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No actions found.")
}

func TestConfigSetGet(t *testing.T) {
	t.Setenv("TAASSIST_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))

	out, err := executeWithConfig(t, "config", "set", "actions_path", "/opt/actions")
	require.NoError(t, err)
	assert.Equal(t, "Set actions_path = /opt/actions\n", out)

	out, err = executeWithConfig(t, "config", "get", "actions_path")
	require.NoError(t, err)
	assert.Equal(t, "/opt/actions\n", out)

	out, err = executeWithConfig(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, os.Getenv("TAASSIST_CONFIG")+"\n", out)
}

func TestConfigFeedsActionsPath(t *testing.T) {
	actions := t.TempDir()
	t.Setenv("TAASSIST_ACTIONS_PATH", actions)
	t.Setenv("TAASSIST_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))

	_, err := executeWithConfig(t, "new", "Env Action")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(actions, "ta_env_action", "umrf.json"))
}

func TestVersion(t *testing.T) {
	buildVersion = "1.2.3"
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, ">= 1.0.0, < 2.0.0", info["template_contract"])
	assert.Equal(t, "github.com/temoto-labs/taassist", info["module"])
}

func TestVerboseRejectsBadLogLevel(t *testing.T) {
	t.Setenv("TAASSIST_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("TAASSIST_LOG_LEVEL", "loud")
	_, err := executeWithConfig(t, "version")
	assert.ErrorContains(t, err, "loud")
}

func TestDoctor(t *testing.T) {
	actions := t.TempDir()
	t.Setenv("TAASSIST_ACTIONS_PATH", actions)
	t.Setenv("TAASSIST_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	newAction(t, actions, "Grab")

	out, err := executeWithConfig(t, "doctor", "--check-templates", "--check-actions", "--check-library")
	require.NoError(t, err)
	assert.Contains(t, out, "[ OK ] contract 1.0.0 satisfies")
	assert.Contains(t, out, "[ OK ] 1 actions under "+actions)
	assert.Contains(t, out, "[INFO] parameters_path not set")

	require.NoError(t, os.WriteFile(filepath.Join(actions, "broken.umrf.json"), []byte("{"), 0o644))
	out, err = executeWithConfig(t, "doctor", "--check-actions")
	assert.EqualError(t, err, "doctor found problems")
	assert.Contains(t, out, "[FAIL]")
}
