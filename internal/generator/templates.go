package generator

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

//go:embed templates
var embeddedFS embed.FS

// ContractConstraint is the range of template store contracts this
// generator can fill.
const ContractConstraint = ">= 1.0.0, < 2.0.0"

// ErrTemplateContract is returned when a template store declares a contract
// outside ContractConstraint.
var ErrTemplateContract = errors.New("unsupported template contract")

// Template names the generator expands.
const (
	TmplCMakeLists        = "CMakeLists.txt.tmpl"
	TmplPackageXML        = "package.xml.tmpl"
	TmplMacrosHeader      = "macros.h.tmpl"
	TmplInterfaceHeader   = "temoto_action.h.tmpl"
	TmplUpdateBranch      = "update_branch.tmpl"
	TmplAction            = "action.cpp.tmpl"
	TmplParamDecl         = "param_decl.tmpl"
	TmplParamIn           = "param_in.tmpl"
	TmplParamOut          = "param_out.tmpl"
	TmplLineComment       = "line_comment.tmpl"
	TmplLaunchStandalone  = "action_test_standalone.launch.tmpl"
	TmplLaunchSeparate    = "action_test_separate.launch.tmpl"
	templateManifestName  = "templates.yaml"
	embeddedTemplatesRoot = "templates"
)

// TemplateNames lists every template a store must provide.
var TemplateNames = []string{
	TmplCMakeLists, TmplPackageXML, TmplMacrosHeader, TmplInterfaceHeader,
	TmplUpdateBranch, TmplAction, TmplParamDecl, TmplParamIn, TmplParamOut,
	TmplLineComment, TmplLaunchStandalone, TmplLaunchSeparate,
}

type storeManifest struct {
	Contract    string `yaml:"contract"`
	Description string `yaml:"description"`
}

// Templates is a parsed template store.
type Templates struct {
	contract  *semver.Version
	overrides []string
	set       map[string]*template.Template
}

// LoadTemplates parses the embedded store with every file found in dir
// taking precedence over its embedded counterpart. An empty dir loads the
// embedded store alone. A templates.yaml in dir replaces the embedded
// contract.
func LoadTemplates(dir string) (*Templates, error) {
	embedded, err := fs.Sub(embeddedFS, embeddedTemplatesRoot)
	if err != nil {
		return nil, fmt.Errorf("opening embedded templates: %w", err)
	}

	read := func(name string) ([]byte, bool, error) {
		if dir != "" {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err == nil {
				return data, true, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, false, fmt.Errorf("reading template %s: %w", name, err)
			}
		}
		data, err := fs.ReadFile(embedded, name)
		if err != nil {
			return nil, false, fmt.Errorf("reading embedded template %s: %w", name, err)
		}
		return data, false, nil
	}

	t := &Templates{set: make(map[string]*template.Template, len(TemplateNames))}

	data, _, err := read(templateManifestName)
	if err != nil {
		return nil, err
	}
	var m storeManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", templateManifestName, err)
	}
	if t.contract, err = checkContract(m.Contract); err != nil {
		return nil, err
	}

	for _, name := range TemplateNames {
		data, overridden, err := read(name)
		if err != nil {
			return nil, err
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.set[name] = tmpl
		if overridden {
			t.overrides = append(t.overrides, name)
		}
	}
	return t, nil
}

func checkContract(raw string) (*semver.Version, error) {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a version: %v", ErrTemplateContract, raw, err)
	}
	c, err := semver.NewConstraint(ContractConstraint)
	if err != nil {
		return nil, fmt.Errorf("parsing contract constraint: %w", err)
	}
	if !c.Check(v) {
		return nil, fmt.Errorf("%w: store declares %s, need %s", ErrTemplateContract, v, ContractConstraint)
	}
	return v, nil
}

// Contract returns the contract version the store declares.
func (t *Templates) Contract() *semver.Version { return t.contract }

// Overrides returns the template names taken from the override directory.
func (t *Templates) Overrides() []string { return t.overrides }

// Expand executes the named template with data. Every key the template
// references must be present in data.
func (t *Templates) Expand(name string, data map[string]string) (string, error) {
	tmpl, ok := t.set[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.String(), nil
}
