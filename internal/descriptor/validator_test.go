package descriptor

import "testing"

func TestValidateFile_Valid(t *testing.T) {
	for _, file := range []string{"ta_grab/umrf.json", "ta_look.umrf.yaml"} {
		t.Run(file, func(t *testing.T) {
			result, err := ValidateFile(testPath("actions", file))
			if err != nil {
				t.Fatalf("ValidateFile(%s) error: %v", file, err)
			}
			if !result.Valid {
				for _, issue := range result.Issues {
					t.Errorf("  path=%s keyword=%s message=%s", issue.Path, issue.Keyword, issue.Message)
				}
			}
		})
	}
}

func TestValidateFile_Invalid(t *testing.T) {
	result, err := ValidateFile(testPath("actions", "broken.umrf.json"))
	if err != nil {
		t.Fatalf("ValidateFile error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid, got valid")
	}
	for _, issue := range result.Issues {
		if issue.Message == "" {
			t.Errorf("issue at %s has no message", issue.Path)
		}
	}
}

func TestValidate_Graph(t *testing.T) {
	doc := []byte("graph_name: demo\numrf_actions:\n  - name: A\n  - name: B\n    suffix: 1\n")
	result, err := Validate(doc, YAML)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !result.Valid {
		t.Errorf("expected valid graph, got %d issues", len(result.Issues))
	}

	result, err = Validate([]byte(`{"graph_name": "", "umrf_actions": [{"suffix": 0}]}`), JSON)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if result.Valid {
		t.Error("expected invalid graph, got valid")
	}
}

func TestValidate_InvalidYAML(t *testing.T) {
	_, err := Validate([]byte("name: [unclosed"), YAML)
	if err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestValidate_GraphNameIsAFileStem(t *testing.T) {
	for _, name := range []string{"../escaped", "sub/graph", "..", `dir\\graph`} {
		t.Run(name, func(t *testing.T) {
			doc := []byte(`{"graph_name": "` + name + `", "umrf_actions": []}`)
			result, err := Validate(doc, JSON)
			if err != nil {
				t.Fatalf("Validate error: %v", err)
			}
			if result.Valid {
				t.Errorf("graph_name %q accepted, want rejected", name)
			}
		})
	}
}
