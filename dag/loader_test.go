package dag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/abcompare/errors"
)

// memoryLoader is a test helper for in-memory manifest loading.
type memoryLoader struct {
	manifests map[string]*Manifest
}

func (m *memoryLoader) Load(name string) (*Manifest, error) {
	p, ok := m.manifests[name]
	if !ok {
		return nil, fmt.Errorf("manifest %q not found", name)
	}
	return p, nil
}

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.RegisterAction("noop", func(context.Context, Vars) StepResult { return Succeeded(nil) })
	reg.Register("publish", func(params map[string]any) (Action, error) {
		key, _ := params["key"].(string)
		if key == "" {
			return nil, fmt.Errorf("publish needs a key")
		}
		return func(context.Context, Vars) StepResult {
			return Succeeded(Vars{key: Bool(true)})
		}, nil
	})
	return reg
}

func TestLoadManifest_FromFile(t *testing.T) {
	dir := t.TempDir()
	yamlContent := `
name: smoke
description: generate then score
vars:
  sampleId: s1
  strength: 0.4
steps:
  - id: generate
    action: noop
    timeout: 2m
  - id: benchmark
    action: publish
    depends_on: [generate]
    params:
      key: scored
`
	path := filepath.Join(dir, "smoke.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "smoke" || len(m.Steps) != 2 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if m.Steps[0].Timeout != 2*time.Minute {
		t.Errorf("expected 2m timeout, got %v", m.Steps[0].Timeout)
	}

	seed, err := m.Seed()
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := seed.String("sampleId"); s != "s1" {
		t.Errorf("unexpected seed %v", seed)
	}
	if n, _ := seed.Number("strength"); n != 0.4 {
		t.Errorf("unexpected strength %v", n)
	}

	def, err := ResolveManifest(m, testRegistry(), nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	res, err := (&Runner{}).Run(context.Background(), def, seed)
	if err != nil || !res.Succeeded() {
		t.Fatalf("expected run to succeed, got %v %v", res.Status, err)
	}
	if ok, _ := res.FinalContext.Bool("scored"); !ok {
		t.Errorf("expected published key, got %v", res.FinalContext)
	}
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "name: x\nsteps:\n  - id: a\n    action: noop\n    dependz: [b]\n"},
		{"missing name", "steps: []\n"},
		{"malformed", "name: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tc.yaml))
			if !errors.HasCode(err, errors.ErrCodeInvalidPipeline) {
				t.Fatalf("expected INVALID_PIPELINE, got %v", err)
			}
		})
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "none.yaml"))
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestFileManifestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "shared", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "top.yml"), []byte("name: top\nsteps: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "inner.yaml"), []byte("name: inner\nsteps: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewFileManifestLoader(dir)
	for _, name := range []string{"top", "inner"} {
		m, err := loader.Load(name)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if m.Name != name {
			t.Errorf("expected %q, got %q", name, m.Name)
		}
	}

	if _, err := loader.Load("nonexistent"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestResolveManifest_UnknownAction(t *testing.T) {
	m := &Manifest{Name: "x", Steps: []StepDef{{ID: "a", Action: "missing"}}}
	_, err := ResolveManifest(m, testRegistry(), nil)
	if !errors.HasCode(err, errors.ErrCodeInvalidPipeline) || !strings.Contains(err.Error(), "unknown action") {
		t.Fatalf("expected unknown action error, got %v", err)
	}
}

func TestResolveManifest_FactoryError(t *testing.T) {
	m := &Manifest{Name: "x", Steps: []StepDef{{ID: "a", Action: "publish"}}}
	_, err := ResolveManifest(m, testRegistry(), nil)
	if !errors.HasCode(err, errors.ErrCodeInvalidPipeline) || !strings.Contains(err.Error(), "needs a key") {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestResolveManifest_WithIncludes(t *testing.T) {
	sub := &Manifest{Name: "sub", Steps: []StepDef{
		{ID: "a", Action: "noop"},
		{ID: "b", Action: "noop", DependsOn: []string{"a"}},
	}}
	main := &Manifest{Name: "main", Includes: []string{"sub"}, Steps: []StepDef{
		{ID: "c", Action: "noop", DependsOn: []string{"b"}},
	}}

	loader := &memoryLoader{manifests: map[string]*Manifest{"sub": sub}}
	def, err := ResolveManifest(main, testRegistry(), loader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.ID != "main" || len(def.Steps) != 3 {
		t.Fatalf("expected 3 steps in main, got %+v", def)
	}
	if err := Validate(def); err != nil {
		t.Fatalf("resolved definition should validate: %v", err)
	}
}

func TestResolveManifest_IncludeWithoutLoader(t *testing.T) {
	_, err := ResolveManifest(&Manifest{Name: "main", Includes: []string{"sub"}}, testRegistry(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestResolveManifest_CircularInclude(t *testing.T) {
	loader := &memoryLoader{manifests: map[string]*Manifest{
		"alpha": {Name: "alpha", Includes: []string{"beta"}, Steps: []StepDef{{ID: "a", Action: "noop"}}},
		"beta":  {Name: "beta", Includes: []string{"alpha"}, Steps: []StepDef{{ID: "b", Action: "noop"}}},
	}}

	_, err := ResolveManifest(loader.manifests["alpha"], testRegistry(), loader)
	if !errors.HasCode(err, errors.ErrCodeInvalidPipeline) || !strings.Contains(err.Error(), "circular include") {
		t.Fatalf("expected circular include error, got %v", err)
	}
}

func TestResolveManifest_DiamondIncludes(t *testing.T) {
	loader := &memoryLoader{manifests: map[string]*Manifest{
		"shared": {Name: "shared", Steps: []StepDef{{ID: "shared", Action: "noop"}}},
		"left":   {Name: "left", Includes: []string{"shared"}, Steps: []StepDef{{ID: "left", Action: "noop", DependsOn: []string{"shared"}}}},
		"right":  {Name: "right", Includes: []string{"shared"}, Steps: []StepDef{{ID: "right", Action: "noop", DependsOn: []string{"shared"}}}},
	}}

	def, err := ResolveManifest(&Manifest{Name: "main", Includes: []string{"left", "right"}}, testRegistry(), loader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// shared, left, right; shared is included once
	if len(def.Steps) != 3 {
		t.Fatalf("expected 3 steps (deduped), got %d", len(def.Steps))
	}
}

func TestRegistry_List(t *testing.T) {
	if got := strings.Join(testRegistry().List(), ","); got != "noop,publish" {
		t.Errorf("unexpected registry list %s", got)
	}
}
