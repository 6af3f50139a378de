package dag

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/abcompare/errors"
)

// ManifestLoader loads manifests by name; it resolves includes.
type ManifestLoader interface {
	Load(name string) (*Manifest, error)
}

// FileManifestLoader loads manifests from YAML files on disk.
type FileManifestLoader struct {
	dirs []string
}

// NewFileManifestLoader creates a loader that searches dirs, recursively,
// for {name}.yaml or {name}.yml.
func NewFileManifestLoader(dirs ...string) *FileManifestLoader {
	return &FileManifestLoader{dirs: dirs}
}

// Load returns the first manifest file named after name.
func (l *FileManifestLoader) Load(name string) (*Manifest, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return LoadManifest(path)
			}
		}
		if path := findFile(dir, name); path != "" {
			return LoadManifest(path)
		}
	}
	return nil, errors.NotFound("pipeline manifest", name).WithDetail("dirs", l.dirs)
}

func findFile(dir, name string) string {
	var found string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		base := d.Name()
		if base == name+".yaml" || base == name+".yml" {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// LoadManifest reads and parses one manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound("pipeline manifest", path)
		}
		return nil, errors.Internal(err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ParseManifest decodes YAML, rejecting unknown fields.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, errors.InvalidPipeline("", "parsing manifest: "+err.Error()).WithCause(err)
	}
	if m.Name == "" {
		return nil, errors.InvalidPipeline("", "manifest has no name")
	}
	return &m, nil
}

// ResolveManifest builds a Definition from m, merging included manifests
// first. Included manifests are loaded once even when reached through
// several paths; an include cycle is an error. Step validation is left to
// the Runner.
func ResolveManifest(m *Manifest, registry *Registry, loader ManifestLoader) (*Definition, error) {
	def := &Definition{ID: m.Name, Description: m.Description}
	stack := make(map[string]bool)
	resolved := make(map[string]bool)
	if err := resolveManifest(m, registry, loader, def, stack, resolved); err != nil {
		return nil, err
	}
	return def, nil
}

func resolveManifest(m *Manifest, registry *Registry, loader ManifestLoader, def *Definition, stack, resolved map[string]bool) error {
	if stack[m.Name] {
		return errors.InvalidPipeline(def.ID, fmt.Sprintf("circular include of %q", m.Name))
	}
	stack[m.Name] = true
	defer delete(stack, m.Name)

	for _, name := range m.Includes {
		if resolved[name] {
			continue
		}
		if loader == nil {
			return errors.InvalidPipeline(def.ID, fmt.Sprintf("include %q requires a manifest loader", name))
		}
		sub, err := loader.Load(name)
		if err != nil {
			return fmt.Errorf("dag: loading include %q: %w", name, err)
		}
		if err := resolveManifest(sub, registry, loader, def, stack, resolved); err != nil {
			return err
		}
	}

	for _, sd := range m.Steps {
		factory, ok := registry.Get(sd.Action)
		if !ok {
			return errors.InvalidPipeline(def.ID, fmt.Sprintf("step %q uses unknown action %q", sd.ID, sd.Action))
		}
		action, err := factory(sd.Params)
		if err != nil {
			return errors.InvalidPipeline(def.ID, fmt.Sprintf("step %q: %v", sd.ID, err)).WithCause(err)
		}
		def.Steps = append(def.Steps, Step{
			ID:          sd.ID,
			Description: sd.Description,
			DependsOn:   sd.DependsOn,
			Timeout:     sd.Timeout,
			Action:      action,
		})
	}

	resolved[m.Name] = true
	return nil
}
