package dag

import (
	"fmt"
	"sort"
	"time"
)

// Manifest is a YAML-declared pipeline.
//
//	name: smoke
//	includes: [setup]
//	vars:
//	  sampleId: s1
//	steps:
//	  - id: generate
//	    action: exec
//	    timeout: 10m
//	    params:
//	      binary: ./scripts/generate.sh
//	  - id: report
//	    action: set
//	    depends_on: [generate]
type Manifest struct {
	// Name is the pipeline identifier and the include lookup key.
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Includes lists manifests whose steps are merged in first (recursive).
	Includes []string `yaml:"includes,omitempty"`
	// Vars seeds the pipeline context. Caller-supplied values win.
	Vars map[string]any `yaml:"vars,omitempty"`
	// Steps declares this manifest's own steps.
	Steps []StepDef `yaml:"steps"`
}

// StepDef declares one step within a manifest.
type StepDef struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description,omitempty"`
	// Action is the registry key of the factory building this step's action.
	Action    string         `yaml:"action"`
	DependsOn []string       `yaml:"depends_on,omitempty"`
	Timeout   time.Duration  `yaml:"timeout,omitempty"`
	Params    map[string]any `yaml:"params,omitempty"`
}

// Seed converts Vars into context values.
func (m *Manifest) Seed() (Vars, error) {
	keys := make([]string, 0, len(m.Vars))
	for k := range m.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seed := make(Vars, len(m.Vars))
	for _, k := range keys {
		v, err := ValueOf(m.Vars[k])
		if err != nil {
			return nil, fmt.Errorf("dag: manifest %q var %q: %w", m.Name, k, err)
		}
		seed[k] = v
	}
	return seed, nil
}
