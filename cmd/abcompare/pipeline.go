package main

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/abcompare/actions"
	"github.com/kbukum/abcompare/dag"
	"github.com/kbukum/abcompare/errors"
)

type pipelineOptions struct {
	dot      bool
	set      []string
	includes []string
}

func newPipelineCmd(root *rootOptions) *cobra.Command {
	opts := &pipelineOptions{}
	cmd := &cobra.Command{
		Use:   "pipeline FILE",
		Short: "Run a YAML pipeline manifest",
		Long: `Loads a pipeline manifest, resolves its includes and runs it with the
built-in exec and set actions. The final result is printed as JSON.`,
		Example: `  abcompare pipeline smoke.yaml --set sampleId=walk-01
  abcompare pipeline smoke.yaml --dot | dot -Tsvg > smoke.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.dot, "dot", false, "Print the pipeline graph in DOT format instead of running it")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "Override a context value (key=value, repeatable)")
	cmd.Flags().StringSliceVarP(&opts.includes, "include-dir", "I", nil, "Extra directories searched for included manifests")
	return cmd
}

func runPipeline(cmd *cobra.Command, root *rootOptions, opts *pipelineOptions, path string) error {
	overrides, err := parseSet(opts.set)
	if err != nil {
		return err
	}
	m, err := dag.LoadManifest(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.close()

	reg := dag.NewRegistry()
	actions.Register(reg, a.exec)
	loader := dag.NewFileManifestLoader(append([]string{filepath.Dir(path)}, opts.includes...)...)
	def, err := dag.ResolveManifest(m, reg, loader)
	if err != nil {
		return err
	}
	if opts.dot {
		return dag.WriteDOT(cmd.OutOrStdout(), def, nil)
	}

	seed, err := m.Seed()
	if err != nil {
		return errors.InvalidPipeline(m.Name, err.Error())
	}
	for k, v := range overrides {
		seed[k] = v
	}

	res, err := a.runner().Run(ctx, def, seed)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Succeeded() {
		return &exitError{code: 1}
	}
	return nil
}

// parseSet turns key=value pairs into context values. Values that parse as
// JSON scalars keep their type; anything else is a string.
func parseSet(pairs []string) (dag.Vars, error) {
	vars := make(dag.Vars, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, errors.InvalidInput("set", "expected key=value, got "+pair)
		}
		var v dag.Value
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = dag.String(raw)
		}
		vars[key] = v
	}
	return vars, nil
}
