package actions

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/abcompare/dag"
	"github.com/kbukum/abcompare/errors"
	"github.com/kbukum/abcompare/process"
)

// Action names.
const (
	ActionExec = "exec"
	ActionSet  = "set"
)

// Register adds the built-in actions to reg. exec launches programs.
func Register(reg *dag.Registry, exec process.Executor) {
	reg.Register(ActionExec, ExecFactory(exec))
	reg.Register(ActionSet, SetFactory)
}

// ExecParams configure the exec action. String params may reference
// context values as ${name}.
type ExecParams struct {
	Binary string   `mapstructure:"binary"`
	Args   []string `mapstructure:"args"`
	Dir    string   `mapstructure:"dir"`
	Env    []string `mapstructure:"env"`
	// Publish prefixes the published keys: <publish>_stdout and
	// <publish>_exitCode. Empty publishes nothing.
	Publish string `mapstructure:"publish"`
	// AllowFailure publishes a non-zero exit instead of failing.
	AllowFailure bool `mapstructure:"allow_failure"`
	// Optional turns a missing binary into a success with
	// <publish>_skipped set.
	Optional bool `mapstructure:"optional"`
}

// ExecFactory returns the exec action factory.
func ExecFactory(exec process.Executor) dag.ActionFactory {
	return func(params map[string]any) (dag.Action, error) {
		var p ExecParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if p.Binary == "" {
			return nil, errors.InvalidInput("binary", "exec requires a binary")
		}
		return p.action(exec), nil
	}
}

func (p ExecParams) action(exec process.Executor) dag.Action {
	return func(ctx context.Context, vars dag.Vars) dag.StepResult {
		cmd := process.Command{
			Binary: expand(p.Binary, vars),
			Dir:    expand(p.Dir, vars),
		}
		for _, a := range p.Args {
			cmd.Args = append(cmd.Args, expand(a, vars))
		}
		for _, e := range p.Env {
			cmd.Env = append(cmd.Env, expand(e, vars))
		}

		res, err := exec.Run(ctx, cmd)
		if err != nil {
			if p.Optional && errors.HasCode(err, errors.ErrCodeToolUnavailable) {
				return dag.Succeeded(p.publish(dag.Vars{"skipped": dag.Bool(true)}))
			}
			return dag.FailedErr(err)
		}
		if res.ExitCode != 0 && !p.AllowFailure {
			return dag.Failed("%s exited with code %d: %s", cmd.Binary, res.ExitCode, res.StderrTail(500))
		}
		return dag.Succeeded(p.publish(dag.Vars{
			"stdout":   dag.String(strings.TrimRight(string(res.Stdout), "\n")),
			"exitCode": dag.Number(float64(res.ExitCode)),
		}))
	}
}

func (p ExecParams) publish(values dag.Vars) dag.Vars {
	if p.Publish == "" {
		return nil
	}
	out := make(dag.Vars, len(values))
	for k, v := range values {
		out[p.Publish+"_"+k] = v
	}
	return out
}

// SetFactory builds the set action. Every param becomes a context value;
// string values may reference other context values as ${name}.
func SetFactory(params map[string]any) (dag.Action, error) {
	values := make(dag.Vars, len(params))
	for k, raw := range params {
		v, err := dag.ValueOf(raw)
		if err != nil {
			return nil, errors.InvalidInput(k, err.Error())
		}
		values[k] = v
	}
	return func(_ context.Context, vars dag.Vars) dag.StepResult {
		out := make(dag.Vars, len(values))
		for k, v := range values {
			if s, ok := v.AsString(); ok {
				v = dag.String(expand(s, vars))
			}
			out[k] = v
		}
		return dag.Succeeded(out)
	}, nil
}

// expand replaces ${name} and $name with context values. Unknown names
// expand to "".
func expand(s string, vars dag.Vars) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, func(name string) string {
		v, ok := vars[name]
		if !ok || v.IsNull() {
			return ""
		}
		return v.String()
	})
}

func decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return errors.InvalidInput("params", fmt.Sprintf("decoding params: %v", err)).WithCause(err)
	}
	return nil
}
