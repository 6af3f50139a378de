// Package actions provides the built-in step actions available to YAML
// pipeline manifests.
//
//	exec  runs an external program
//	set   publishes literal values into the context
//
// Register them on a registry before resolving a manifest:
//
//	reg := dag.NewRegistry()
//	actions.Register(reg, process.NewRunner(process.Config{}, log))
package actions
