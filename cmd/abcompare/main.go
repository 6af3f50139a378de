// Command abcompare runs two video generation pipelines on the same sample
// and reports their quality metrics side by side.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/abcompare/errors"
)

type rootOptions struct {
	configFile string
	envFile    string
	verbose    bool
}

// exitError carries an exit code for a command that finished without an
// error worth printing, such as a failed comparison.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if stderrors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitCode(err)
}

func exitCode(err error) int {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.ExitCode()
	}
	return 1
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "abcompare",
		Short:         "A/B comparison of video generation pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.InvalidInput("flags", err.Error())
	})

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to the configuration file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to a .env file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level, including program output")

	root.AddCommand(
		newRunCmd(opts),
		newPipelineCmd(opts),
		newExtractCmd(opts),
		newVersionCmd(),
	)
	return root
}
