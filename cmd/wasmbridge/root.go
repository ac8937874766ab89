package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/caffeineduck/wasmbridge/executor"
	"github.com/caffeineduck/wasmbridge/walkthrough"
)

const usageLine = "Usage: wasmbridge <module>"

var errUsage = errors.New("missing module path")

// appFs is where module files are read from. Tests swap in a MemMapFs.
var appFs = afero.NewOsFs()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wasmbridge <module>",
		Short: "Load a WebAssembly module and walk through host interop examples",
		Long: `wasmbridge - Embed a WebAssembly module and exercise the host boundary.

The module must export its linear memory as "memory" and may import
multiply and state_add from the env namespace. The walkthrough calls
add, count_str, return_str, calc_host and host_state_add, printing a
trace line for every call and stopping at the first unexpected result.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			return nil
		},
		RunE:          runWalkthrough,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addModuleFlags(cmd.PersistentFlags())
	cmd.AddCommand(newReplCmd())
	return cmd
}

// Execute runs the CLI and exits with its status.
func Execute() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stdout, usageLine)
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

func runWalkthrough(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags(), args[0])
	if err != nil {
		return err
	}

	sess, err := openSession(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer sess.Close(cmd.Context())

	runner := walkthrough.New(cmd.OutOrStdout(), walkthrough.WithLogger(sess.logger))
	steps := walkthrough.DefaultSteps()
	if err := runner.Run(cmd.Context(), sess.target(), steps); err != nil {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "FAIL %v\n", err)
		return err
	}

	color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "ok %d examples verified\n", len(steps))
	return nil
}

// addModuleFlags registers the flags shared by every command that loads a
// module.
func addModuleFlags(fs *pflag.FlagSet) {
	fs.BoolP("verbose", "v", false, "Log load and call events to stderr")
	fs.String("memory", "", "Memory limit: 1mb, 16mb, 64mb, 256mb, 1gb")
	fs.Bool("no-cache", false, "Disable compilation cache")
	fs.String("cache-dir", "", "Compilation cache directory (default: ~/.cache/wasmbridge)")
}

func parseMemoryLimit(s string) uint32 {
	switch strings.ToLower(s) {
	case "1mb":
		return executor.MemoryLimit1MB
	case "16mb":
		return executor.MemoryLimit16MB
	case "64mb":
		return executor.MemoryLimit64MB
	case "256mb":
		return executor.MemoryLimit256MB
	case "1gb":
		return executor.MemoryLimit1GB
	default:
		return 0 // use default
	}
}
