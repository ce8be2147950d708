// Package cli provides the command-line interface for cgprep.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepwater/cgprep/internal/cli/commands"
	"github.com/deepwater/cgprep/internal/cli/plugins"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes the command line args and returns the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	// Check if the first argument might be a plugin command
	if len(args) > 0 {
		potentialCommand := args[0]
		if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
			if !isBuiltinCommand(rootCmd, potentialCommand) {
				if pluginPath, err := plugins.FindPlugin(potentialCommand); err == nil {
					return plugins.Execute(pluginPath, args[1:])
				}
				// Plugin not found - will fall through to Cobra which will show error
			}
		}
	}

	commands.ExitCode = 0
	if err := rootCmd.Execute(); err != nil {
		if len(args) > 0 {
			potentialCommand := args[0]
			if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
				if !isBuiltinCommand(rootCmd, potentialCommand) {
					_, _ = fmt.Fprintln(stderr, plugins.FormatNotFoundError(potentialCommand))
					return 2
				}
			}
		}
		// SilenceErrors prevents Cobra from printing this
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cgprep",
		Short: "Prepare coarse-grained training data from LAMMPS runs",
		Long: `cgprep turns an all-atom LAMMPS simulation into a coarse-grained
training set for DeePMD-kit.

It:
  - reduces every molecule to one bead at its anchor atom, summing forces
  - writes the coarse-grained trajectory as a LAMMPS dump
  - labels each frame with potential energy and virial from the log
  - converts real units to eV and writes raw and numpy datasets

PLUGINS:
  cgprep supports plugins for extended functionality. Plugins are standalone
  binaries named cgprep-<command> that are automatically discovered and invoked.

  Plugin locations (searched in order):
    1. Directories in $CGPREP_PLUGIN_PATH
    2. Same directory as the cgprep binary
    3. ~/.cgprep/plugins/
    4. Anywhere in PATH

  Well-known plugins:
    train    Run dp train on a prepared dataset
    freeze   Freeze a trained model`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString(commands.LogLevelFlag)
			_, err := commands.ParseLevel(level)
			return err
		},
	}

	rootCmd.PersistentFlags().String(commands.LogLevelFlag, "warn", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(commands.NewPrepareCommand())
	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewAveragesCommand())
	rootCmd.AddCommand(commands.NewLcurveCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
