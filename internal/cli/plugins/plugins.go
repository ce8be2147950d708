// Package plugins provides exec-based plugin support for cgprep.
// Plugins are separate binaries named cgprep-<command> that are discovered
// and executed when an unknown command is invoked.
//
// This follows the same pattern used by kubectl and git for plugins.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Prefix is prepended to a command name to form the plugin binary name.
const Prefix = "cgprep-"

const (
	// EnvPluginPath lists extra plugin directories, searched first.
	EnvPluginPath = "CGPREP_PLUGIN_PATH"

	// EnvBinary is set for plugins to the path of the running cgprep binary,
	// so a plugin can call back into cgprep (for example `lcurve`).
	EnvBinary = "CGPREP_BIN"
)

// KnownPlugins lists plugins that have official implementations available.
// These get special error messages describing what they do.
var KnownPlugins = map[string]string{
	"train":  "Runs `dp train` on a prepared dataset and tracks lcurve.out.",
	"freeze": "Freezes and compresses a trained model with `dp freeze` and `dp compress`.",
}

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// FindPlugin searches for a plugin binary named cgprep-<command>.
// It searches in the following locations in order:
//  0. Directories listed in $CGPREP_PLUGIN_PATH
//  1. Same directory as the cgprep binary
//  2. ~/.cgprep/plugins/
//  3. Anywhere in PATH
//
// Returns the full path to the plugin binary if found.
func FindPlugin(command string) (string, error) {
	pluginName := Prefix + command

	// 1. Check $CGPREP_PLUGIN_PATH
	for _, dir := range filepath.SplitList(os.Getenv(EnvPluginPath)) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	// 2. Check same directory as cgprep binary
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	// 3. Check ~/.cgprep/plugins/
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(homeDir, ".cgprep", "plugins", pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	// 4. Check PATH
	if path, err := exec.LookPath(pluginName); err == nil {
		return path, nil
	}

	return "", ErrPluginNotFound
}

// Execute runs a plugin with the given arguments.
// It connects stdin, stdout, and stderr to the plugin process
// and returns the plugin's exit code.
func Execute(pluginPath string, args []string) int {
	cmd := exec.Command(pluginPath, args...)
	cmd.Env = os.Environ()
	if self, err := os.Executable(); err == nil {
		cmd.Env = append(cmd.Env, EnvBinary+"="+self)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing plugin: %v\n", err)
		return 1
	}

	return 0
}

// FormatNotFoundError returns a helpful error message when a plugin is not found.
// If the command is a known plugin, includes what it does.
func FormatNotFoundError(command string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "unknown command %q for \"cgprep\"\n", command)

	if info, ok := KnownPlugins[command]; ok {
		fmt.Fprintf(&sb, "\n%q is available as a plugin.\n", command)
		sb.WriteString(info)
		sb.WriteString("\n\nInstall the plugin binary as one of:\n")
	} else {
		sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	}

	fmt.Fprintf(&sb, "  - %s%s in a directory listed in $%s\n", Prefix, command, EnvPluginPath)
	fmt.Fprintf(&sb, "  - %s%s in the same directory as cgprep\n", Prefix, command)
	fmt.Fprintf(&sb, "  - ~/.cgprep/plugins/%s%s\n", Prefix, command)
	fmt.Fprintf(&sb, "  - %s%s anywhere in your PATH\n", Prefix, command)

	sb.WriteString("\nRun 'cgprep --help' for usage.")

	return sb.String()
}

// isExecutable checks if a file exists and has an execute bit set.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0111 != 0
}
