package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deepwater/cgprep/internal/cli/plugins"
)

func TestNewRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"prepare", "extract", "detect", "diagnose", "validate", "averages", "lcurve", "version"} {
		if !isBuiltinCommand(root, name) {
			t.Errorf("Missing subcommand: %s", name)
		}
	}
	if !isBuiltinCommand(root, "help") {
		t.Error("help should be treated as built-in")
	}
	if root.PersistentFlags().Lookup("log-level") == nil {
		t.Error("Missing persistent flag: log-level")
	}
}

func TestNewRootCommand_HelpListsPluginPath(t *testing.T) {
	long := NewRootCommand().Long
	first := strings.Index(long, "$"+plugins.EnvPluginPath)
	if first < 0 {
		t.Fatalf("help does not mention $%s:\n%s", plugins.EnvPluginPath, long)
	}
	if home := strings.Index(long, "~/.cgprep/plugins/"); home < first {
		t.Errorf("$%s should be listed before ~/.cgprep/plugins/", plugins.EnvPluginPath)
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"version"}, &stdout, &stderr)

	if code != 0 {
		t.Errorf("exit code = %d, want 0 (stderr: %s)", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "cgprep ") {
		t.Errorf("Unexpected output: %q", stdout.String())
	}
}

func TestRun_InvalidLogLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"--log-level", "loud", "version"}, &stdout, &stderr)

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "unknown log level") {
		t.Errorf("Unexpected stderr: %q", stderr.String())
	}
}

func TestRun_ConfigErrorExitsTwo(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"prepare", "/nonexistent/cgprep.yaml"}, &stdout, &stderr)

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.HasPrefix(stderr.String(), "Error:") {
		t.Errorf("Unexpected stderr: %q", stderr.String())
	}
}

func TestRun_UnknownCommandSuggestsPlugin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", t.TempDir())

	var stdout, stderr bytes.Buffer
	code := Run([]string{"train"}, &stdout, &stderr)

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "cgprep-train") {
		t.Errorf("Expected plugin hint, got %q", stderr.String())
	}
}

func TestRun_DispatchesPlugin(t *testing.T) {
	binDir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", binDir)

	script := filepath.Join(binDir, "cgprep-hello")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 4\n"), 0755); err != nil {
		t.Fatalf("failed to create plugin: %v", err)
	}

	if code := Run([]string{"hello", "--flag"}, &bytes.Buffer{}, &bytes.Buffer{}); code != 4 {
		t.Errorf("exit code = %d, want plugin exit code 4", code)
	}
}
