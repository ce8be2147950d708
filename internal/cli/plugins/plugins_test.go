package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindPlugin_NotFound(t *testing.T) {
	_, err := FindPlugin("nonexistent-plugin-xyz")
	if err != ErrPluginNotFound {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestFindPlugin_InPluginsDir(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	pluginsDir := filepath.Join(homeDir, ".cgprep", "plugins")
	if err := os.MkdirAll(pluginsDir, 0755); err != nil {
		t.Fatalf("failed to create plugins dir: %v", err)
	}

	pluginPath := filepath.Join(pluginsDir, "cgprep-testplugin")
	if err := os.WriteFile(pluginPath, []byte("#!/bin/sh\necho test"), 0755); err != nil {
		t.Fatalf("failed to create test plugin: %v", err)
	}

	found, err := FindPlugin("testplugin")
	if err != nil {
		t.Errorf("expected to find plugin, got error: %v", err)
	}
	if found != pluginPath {
		t.Errorf("expected %s, got %s", pluginPath, found)
	}
}

func TestFindPlugin_InPath(t *testing.T) {
	binDir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", binDir)

	pluginPath := filepath.Join(binDir, "cgprep-pathplugin")
	if err := os.WriteFile(pluginPath, []byte("#!/bin/sh\nexit 0"), 0755); err != nil {
		t.Fatalf("failed to create test plugin: %v", err)
	}

	found, err := FindPlugin("pathplugin")
	if err != nil {
		t.Fatalf("expected to find plugin, got error: %v", err)
	}
	if found != pluginPath {
		t.Errorf("expected %s, got %s", pluginPath, found)
	}
}

func TestFindPlugin_PluginPathFirst(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", second)
	t.Setenv(EnvPluginPath, first)

	for _, dir := range []string{first, second} {
		if err := os.WriteFile(filepath.Join(dir, "cgprep-both"), []byte("#!/bin/sh\nexit 0"), 0755); err != nil {
			t.Fatalf("failed to create test plugin: %v", err)
		}
	}

	found, err := FindPlugin("both")
	if err != nil {
		t.Fatalf("expected to find plugin, got error: %v", err)
	}
	if want := filepath.Join(first, "cgprep-both"); found != want {
		t.Errorf("expected %s, got %s", want, found)
	}
}

func TestExecute_SetsBinaryEnv(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "cgprep-env")
	body := "#!/bin/sh\ntest -n \"$" + EnvBinary + "\" || exit 5\nexit 0\n"
	if err := os.WriteFile(script, []byte(body), 0755); err != nil {
		t.Fatalf("failed to create script: %v", err)
	}

	if code := Execute(script, nil); code != 0 {
		t.Errorf("Execute() = %d, want 0 with %s set", code, EnvBinary)
	}
}

func TestExecute_ExitCode(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "cgprep-fail")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 3\n"), 0755); err != nil {
		t.Fatalf("failed to create script: %v", err)
	}

	if code := Execute(script, nil); code != 3 {
		t.Errorf("Execute() = %d, want 3", code)
	}
}

func TestFormatNotFoundError_KnownPlugin(t *testing.T) {
	err := FormatNotFoundError("train")

	if !strings.Contains(err, "train") {
		t.Error("expected error to contain 'train'")
	}
	if !strings.Contains(err, "available as a plugin") {
		t.Error("expected error to mention plugin availability")
	}
	if !strings.Contains(err, "cgprep-train") {
		t.Error("expected error to mention cgprep-train")
	}
}

func TestFormatNotFoundError_UnknownPlugin(t *testing.T) {
	err := FormatNotFoundError("unknown")

	if !strings.Contains(err, "cgprep-unknown") {
		t.Error("expected error to mention cgprep-unknown")
	}
	if strings.Contains(err, "available as a plugin") {
		t.Error("should not mention plugin availability for unknown plugins")
	}
}

func TestIsExecutable(t *testing.T) {
	tmpDir := t.TempDir()

	nonExec := filepath.Join(tmpDir, "nonexec")
	if err := os.WriteFile(nonExec, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if isExecutable(nonExec) {
		t.Error("non-executable file should not be detected as executable")
	}

	exec := filepath.Join(tmpDir, "exec")
	if err := os.WriteFile(exec, []byte("test"), 0755); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if !isExecutable(exec) {
		t.Error("executable file should be detected as executable")
	}

	if isExecutable(tmpDir) {
		t.Error("directory should not be detected as executable")
	}
	if isExecutable(filepath.Join(tmpDir, "nonexistent")) {
		t.Error("non-existent file should not be detected as executable")
	}
}

func TestKnownPlugins(t *testing.T) {
	if _, ok := KnownPlugins["train"]; !ok {
		t.Error("expected 'train' to be in KnownPlugins")
	}
}
