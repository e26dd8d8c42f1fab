package update

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeExecutable(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestInstallReplacesTargetAndKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "urldeco")
	writeExecutable(t, target, "old")
	newBin := filepath.Join(dir, "staged")
	writeExecutable(t, newBin, "new")

	inst := NewInstaller(WithTargetPath(target), WithInstallerOS("linux"))
	if err := inst.Install(&Artifact{Path: newBin}); err != nil {
		t.Fatalf("Install() error: %v", err)
	}

	if got, _ := os.ReadFile(target); string(got) != "new" {
		t.Errorf("target = %q, want new", got)
	}
	if got, _ := os.ReadFile(target + ".backup"); string(got) != "old" {
		t.Errorf("backup = %q, want old", got)
	}
	if _, err := os.Stat(target + ".new"); !os.IsNotExist(err) {
		t.Error("staging file should be gone")
	}

	if err := inst.Rollback(); err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}
	if got, _ := os.ReadFile(target); string(got) != "old" {
		t.Errorf("after rollback target = %q, want old", got)
	}
}

func TestInstallRefusals(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "urldeco")
	writeExecutable(t, target, "old")

	if err := NewInstaller(WithTargetPath(target)).Install(nil); !errors.Is(err, ErrNoArtifact) {
		t.Errorf("nil artifact error = %v, want ErrNoArtifact", err)
	}

	win := NewInstaller(WithTargetPath(target), WithInstallerOS("windows"))
	if err := win.Install(&Artifact{Path: target}); !errors.Is(err, ErrWindowsNoAutoUpdate) {
		t.Errorf("windows error = %v, want ErrWindowsNoAutoUpdate", err)
	}

	brewTarget := filepath.Join(dir, "Cellar", "urldeco")
	brew := NewInstaller(WithTargetPath(brewTarget), WithInstallerOS("darwin"))
	if err := brew.Install(&Artifact{Path: target}); !errors.Is(err, ErrManagedInstall) {
		t.Errorf("homebrew error = %v, want ErrManagedInstall", err)
	}
}

func TestRollbackNoBackup(t *testing.T) {
	inst := NewInstaller(WithTargetPath(filepath.Join(t.TempDir(), "urldeco")))
	if err := inst.Rollback(); !errors.Is(err, ErrNoBackup) {
		t.Errorf("Rollback() error = %v, want ErrNoBackup", err)
	}
}

func TestDetectInstallMethod(t *testing.T) {
	tests := []struct {
		path string
		want InstallMethod
	}{
		{"", InstallUnknown},
		{"/opt/homebrew/Cellar/urldeco/1.0.0/bin/urldeco", InstallHomebrew},
		{"/home/linuxbrew/.linuxbrew/bin/urldeco", InstallHomebrew},
		{"/usr/local/bin/urldeco", InstallDirect},
	}
	for _, tt := range tests {
		if got := DetectInstallMethod(tt.path); got != tt.want {
			t.Errorf("DetectInstallMethod(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestInstallMethodString(t *testing.T) {
	tests := []struct {
		method InstallMethod
		want   string
	}{
		{InstallUnknown, "unknown"},
		{InstallHomebrew, "homebrew"},
		{InstallDirect, "direct"},
	}
	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("InstallMethod(%d).String() = %q, want %q", tt.method, got, tt.want)
		}
	}
}
