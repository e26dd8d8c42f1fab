package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitializeLoadsDefaults(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	userCfg := filepath.Join(tmp, "user.yaml")

	if err := Initialize(WithWorkingDir(tmp), WithUserConfig(userCfg)); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if got := GetDuration(KeyUpdateStartupDelay); got != DefaultStartupDelay {
		t.Fatalf("expected default %s to be %s, got %s", KeyUpdateStartupDelay, DefaultStartupDelay, got)
	}
	if got := GetDuration(KeyUpdateCheckInterval); got != 0 {
		t.Fatalf("expected polling disabled by default, got %s", got)
	}
	if got := GetString(KeyUpdateRepo); got != DefaultUpdateRepo {
		t.Fatalf("expected default %s to be %q, got %q", KeyUpdateRepo, DefaultUpdateRepo, got)
	}
	if GetBool(KeyUpdateDisabled) {
		t.Fatalf("expected %s to default to false", KeyUpdateDisabled)
	}
}

func TestProjectConfigOverridesUser(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	projectDir := filepath.Join(tmp, "repo")
	nested := filepath.Join(projectDir, "a", "b")
	mustMkdir(t, nested)
	projectCfg := filepath.Join(projectDir, DirName, "config.yaml")
	writeFile(t, projectCfg, `
update:
  owner: project-owner
  startup-delay: 1s
`)

	userCfg := filepath.Join(tmp, "user.yaml")
	writeFile(t, userCfg, `
update:
  owner: user-owner
  repo: user-repo
  startup-delay: 9s
`)

	if err := Initialize(
		WithWorkingDir(nested),
		WithUserConfig(userCfg),
	); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if got := GetString(KeyUpdateOwner); got != "project-owner" {
		t.Fatalf("expected project config to win for %s, got %q", KeyUpdateOwner, got)
	}
	if got := GetString(KeyUpdateRepo); got != "user-repo" {
		t.Fatalf("expected user config to survive for %s, got %q", KeyUpdateRepo, got)
	}
	if got := GetDuration(KeyUpdateStartupDelay); got != time.Second {
		t.Fatalf("expected project startup delay, got %s", got)
	}
}

func TestEnvironmentAndOverridesPrecedence(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	projectCfg := filepath.Join(tmp, DirName, "config.yaml")
	writeFile(t, projectCfg, `
update:
  disabled: false
  check-interval: 1h
`)

	t.Setenv("URLDECO_UPDATE_DISABLED", "true")
	t.Setenv("URLDECO_UPDATE_CHECK_INTERVAL", "30m")

	if err := Initialize(
		WithWorkingDir(tmp),
		WithProjectConfig(projectCfg),
		WithUserConfig(filepath.Join(tmp, "missing.yaml")),
	); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if !GetBool(KeyUpdateDisabled) {
		t.Fatalf("expected environment variable to override %s", KeyUpdateDisabled)
	}
	if got := GetDuration(KeyUpdateCheckInterval); got != 30*time.Minute {
		t.Fatalf("expected env override for %s, got %s", KeyUpdateCheckInterval, got)
	}

	if err := ApplyOverrides(map[string]any{KeyUpdateDisabled: false}); err != nil {
		t.Fatalf("ApplyOverrides returned error: %v", err)
	}
	if GetBool(KeyUpdateDisabled) {
		t.Fatalf("expected CLI override to set %s=false", KeyUpdateDisabled)
	}
}

func TestGetDurationClampsNegative(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	if err := Initialize(WithWorkingDir(tmp), WithUserConfig(filepath.Join(tmp, "u.yaml"))); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	if err := Set(KeyUpdateCheckInterval, -5*time.Second); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got := GetDuration(KeyUpdateCheckInterval); got != 0 {
		t.Fatalf("expected negative duration clamped to 0, got %s", got)
	}
}

func TestConfigDirectoryIsRejected(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	mustMkdir(t, filepath.Join(tmp, DirName, "config.yaml"))

	if err := Initialize(WithWorkingDir(tmp), WithUserConfig(filepath.Join(tmp, "u.yaml"))); err == nil {
		t.Fatal("expected error when project config path is a directory")
	}
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	mustMkdir(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
