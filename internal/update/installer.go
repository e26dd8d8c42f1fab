package update

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Error variables for install-specific errors.
var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrWindowsNoAutoUpdate = errors.New("auto-update not supported on Windows; please download manually")
	ErrManagedInstall      = errors.New("installed by a package manager; upgrade it there")
	ErrNoBackup            = errors.New("no backup to restore")
)

// InstallMethod indicates how the application was installed.
type InstallMethod int

const (
	// InstallUnknown indicates the installation method could not be determined.
	InstallUnknown InstallMethod = iota
	// InstallHomebrew indicates installation via Homebrew.
	InstallHomebrew
	// InstallDirect indicates a direct binary download.
	InstallDirect
)

// String returns the string representation of an InstallMethod.
func (m InstallMethod) String() string {
	switch m {
	case InstallHomebrew:
		return "homebrew"
	case InstallDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Installer replaces the running executable with a downloaded artifact and
// relaunches it.
type Installer struct {
	targetPath string
	goos       string
	command    func(name string, args ...string) *exec.Cmd
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithTargetPath installs over path instead of the running executable.
func WithTargetPath(path string) InstallerOption {
	return func(i *Installer) {
		i.targetPath = path
	}
}

// WithInstallerOS overrides runtime.GOOS.
func WithInstallerOS(goos string) InstallerOption {
	return func(i *Installer) {
		i.goos = goos
	}
}

// NewInstaller creates an installer for the running executable.
func NewInstaller(opts ...InstallerOption) *Installer {
	i := &Installer{
		goos:    runtime.GOOS,
		command: exec.Command,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install atomically swaps the target executable for the artifact, keeping
// the previous binary at <target>.backup. On failure the backup is restored.
func (i *Installer) Install(artifact *Artifact) error {
	if artifact == nil || artifact.Path == "" {
		return ErrNoArtifact
	}
	// Windows cannot replace a running executable.
	if i.goos == "windows" {
		return ErrWindowsNoAutoUpdate
	}

	target, err := i.resolveTarget()
	if err != nil {
		return err
	}
	if DetectInstallMethod(target) == InstallHomebrew {
		return ErrManagedInstall
	}
	if err := checkWritePermission(target); err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	// Stage next to the target so the final rename stays on one filesystem.
	staged := target + ".new"
	if err := copyFile(artifact.Path, staged); err != nil {
		return fmt.Errorf("stage new binary: %w", err)
	}

	backupPath := target + ".backup"
	if err := os.Rename(target, backupPath); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("backup current binary: %w", err)
	}

	if err := os.Rename(staged, target); err != nil {
		_ = os.Rename(backupPath, target)
		_ = os.Remove(staged)
		return fmt.Errorf("install new binary: %w", err)
	}

	//nolint:gosec // G302: Binary needs to be executable
	if err := os.Chmod(target, 0755); err != nil {
		_ = os.Rename(backupPath, target)
		return fmt.Errorf("set executable permission: %w", err)
	}

	return nil
}

// Rollback restores the previous version from backup.
func (i *Installer) Rollback() error {
	target, err := i.resolveTarget()
	if err != nil {
		return err
	}
	backupPath := target + ".backup"
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("%w at %s", ErrNoBackup, backupPath)
	}
	if err := os.Rename(backupPath, target); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	return nil
}

// Relaunch starts the (freshly installed) target with args and the current
// process's stdio. The caller is expected to exit right after.
func (i *Installer) Relaunch(args []string) error {
	target, err := i.resolveTarget()
	if err != nil {
		return err
	}
	cmd := i.command(target, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("relaunch %s: %w", target, err)
	}
	return cmd.Process.Release()
}

func (i *Installer) resolveTarget() (string, error) {
	if i.targetPath != "" {
		return i.targetPath, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("get executable path: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return "", fmt.Errorf("resolve symlinks: %w", err)
	}
	return execPath, nil
}

// checkWritePermission verifies the current process can write next to path.
func checkWritePermission(path string) error {
	testFile := filepath.Join(filepath.Dir(path), ".urldeco-update-test")
	//nolint:gosec // G304: Path is constructed from known binary directory
	f, err := os.Create(testFile)
	if err != nil {
		return err
	}
	_ = f.Close()
	_ = os.Remove(testFile)
	return nil
}

// DetectInstallMethod determines how the binary at path was installed.
func DetectInstallMethod(path string) InstallMethod {
	if path == "" {
		return InstallUnknown
	}
	if strings.Contains(path, "Cellar") || strings.Contains(path, "/homebrew/") || strings.Contains(path, "/linuxbrew/") {
		return InstallHomebrew
	}
	return InstallDirect
}

func copyFile(src, dst string) error {
	//nolint:gosec // G304: src is a staged artifact we downloaded
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	//nolint:gosec // G306: binary needs to be executable
	return os.WriteFile(dst, data, 0755)
}
