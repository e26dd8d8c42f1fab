package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// useTempLog points the log at a temp dir and restores state afterwards.
func useTempLog(t *testing.T) string {
	t.Helper()
	resetForTest()
	tmpDir := t.TempDir()
	origGetLogPath := getLogPath
	getLogPath = func() (string, error) {
		return filepath.Join(tmpDir, LogDirName, LogFileName), nil
	}
	t.Cleanup(func() {
		getLogPath = origGetLogPath
		Close()
		resetForTest()
	})
	return filepath.Join(tmpDir, LogDirName, LogFileName)
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestInitDisabledIsNoop(t *testing.T) {
	resetForTest()

	if err := Init(false); err != nil {
		t.Fatalf("Init(false) failed: %v", err)
	}
	if Enabled() {
		t.Error("Enabled() should return false when initialized with false")
	}

	Log("test message")
	Logf("test %s", "formatted")
	For("coordinator").Logf("state %s", "idle")
}

func TestInitEnabledWritesLog(t *testing.T) {
	logPath := useTempLog(t)

	if err := Init(true); err != nil {
		t.Fatalf("Init(true) failed: %v", err)
	}
	if !Enabled() {
		t.Error("Enabled() should return true when initialized with true")
	}

	Log("plain message")
	Logf("formatted %s %d", "value", 42)

	content := readLog(t, logPath)
	for _, want := range []string{"urldeco debug log started", "plain message", "formatted value 42"} {
		if !strings.Contains(content, want) {
			t.Errorf("log should contain %q, got:\n%s", want, content)
		}
	}
}

func TestInitTruncatesExistingLog(t *testing.T) {
	logPath := useTempLog(t)

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		t.Fatalf("create log dir: %v", err)
	}
	if err := os.WriteFile(logPath, []byte("stale content\n"), 0600); err != nil {
		t.Fatalf("write stale log: %v", err)
	}

	if err := Init(true); err != nil {
		t.Fatalf("Init(true) failed: %v", err)
	}

	if strings.Contains(readLog(t, logPath), "stale content") {
		t.Error("log file should have been truncated")
	}
}

func TestComponentLogger(t *testing.T) {
	logPath := useTempLog(t)
	if err := Init(true); err != nil {
		t.Fatalf("Init(true) failed: %v", err)
	}

	For("coordinator").Logf("idle -> %s", "checking")
	For("bridge").Errorf("dispatch failed: %v", "boom")
	Logger{}.Logf("untagged")

	content := readLog(t, logPath)
	if !strings.Contains(content, "[coordinator] idle -> checking") {
		t.Errorf("missing tagged line, got:\n%s", content)
	}
	if !strings.Contains(content, "[bridge] ERROR dispatch failed: boom") {
		t.Errorf("missing error line, got:\n%s", content)
	}
	if !strings.Contains(content, "untagged") {
		t.Errorf("missing untagged line, got:\n%s", content)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	useTempLog(t)
	if err := Init(true); err != nil {
		t.Fatalf("Init(true) failed: %v", err)
	}
	Close()
	Close()
}

func TestGetLogPath(t *testing.T) {
	path, err := GetLogPath()
	if err != nil {
		t.Fatalf("GetLogPath() failed: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(LogDirName, LogFileName)) {
		t.Errorf("GetLogPath() = %q, want suffix %q", path, filepath.Join(LogDirName, LogFileName))
	}
}

func resetForTest() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	enabled = false
	logger = nil
}
