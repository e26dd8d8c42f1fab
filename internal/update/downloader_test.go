package update

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeTarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		hdr := &tar.Header{Name: name, Mode: 0755, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatalf("write body: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

func sha(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// artifactServer serves /asset and /checksums.txt.
func artifactServer(t *testing.T, asset []byte, assetName, checksums string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/"+assetName, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(asset)))
		_, _ = w.Write(asset)
	})
	mux.HandleFunc("/checksums.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(checksums))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestDownloadTarballWithChecksum(t *testing.T) {
	tarball := makeTarball(t, map[string]string{
		"README.md":       "docs",
		"dist/" + BinaryName: "#!/bin/sh\necho new\n",
	})
	assetName := "urldeco_linux_amd64.tar.gz"
	server := artifactServer(t, tarball, assetName, sha(tarball)+"  "+assetName+"\n")

	info := &UpdateInfo{
		LatestVersion: Version{Major: 2},
		DownloadURL:   server.URL + "/" + assetName,
		AssetName:     assetName,
		ChecksumURL:   server.URL + "/checksums.txt",
	}

	var samples [][2]int64
	d := NewDownloader(WithTempDir(t.TempDir()))
	artifact, err := d.Download(context.Background(), info, func(written, total int64) {
		samples = append(samples, [2]int64{written, total})
	})
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer artifact.Cleanup()

	if artifact.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", artifact.Version)
	}
	content, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !strings.Contains(string(content), "echo new") {
		t.Errorf("artifact content = %q", content)
	}
	if len(samples) == 0 {
		t.Fatal("expected progress samples")
	}
	last := samples[len(samples)-1]
	if last[0] != int64(len(tarball)) || last[1] != int64(len(tarball)) {
		t.Errorf("last progress = %v, want %d/%d", last, len(tarball), len(tarball))
	}
	for i := 1; i < len(samples); i++ {
		if samples[i][0] < samples[i-1][0] {
			t.Fatalf("progress went backwards: %v", samples)
		}
	}
}

func TestDownloadChecksumMismatchCleansUp(t *testing.T) {
	body := []byte("raw binary")
	assetName := "urldeco-linux-amd64"
	server := artifactServer(t, body, assetName, strings.Repeat("0", 64)+"  "+assetName+"\n")

	tmp := t.TempDir()
	d := NewDownloader(WithTempDir(tmp))
	_, err := d.Download(context.Background(), &UpdateInfo{
		DownloadURL: server.URL + "/" + assetName,
		AssetName:   assetName,
		ChecksumURL: server.URL + "/checksums.txt",
	}, nil)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Download() error = %v, want ErrChecksumMismatch", err)
	}
	entries, _ := os.ReadDir(tmp)
	if len(entries) != 0 {
		t.Errorf("temp dir should be cleaned up, found %d entries", len(entries))
	}
}

func TestDownloadRawBinaryWithoutChecksum(t *testing.T) {
	body := []byte("raw binary")
	assetName := "urldeco-linux-amd64"
	server := artifactServer(t, body, assetName, "")

	d := NewDownloader(WithTempDir(t.TempDir()))
	artifact, err := d.Download(context.Background(), &UpdateInfo{
		DownloadURL: server.URL + "/" + assetName,
	}, nil)
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer artifact.Cleanup()

	info, err := os.Stat(artifact.Path)
	if err != nil {
		t.Fatalf("stat artifact: %v", err)
	}
	if info.Mode().Perm()&0100 == 0 {
		t.Errorf("artifact should be executable, mode %v", info.Mode())
	}
}

func TestDownloadErrors(t *testing.T) {
	d := NewDownloader(WithTempDir(t.TempDir()))

	if _, err := d.Download(context.Background(), &UpdateInfo{}, nil); !errors.Is(err, ErrNoArtifact) {
		t.Errorf("missing URL error = %v, want ErrNoArtifact", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	if _, err := d.Download(context.Background(), &UpdateInfo{DownloadURL: server.URL + "/x"}, nil); !errors.Is(err, ErrDownloadFailed) {
		t.Errorf("404 error = %v, want ErrDownloadFailed", err)
	}
}

func TestExtractTarballWithoutBinary(t *testing.T) {
	tarball := makeTarball(t, map[string]string{"other": "x"})
	_, err := extractTarball(bytes.NewReader(tarball), t.TempDir())
	if !errors.Is(err, ErrBinaryNotInBundle) {
		t.Fatalf("extractTarball() error = %v, want ErrBinaryNotInBundle", err)
	}
}

func TestVerifyChecksum(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test")
	content := []byte("test content")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("create test file: %v", err)
	}

	if err := VerifyChecksum(testFile, strings.ToUpper(sha(content))); err != nil {
		t.Errorf("VerifyChecksum() with correct checksum: %v", err)
	}
	if err := VerifyChecksum(testFile, "wrong"); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("VerifyChecksum() wrong checksum error = %v", err)
	}
	if err := VerifyChecksum(filepath.Join(tmpDir, "missing"), sha(content)); err == nil {
		t.Error("VerifyChecksum() should fail with non-existent file")
	}
}

func TestParseChecksumFile(t *testing.T) {
	input := `# generated
abc123  urldeco_linux_amd64.tar.gz
def456 *./dist/urldeco_darwin_arm64.tar.gz

malformed-line
`
	sums, err := ParseChecksumFile(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseChecksumFile() error: %v", err)
	}
	if sums["urldeco_linux_amd64.tar.gz"] != "abc123" {
		t.Errorf("linux checksum = %q", sums["urldeco_linux_amd64.tar.gz"])
	}
	if sums["urldeco_darwin_arm64.tar.gz"] != "def456" {
		t.Errorf("darwin checksum = %q", sums["urldeco_darwin_arm64.tar.gz"])
	}
	if len(sums) != 2 {
		t.Errorf("expected 2 entries, got %d", len(sums))
	}
}
