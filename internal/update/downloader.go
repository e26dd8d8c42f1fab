package update

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Error variables for download-specific errors.
var (
	ErrNoArtifact        = errors.New("no downloadable artifact for this platform")
	ErrDownloadFailed    = errors.New("download failed")
	ErrChecksumMismatch  = errors.New("checksum verification failed")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrBinaryNotInBundle = errors.New("binary not found in archive")
)

// BinaryName is the executable name looked up inside release tarballs.
const BinaryName = "urldeco"

// ProgressFunc receives the bytes written so far and the expected total.
// total is 0 when the server did not announce a length.
type ProgressFunc func(written, total int64)

// Artifact is a downloaded, verified binary ready to be installed.
type Artifact struct {
	Version string
	Path    string
	// Dir is the temporary directory holding Path, removed by Cleanup.
	Dir string
}

// Cleanup removes the artifact's temporary directory.
func (a *Artifact) Cleanup() {
	if a == nil || a.Dir == "" {
		return
	}
	_ = os.RemoveAll(a.Dir)
}

// Downloader fetches release artifacts over HTTP.
type Downloader struct {
	httpClient *http.Client
	tempDir    string
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithDownloadHTTPClient sets a custom HTTP client for the downloader.
func WithDownloadHTTPClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) {
		d.httpClient = client
	}
}

// WithTempDir sets the parent directory for download staging.
func WithTempDir(dir string) DownloaderOption {
	return func(d *Downloader) {
		d.tempDir = dir
	}
}

// NewDownloader creates a downloader. Downloads carry no client timeout;
// cancellation comes from the context.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches the artifact described by info, verifies it against the
// release checksums when present, and unpacks tarballs. progress may be nil.
func (d *Downloader) Download(ctx context.Context, info *UpdateInfo, progress ProgressFunc) (*Artifact, error) {
	if !info.DownloadAvailable() {
		return nil, ErrNoArtifact
	}

	dir, err := os.MkdirTemp(d.tempDir, "urldeco-update-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	artifact := &Artifact{Version: info.LatestVersion.String(), Dir: dir}
	fail := func(err error) (*Artifact, error) {
		artifact.Cleanup()
		return nil, err
	}

	name := info.AssetName
	if name == "" {
		name = filepath.Base(info.DownloadURL)
	}
	staged := filepath.Join(dir, filepath.Base(name))
	if err := d.fetch(ctx, info.DownloadURL, staged, info.AssetSize, progress); err != nil {
		return fail(err)
	}

	if info.ChecksumURL != "" {
		sums, err := d.fetchChecksums(ctx, info.ChecksumURL)
		if err != nil {
			return fail(err)
		}
		expected, ok := sums[filepath.Base(name)]
		if !ok {
			return fail(fmt.Errorf("%w: no checksum listed for %s", ErrChecksumMismatch, name))
		}
		if err := VerifyChecksum(staged, expected); err != nil {
			return fail(err)
		}
	}

	if strings.HasSuffix(strings.ToLower(name), ".tar.gz") || strings.HasSuffix(strings.ToLower(name), ".tgz") {
		f, err := os.Open(staged)
		if err != nil {
			return fail(fmt.Errorf("open archive: %w", err))
		}
		binary, err := extractTarball(f, dir)
		_ = f.Close()
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrExtractionFailed, err))
		}
		artifact.Path = binary
		return artifact, nil
	}

	//nolint:gosec // G302: binary needs to be executable
	if err := os.Chmod(staged, 0755); err != nil {
		return fail(fmt.Errorf("chmod: %w", err))
	}
	artifact.Path = staged
	return artifact, nil
}

func (d *Downloader) fetch(ctx context.Context, url, dst string, size int64, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = size
	}

	//nolint:gosec // G304: writing into a temp directory we created
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	var w io.Writer = out
	if progress != nil {
		w = &progressWriter{w: out, total: total, report: progress}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return out.Close()
}

func (d *Downloader) fetchChecksums(ctx context.Context, url string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: checksums: %v", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: checksums status %d", ErrDownloadFailed, resp.StatusCode)
	}
	return ParseChecksumFile(resp.Body)
}

// progressWriter reports cumulative bytes after every write.
type progressWriter struct {
	w       io.Writer
	written int64
	total   int64
	report  ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	p.report(p.written, p.total)
	return n, err
}

// extractTarball extracts the application binary from a .tar.gz archive.
func extractTarball(r io.Reader, destDir string) (string, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return "", fmt.Errorf("create gzip reader: %w", err)
	}
	defer func() { _ = gzr.Close() }()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return "", ErrBinaryNotInBundle
		}
		if err != nil {
			return "", fmt.Errorf("read tar: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		name := filepath.Base(header.Name)
		if name != BinaryName && name != BinaryName+".exe" {
			continue
		}

		destPath := filepath.Join(destDir, "bin-"+name)
		//nolint:gosec // G304: extracting to temp directory we control
		outFile, err := os.Create(destPath)
		if err != nil {
			return "", fmt.Errorf("create file: %w", err)
		}
		//nolint:gosec // G110: decompression bomb unlikely for known release assets
		if _, err := io.Copy(outFile, tr); err != nil {
			_ = outFile.Close()
			return "", fmt.Errorf("extract file: %w", err)
		}
		if err := outFile.Close(); err != nil {
			return "", fmt.Errorf("close file: %w", err)
		}
		//nolint:gosec // G302: binary needs to be executable
		if err := os.Chmod(destPath, 0755); err != nil {
			return "", fmt.Errorf("chmod: %w", err)
		}
		return destPath, nil
	}
}

// VerifyChecksum verifies a file against an expected SHA256 checksum.
func VerifyChecksum(path, expected string) error {
	//nolint:gosec // G304: Path comes from caller; this is intentional for checksum verification
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash file: %w", err)
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, actual)
	}
	return nil
}

// ParseChecksumFile parses "sha256hash  filename" lines into filename → hash.
func ParseChecksumFile(r io.Reader) (map[string]string, error) {
	checksums := make(map[string]string)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		// sha256sum marks binary mode with a leading '*'.
		filename := filepath.Base(strings.TrimPrefix(fields[1], "*"))
		checksums[filename] = fields[0]
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read checksums: %w", err)
	}
	return checksums, nil
}
