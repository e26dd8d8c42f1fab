// Package update talks to the release channel: it asks whether a newer
// published version exists, downloads the artifact for the running platform
// and swaps it in place of the current executable.
//
// The package holds no lifecycle state. Sequencing of check, download and
// install is owned by internal/coordinator.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.github.com"
	DefaultTimeout = 10 * time.Second

	// ChecksumAssetName is the release asset holding "sha256  filename" lines.
	ChecksumAssetName = "checksums.txt"

	userAgent = "urldeco-updater"
)

// Error variables for specific error conditions.
var (
	ErrNetworkFailure = errors.New("network request failed")
	ErrRateLimited    = errors.New("rate limited by release channel")
	ErrInvalidVersion = errors.New("invalid version format")
)

// ReleaseAsset represents a downloadable file attached to a release.
type ReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
	Size               int64  `json:"size"`
}

// Release is the release channel's wire format. Only the fields the updater
// needs are decoded.
type Release struct {
	TagName     string         `json:"tag_name"`
	Name        string         `json:"name"`
	Body        string         `json:"body"`
	HTMLURL     string         `json:"html_url"`
	PublishedAt time.Time      `json:"published_at"`
	Prerelease  bool           `json:"prerelease"`
	Draft       bool           `json:"draft"`
	Assets      []ReleaseAsset `json:"assets"`
}

// UpdateInfo is the result of a check, reduced to what the coordinator acts
// on: the published version, whether it is newer, and where to fetch it.
type UpdateInfo struct {
	CurrentVersion  Version
	LatestVersion   Version
	UpdateAvailable bool
	DownloadURL     string // binary or tarball for the running platform
	AssetName       string
	AssetSize       int64
	ChecksumURL     string
	ReleaseURL      string
	ReleaseNotes    string
	PublishedAt     time.Time
	IsPrerelease    bool
}

// DownloadAvailable reports whether the release carries an artifact for the
// running platform.
func (u *UpdateInfo) DownloadAvailable() bool {
	return u != nil && u.DownloadURL != ""
}

// Checker queries the release channel for the latest release.
type Checker struct {
	owner      string
	repo       string
	baseURL    string
	goos       string
	goarch     string
	httpClient *http.Client
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithHTTPClient sets a custom HTTP client for the checker.
func WithHTTPClient(client *http.Client) CheckerOption {
	return func(c *Checker) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) CheckerOption {
	return func(c *Checker) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithBaseURL points the checker at another API root (mirrors, tests).
func WithBaseURL(baseURL string) CheckerOption {
	return func(c *Checker) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithPlatform overrides the GOOS/GOARCH used to pick a release asset.
func WithPlatform(goos, goarch string) CheckerOption {
	return func(c *Checker) {
		c.goos = goos
		c.goarch = goarch
	}
}

// NewChecker creates a new checker for the specified repository.
func NewChecker(owner, repo string, opts ...CheckerOption) *Checker {
	c := &Checker{
		owner:   owner,
		repo:    repo,
		baseURL: DefaultBaseURL,
		goos:    runtime.GOOS,
		goarch:  runtime.GOARCH,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check compares the latest published release with currentVersion.
// Development builds and unparseable versions return (nil, nil): there is
// nothing to compare against, so no update is ever offered.
func (c *Checker) Check(ctx context.Context, currentVersion string) (*UpdateInfo, error) {
	// Every development build ("", dev, unparseable) fails to parse.
	current, err := ParseVersion(currentVersion)
	if err != nil {
		return nil, nil
	}

	release, err := c.fetchLatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	latest, err := ParseVersion(release.TagName)
	if err != nil {
		return nil, fmt.Errorf("parse latest version: %w", err)
	}

	info := &UpdateInfo{
		CurrentVersion:  current,
		LatestVersion:   latest,
		UpdateAvailable: current.LessThan(latest) && !release.Draft,
		ReleaseURL:      release.HTMLURL,
		ReleaseNotes:    release.Body,
		PublishedAt:     release.PublishedAt,
		IsPrerelease:    release.Prerelease,
	}
	if asset, ok := findPlatformAsset(release.Assets, c.goos, c.goarch); ok {
		info.DownloadURL = asset.BrowserDownloadURL
		info.AssetName = asset.Name
		info.AssetSize = asset.Size
	}
	for _, asset := range release.Assets {
		if strings.EqualFold(asset.Name, ChecksumAssetName) {
			info.ChecksumURL = asset.BrowserDownloadURL
			break
		}
	}

	return info, nil
}

func (c *Checker) fetchLatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrNetworkFailure, resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &release, nil
}

// findPlatformAsset picks the first asset whose name mentions the platform,
// skipping checksum and signature files.
func findPlatformAsset(assets []ReleaseAsset, goos, goarch string) (ReleaseAsset, bool) {
	patterns := buildAssetPatterns(goos, goarch)
	for _, asset := range assets {
		name := strings.ToLower(asset.Name)
		if strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".sig") || strings.HasSuffix(name, ".sha256") {
			continue
		}
		for _, pattern := range patterns {
			if strings.Contains(name, pattern) {
				return asset, true
			}
		}
	}
	return ReleaseAsset{}, false
}

// buildAssetPatterns returns name fragments to match for the given OS/arch.
func buildAssetPatterns(goos, goarch string) []string {
	archNames := []string{goarch}
	switch goarch {
	case "amd64":
		archNames = append(archNames, "x86_64", "x64")
	case "arm64":
		archNames = append(archNames, "aarch64")
	}

	osNames := []string{goos}
	switch goos {
	case "darwin":
		osNames = append(osNames, "macos", "osx")
	case "windows":
		osNames = append(osNames, "win")
	}

	var patterns []string
	for _, o := range osNames {
		for _, a := range archNames {
			patterns = append(patterns, o+"_"+a, o+"-"+a, a+"_"+o, a+"-"+o)
		}
	}
	return patterns
}
