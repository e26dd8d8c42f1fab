// Package host owns the application lifecycle: it opens the window, serves
// the bridge and runs the update coordinator.
package host

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"urldeco/internal/bridge"
	"urldeco/internal/config"
	"urldeco/internal/coordinator"
	"urldeco/internal/debug"
	apperrors "urldeco/internal/errors"
	"urldeco/internal/prefs"
	"urldeco/internal/ui"
	"urldeco/internal/update"
)

// Config configures a Host.
type Config struct {
	Version string
	Owner   string
	Repo    string

	StartupDelay  time.Duration // <= 0 disables the scheduled first check
	CheckInterval time.Duration
	Timeout       time.Duration

	// PrefsPath is the preferences database; empty uses ~/.urldeco/prefs.db.
	PrefsPath string
	// Args are passed to the relaunched process after an update.
	Args []string
}

// ConfigFromSettings builds a Config from the loaded configuration.
func ConfigFromSettings(version string, args []string) Config {
	cfg := Config{
		Version:       version,
		Owner:         config.GetString(config.KeyUpdateOwner),
		Repo:          config.GetString(config.KeyUpdateRepo),
		StartupDelay:  config.GetDuration(config.KeyUpdateStartupDelay),
		CheckInterval: config.GetDuration(config.KeyUpdateCheckInterval),
		Timeout:       config.GetDuration(config.KeyUpdateTimeout),
		PrefsPath:     config.GetString(config.KeyPrefsPath),
		Args:          args,
	}
	if config.GetBool(config.KeyUpdateDisabled) {
		cfg.StartupDelay = 0
		cfg.CheckInterval = 0
	}
	return cfg
}

// binaryInstaller replaces the executable on disk and starts it again.
// *update.Installer implements it.
type binaryInstaller interface {
	Install(artifact *update.Artifact) error
	Rollback() error
	Relaunch(args []string) error
}

type options struct {
	checker    coordinator.Checker
	downloader coordinator.Downloader
	binary     binaryInstaller
	clipboard  ui.Clipboard
	programOpt []tea.ProgramOption
}

// Option customises a Host.
type Option func(*options)

// WithChecker replaces the GitHub release checker.
func WithChecker(c coordinator.Checker) Option { return func(o *options) { o.checker = c } }

// WithDownloader replaces the HTTP downloader.
func WithDownloader(d coordinator.Downloader) Option {
	return func(o *options) { o.downloader = d }
}

// WithBinaryInstaller replaces the in-place binary installer.
func WithBinaryInstaller(b binaryInstaller) Option { return func(o *options) { o.binary = b } }

// WithClipboard replaces the system clipboard.
func WithClipboard(c ui.Clipboard) Option { return func(o *options) { o.clipboard = c } }

// WithProgramOptions passes options to the Bubble Tea program.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(o *options) { o.programOpt = append(o.programOpt, opts...) }
}

// Host wires the window, bridge and coordinator together.
type Host struct {
	cfg    Config
	log    debug.Logger
	window *Window
	app    *ui.App
	store  *prefs.Store

	bridgeHost *bridge.Host
	client     *bridge.Client
	coord      *coordinator.Coordinator
	binary     binaryInstaller

	restarting atomic.Bool
}

// New builds a Host. Nothing runs until Run is called.
func New(ctx context.Context, cfg Config, opts ...Option) (*Host, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Host{cfg: cfg, log: debug.For("host")}
	h.cfg.Version = strings.TrimPrefix(strings.TrimSpace(cfg.Version), "v")
	if update.IsDevelopment(h.cfg.Version) {
		h.log.Logf("development build %q: update checks will find nothing", h.cfg.Version)
	}

	themeName := h.openPrefs(ctx)

	if o.checker == nil {
		if strings.TrimSpace(cfg.Owner) == "" || strings.TrimSpace(cfg.Repo) == "" {
			h.closePrefs()
			return nil, apperrors.New(apperrors.CodeConfigurationError, "update.owner and update.repo must be set", nil)
		}
		checkerOpts := []update.CheckerOption{}
		if cfg.Timeout > 0 {
			checkerOpts = append(checkerOpts, update.WithTimeout(cfg.Timeout))
		}
		o.checker = update.NewChecker(cfg.Owner, cfg.Repo, checkerOpts...)
	}
	if o.downloader == nil {
		o.downloader = update.NewDownloader()
	}
	if o.binary == nil {
		o.binary = update.NewInstaller()
	}
	h.binary = o.binary

	bridgeHost, client := bridge.New(handler{h})
	h.bridgeHost = bridgeHost
	h.client = client

	h.coord = coordinator.New(coordinator.Config{
		CurrentVersion: h.cfg.Version,
		StartupDelay:   cfg.StartupDelay,
		CheckInterval:  cfg.CheckInterval,
	}, coordinator.Deps{
		Checker:    o.checker,
		Downloader: o.downloader,
		Installer:  installer{h},
		Emitter:    bridgeHost,
		Notifier:   h,
	})

	var save func(string) error
	if h.store != nil {
		store := h.store
		save = func(theme string) error { return store.SetTheme(context.Background(), theme) }
	}
	h.app = ui.NewApp(ui.Config{
		Bridge:    client,
		Clipboard: o.clipboard,
		Theme:     themeName,
		SaveTheme: save,
	})

	programOpts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, o.programOpt...)
	h.window = newWindow(h.app, programOpts...)
	return h, nil
}

// openPrefs opens the preference store and returns the saved theme. A store
// that cannot be opened leaves the theme at its default and unsaved.
func (h *Host) openPrefs(ctx context.Context) string {
	path := h.cfg.PrefsPath
	if path == "" {
		dir, err := config.UserDir()
		if err != nil {
			h.log.Errorf("preferences disabled: %v", err)
			return prefs.ThemeDark
		}
		path = filepath.Join(dir, prefs.DefaultFileName)
	}
	store, err := prefs.Open(ctx, path)
	if err != nil {
		h.log.Errorf("preferences disabled: %v", err)
		return prefs.ThemeDark
	}
	h.store = store
	h.log.Logf("preferences at %s", store.Path())
	theme, err := store.Theme(ctx)
	if err != nil {
		h.log.Errorf("read theme: %v", err)
	}
	return theme
}

// Run opens the window and blocks until it closes. If an update was
// installed, the new binary is started before Run returns.
func (h *Host) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	start := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, bridge.ErrClosed) {
				h.log.Errorf("%s: %v", name, err)
			}
		}()
	}
	start("bridge host", h.bridgeHost.Serve)
	start("bridge client", h.client.Run)
	start("coordinator", h.coord.Run)
	go func() {
		<-ctx.Done()
		h.window.Close()
	}()

	h.log.Logf("window open (version %s, platform %s)", h.cfg.Version, runtime.GOOS)
	err := h.window.Run()
	h.log.Logf("window closed")

	h.app.Close()
	cancel()
	wg.Wait()
	h.closePrefs()
	if err != nil {
		return err
	}
	if !h.restarting.Load() {
		return nil
	}
	h.log.Logf("relaunching")
	if err := h.binary.Relaunch(h.cfg.Args); err != nil {
		h.log.Errorf("relaunch failed, restoring previous binary: %v", err)
		if rbErr := h.binary.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return nil
}

func (h *Host) closePrefs() {
	if h.store == nil {
		return
	}
	if err := h.store.Close(); err != nil {
		h.log.Errorf("close preferences: %v", err)
	}
	h.store = nil
}

// Prompt shows dialog on the window and waits for a button.
func (h *Host) Prompt(dialog coordinator.Dialog) (int, error) {
	reply := make(chan int, 1)
	if !h.window.Send(ui.DialogMsg{Dialog: dialog, Reply: reply}) {
		return 0, ErrWindowClosed
	}
	select {
	case choice := <-reply:
		return choice, nil
	case <-h.window.Done():
		return 0, ErrWindowClosed
	}
}

// Restarting reports whether an update has been installed and the window
// asked to close.
func (h *Host) Restarting() bool { return h.restarting.Load() }

// handler serves bridge requests.
type handler struct{ h *Host }

func (r handler) Version() string  { return r.h.cfg.Version }
func (r handler) Platform() string { return runtime.GOOS }
func (r handler) CheckForUpdates() { r.h.coord.Check() }
func (r handler) QuitAndInstall()  { r.h.coord.QuitAndInstall() }

// installer is the coordinator's install step: replace the binary, then close
// the window so Run can relaunch.
type installer struct{ h *Host }

func (i installer) QuitAndInstall(artifact *update.Artifact) error {
	if err := i.h.binary.Install(artifact); err != nil {
		return err
	}
	artifact.Cleanup()
	i.h.restarting.Store(true)
	i.h.window.Close()
	return nil
}
