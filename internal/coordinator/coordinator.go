// Package coordinator owns the update state machine.
//
// A single goroutine (Run) drains a command queue and is the only code that
// reads or writes the state, so transitions and the events they emit are
// totally ordered. Network work runs in helper goroutines that post their
// results back as commands.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"urldeco/internal/debug"
	apperrors "urldeco/internal/errors"
	"urldeco/internal/update"
)

// ErrStopped is returned by Snapshot once Run has exited.
var ErrStopped = errors.New("coordinator stopped")

// Checker asks the release channel whether a newer version exists.
type Checker interface {
	Check(ctx context.Context, currentVersion string) (*update.UpdateInfo, error)
}

// Downloader fetches the artifact for an update.
type Downloader interface {
	Download(ctx context.Context, info *update.UpdateInfo, progress update.ProgressFunc) (*update.Artifact, error)
}

// Installer replaces the running application with artifact and restarts it.
// A nil return means the point of no return has passed.
type Installer interface {
	QuitAndInstall(artifact *update.Artifact) error
}

// Config holds the coordinator's scheduling parameters.
type Config struct {
	CurrentVersion string
	// StartupDelay schedules the first check after Run starts; <= 0 disables it.
	StartupDelay time.Duration
	// CheckInterval re-checks periodically; <= 0 disables polling.
	CheckInterval time.Duration
}

// Deps are the coordinator's collaborators. Notifier may be nil.
type Deps struct {
	Checker    Checker
	Downloader Downloader
	Installer  Installer
	Emitter    Emitter
	Notifier   Notifier
}

// Coordinator drives check → download → install.
type Coordinator struct {
	cfg  Config
	deps Deps
	log  debug.Logger

	cmds chan command
	done chan struct{}

	// Owned by the Run goroutine.
	state    State
	release  ReleaseInfo
	info     *update.UpdateInfo
	percent  int
	message  string
	checks   int
	session  uuid.UUID
	cancel   context.CancelFunc
	artifact *update.Artifact
}

type command interface{}

type (
	cmdCheck    struct{ reason string }
	cmdCheckEnd struct {
		info *update.UpdateInfo
		err  error
	}
	cmdProgress struct {
		session        uuid.UUID
		written, total int64
	}
	cmdDownloadEnd struct {
		session  uuid.UUID
		artifact *update.Artifact
		err      error
	}
	cmdInstall    struct{ source string }
	cmdInstallErr struct{ err error }
	cmdDefer      struct{}
	cmdSnapshot   struct{ reply chan Snapshot }
)

// New constructs a Coordinator. Call Run to start it.
func New(cfg Config, deps Deps) *Coordinator {
	return &Coordinator{
		cfg:  cfg,
		deps: deps,
		log:  debug.For("coordinator"),
		cmds: make(chan command, 64),
		done: make(chan struct{}),
	}
}

// Check requests a manual update check. Requests made while a check is in
// flight are coalesced into it.
func (c *Coordinator) Check() { c.post(cmdCheck{reason: "manual"}) }

// QuitAndInstall installs the downloaded update and restarts. Ignored unless
// an update has been downloaded.
func (c *Coordinator) QuitAndInstall() { c.post(cmdInstall{source: "request"}) }

// Defer records a "later" answer. The downloaded update stays ready.
func (c *Coordinator) Defer() { c.post(cmdDefer{}) }

// Snapshot returns the current state as seen by the Run goroutine.
func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case c.cmds <- cmdSnapshot{reply: reply}:
	case <-c.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-c.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Done is closed when Run returns.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Run processes commands until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.shutdown()

	var startup <-chan time.Time
	if c.cfg.StartupDelay > 0 {
		timer := time.NewTimer(c.cfg.StartupDelay)
		defer timer.Stop()
		startup = timer.C
	}
	var poll <-chan time.Time
	if c.cfg.CheckInterval > 0 {
		ticker := time.NewTicker(c.cfg.CheckInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	c.log.Logf("started (version %s, startup delay %s, interval %s)", c.cfg.CurrentVersion, c.cfg.StartupDelay, c.cfg.CheckInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-startup:
			startup = nil
			c.handle(ctx, cmdCheck{reason: "startup"})
		case <-poll:
			c.handle(ctx, cmdCheck{reason: "interval"})
		case cmd := <-c.cmds:
			c.handle(ctx, cmd)
		}
	}
}

func (c *Coordinator) post(cmd command) {
	select {
	case c.cmds <- cmd:
	case <-c.done:
	}
}

func (c *Coordinator) handle(ctx context.Context, cmd command) {
	switch cmd := cmd.(type) {
	case cmdSnapshot:
		cmd.reply <- c.snapshot()
	case cmdCheck:
		c.onCheck(ctx, cmd)
	case cmdCheckEnd:
		c.onCheckEnd(ctx, cmd)
	case cmdProgress:
		c.onProgress(cmd)
	case cmdDownloadEnd:
		c.onDownloadEnd(cmd)
	case cmdInstall:
		c.onInstall(cmd)
	case cmdInstallErr:
		c.onInstallErr(cmd)
	case cmdDefer:
		c.log.Logf("install deferred (state %s)", c.state)
	}
}

func (c *Coordinator) onCheck(ctx context.Context, cmd cmdCheck) {
	switch c.state {
	case StateChecking:
		c.log.Logf("%s check coalesced into in-flight check", cmd.reason)
		return
	case StateInstalling:
		return
	case StateDownloading:
		c.log.Logf("%s check supersedes download session %s", cmd.reason, c.session)
		c.stopDownload()
	}

	c.transition(StateChecking)
	c.checks++
	c.log.Logf("checking for update (%s)", cmd.reason)

	current := c.cfg.CurrentVersion
	go func() {
		info, err := c.deps.Checker.Check(ctx, current)
		c.post(cmdCheckEnd{info: info, err: err})
	}()
}

func (c *Coordinator) onCheckEnd(ctx context.Context, cmd cmdCheckEnd) {
	if c.state != StateChecking {
		return
	}
	if cmd.err != nil {
		c.fail(apperrors.New(apperrors.CodeUpdateCheck, fmt.Sprintf("update check failed: %v", cmd.err), cmd.err))
		return
	}
	if cmd.info == nil || !cmd.info.UpdateAvailable {
		c.log.Logf("update not available")
		c.info = nil
		c.transition(StateIdle)
		return
	}

	info := cmd.info
	c.info = info
	c.release = ReleaseInfo{
		Version: info.LatestVersion.String(),
		Notes:   info.ReleaseNotes,
		URL:     info.ReleaseURL,
	}
	c.transition(StateAvailable)
	c.log.Logf("update available: %s (published %s, prerelease %t)",
		c.release.Version, info.PublishedAt.Format(time.DateOnly), info.IsPrerelease)
	c.deps.Emitter.UpdateAvailable(c.release)
	c.notify(Dialog{
		Title:   "Update Available",
		Message: fmt.Sprintf("A new version (%s) is available. It will be downloaded in the background.", c.release.Version),
		Detail:  c.release.detail(),
		Buttons: []string{"OK"},
	}, nil)

	if c.artifact != nil && c.artifact.Version == c.release.Version {
		c.log.Logf("version %s already downloaded", c.release.Version)
		c.completeDownload()
		return
	}
	c.startDownload(ctx, info)
}

func (c *Coordinator) startDownload(ctx context.Context, info *update.UpdateInfo) {
	if c.artifact != nil {
		c.artifact.Cleanup()
		c.artifact = nil
	}
	session := uuid.New()
	dctx, cancel := context.WithCancel(ctx)
	c.session = session
	c.cancel = cancel
	c.percent = 0
	c.transition(StateDownloading)
	c.log.Logf("download session %s started for %s", session, c.release.Version)

	go func() {
		artifact, err := c.deps.Downloader.Download(dctx, info, func(written, total int64) {
			c.post(cmdProgress{session: session, written: written, total: total})
		})
		c.post(cmdDownloadEnd{session: session, artifact: artifact, err: err})
	}()
}

func (c *Coordinator) onProgress(cmd cmdProgress) {
	if c.state != StateDownloading || cmd.session != c.session {
		return
	}
	p, ok := percentOf(cmd.written, cmd.total)
	if !ok || p <= c.percent {
		return
	}
	c.percent = p
	c.deps.Emitter.DownloadProgress(p)
}

func (c *Coordinator) onDownloadEnd(cmd cmdDownloadEnd) {
	if c.state != StateDownloading || cmd.session != c.session {
		if cmd.artifact != nil {
			cmd.artifact.Cleanup()
		}
		c.log.Logf("discarding result of superseded download session %s", cmd.session)
		return
	}
	c.cancel()
	c.cancel = nil
	if cmd.err != nil {
		c.fail(apperrors.New(apperrors.CodeUpdateDownload, fmt.Sprintf("update download failed: %v", cmd.err), cmd.err))
		return
	}
	c.artifact = cmd.artifact
	c.completeDownload()
}

func (c *Coordinator) completeDownload() {
	c.percent = 100
	c.transition(StateDownloaded)
	c.log.Logf("update downloaded: %s", c.release.Version)
	c.deps.Emitter.UpdateDownloaded(c.release)
	c.notify(Dialog{
		Title:   "Update Ready",
		Message: fmt.Sprintf("Version %s has been downloaded. Restart the application to apply the updates.", c.release.Version),
		Buttons: []string{"Restart Now", "Later"},
	}, func(choice int) command {
		if choice == 0 {
			return cmdInstall{source: "dialog"}
		}
		return cmdDefer{}
	})
}

func (c *Coordinator) onInstall(cmd cmdInstall) {
	if c.state != StateDownloaded || c.artifact == nil {
		c.log.Logf("quit-and-install (%s) ignored in state %s", cmd.source, c.state)
		return
	}
	c.transition(StateInstalling)
	c.log.Logf("installing %s (%s)", c.release.Version, cmd.source)
	artifact := c.artifact
	go func() {
		if err := c.deps.Installer.QuitAndInstall(artifact); err != nil {
			c.post(cmdInstallErr{err: err})
		}
	}()
}

func (c *Coordinator) onInstallErr(cmd cmdInstallErr) {
	if c.state != StateInstalling {
		return
	}
	c.fail(apperrors.New(apperrors.CodeInstall, fmt.Sprintf("install failed: %v", cmd.err), cmd.err))
}

func (c *Coordinator) fail(err error) {
	c.message = err.Error()
	c.transition(StateErrored)
	c.log.Errorf("%s", c.message)
	c.deps.Emitter.UpdateError(c.message)
}

// notify shows dialog without blocking the loop. When answer is non-nil the
// chosen button is mapped to a command and posted back.
func (c *Coordinator) notify(dialog Dialog, answer func(int) command) {
	if c.deps.Notifier == nil {
		return
	}
	go func() {
		choice, err := c.deps.Notifier.Prompt(dialog)
		if err != nil {
			c.log.Logf("dialog %q dismissed: %v", dialog.Title, err)
			return
		}
		if answer != nil {
			c.post(answer(choice))
		}
	}()
}

func (c *Coordinator) transition(to State) {
	if c.state != to {
		c.log.Logf("%s -> %s", c.state, to)
	}
	c.state = to
	if to != StateErrored {
		c.message = ""
	}
}

func (c *Coordinator) stopDownload() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.session = uuid.Nil
}

func (c *Coordinator) snapshot() Snapshot {
	return Snapshot{
		State:   c.state,
		Release: c.release,
		Percent: c.percent,
		Message: c.message,
		Checks:  c.checks,
	}
}

func (c *Coordinator) shutdown() {
	c.stopDownload()
	if c.state != StateInstalling && c.artifact != nil {
		c.artifact.Cleanup()
	}
	c.log.Logf("stopped in state %s", c.state)
}
