package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muesli/termenv"

	"urldeco/internal/config"
	"urldeco/internal/debug"
	"urldeco/internal/host"
	"urldeco/internal/ui"
)

func main() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}

	fs := flag.CommandLine
	flags := runtimeFlags{
		version:         fs.Bool("version", false, "Print version information and exit"),
		debug:           fs.Bool("debug", config.GetBool(config.KeyDebug), "Write a debug log to ~/.urldeco/debug.log"),
		skipUpdateCheck: fs.Bool("skip-update-check", config.GetBool(config.KeyUpdateDisabled), "Do not check for updates automatically"),
		checkInterval:   fs.Duration("check-interval", config.GetDuration(config.KeyUpdateCheckInterval), "Re-check for updates at this interval (0 disables)"),
		prefsPath:       fs.String("prefs-path", config.GetString(config.KeyPrefsPath), "Path to the preferences database"),
	}
	flag.Parse()

	if *flags.version {
		printVersion(os.Stdout)
		os.Exit(0)
	}

	if err := config.ApplyOverrides(computeOverrides(flags, visitedFlags(fs))); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying flags: %v\n", err)
		os.Exit(1)
	}

	if err := debug.Init(config.GetBool(config.KeyDebug)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug log unavailable: %v\n", err)
	}
	defer debug.Close()

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		debug.Close()
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := host.New(ctx, host.ConfigFromSettings(Version, args),
		host.WithClipboard(ui.NewSystemClipboard(termenv.NewOutput(os.Stdout))),
	)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := h.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

type runtimeFlags struct {
	version         *bool
	debug           *bool
	skipUpdateCheck *bool
	checkInterval   *time.Duration
	prefsPath       *string
}

// computeOverrides maps explicitly set flags onto configuration keys so they
// win over files and environment.
func computeOverrides(flags runtimeFlags, visited map[string]struct{}) map[string]any {
	overrides := map[string]any{}
	if _, ok := visited["debug"]; ok {
		overrides[config.KeyDebug] = *flags.debug
	}
	if _, ok := visited["skip-update-check"]; ok {
		overrides[config.KeyUpdateDisabled] = *flags.skipUpdateCheck
	}
	if _, ok := visited["check-interval"]; ok {
		interval := *flags.checkInterval
		if interval < 0 {
			interval = 0
		}
		overrides[config.KeyUpdateCheckInterval] = interval
	}
	if _, ok := visited["prefs-path"]; ok {
		overrides[config.KeyPrefsPath] = *flags.prefsPath
	}
	return overrides
}

func visitedFlags(fs *flag.FlagSet) map[string]struct{} {
	visited := map[string]struct{}{}
	fs.Visit(func(f *flag.Flag) {
		visited[f.Name] = struct{}{}
	})
	return visited
}
