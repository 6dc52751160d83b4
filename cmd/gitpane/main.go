package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/gitpane/internal/app"
	"github.com/marcus/gitpane/internal/asyncjob"
	"github.com/marcus/gitpane/internal/config"
	"github.com/marcus/gitpane/internal/event"
	"github.com/marcus/gitpane/internal/fatal"
	"github.com/marcus/gitpane/internal/gitjobs"
	"github.com/marcus/gitpane/internal/gitops"
	"github.com/marcus/gitpane/internal/highlight"
	"github.com/marcus/gitpane/internal/keymap"
	"github.com/marcus/gitpane/internal/notify"
	"github.com/marcus/gitpane/internal/spinner"
	"github.com/marcus/gitpane/internal/state"
	"github.com/marcus/gitpane/internal/version"
	"github.com/marcus/gitpane/internal/watcher"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file")
	repoPath     = flag.String("repo", ".", "repository directory")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	logPath      = flag.String("log", "", "log file (default ~/.config/gitpane/gitpane.log)")
	writeConfig  = flag.Bool("write-config", false, "write the effective config and exit")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
)

func main() {
	flag.Parse()

	if *versionFlag || *shortVersion {
		fmt.Printf("gitpane version %s\n", version.Effective(Version))
		os.Exit(0)
	}

	logger, closeLog := setupLogging(*logPath, *debugFlag)
	defer closeLog()
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *writeConfig {
		path := *configPath
		if path == "" {
			path = config.ConfigPath()
		}
		if err := config.SaveTo(path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(path)
		os.Exit(0)
	}

	// State is optional; a broken file falls back to defaults.
	if err := state.Init(); err != nil {
		logger.Warn("load state", "err", err)
	}

	if err := run(cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "gitpane: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workDir, err := filepath.Abs(*repoPath)
	if err != nil {
		return fmt.Errorf("resolve repository path: %w", err)
	}
	root, err := gitops.RepoRoot(ctx, workDir)
	if err != nil {
		return err
	}

	fatals := fatal.New(logger)
	pool := asyncjob.NewPool(cfg.Jobs.Workers, fatals.Recovered)
	defer pool.Close()

	gitBus := notify.NewBus[notify.Git](0)
	appBus := notify.NewBus[notify.App](0)

	jobs := gitjobs.New(pool, root, gitBus)
	hl := highlight.NewSlot(pool, highlight.New(highlight.Options{
		Theme:         cfg.UI.SyntaxTheme,
		MarkdownStyle: cfg.UI.MarkdownStyle,
	}), appBus)

	km := keymap.Default()
	var warnings []string
	if unknown := km.ApplyOverrides(cfg.Keymap.Overrides); len(unknown) > 0 {
		logger.Warn("unknown keymap commands", "commands", unknown)
		warnings = append(warnings, fmt.Sprintf("unknown keymap commands: %v", unknown))
	}

	input := event.NewInputQueue()
	sources := event.Sources{
		Input: input,
		Git:   gitBus.Receiver(),
		App:   appBus.Receiver(),
	}

	if cfg.Refresh.Watch {
		w, err := watcher.New(root, cfg.Refresh.Debounce, logger)
		if err != nil {
			logger.Warn("file watching unavailable", "err", err)
		} else {
			defer w.Close()
			sources.Watcher = w.Signals()
		}
	}

	ticker := spinner.NewTicker(cfg.UI.SpinnerInterval)
	defer ticker.Stop()
	sources.Spinner = ticker.C()

	model := app.New(app.Options{
		Ctx:       ctx,
		Config:    cfg,
		Keymap:    km,
		Jobs:      jobs,
		Highlight: hl,
		Mux:       event.New(sources, logger),
		Input:     input,
		Fatal:     fatals,
		Logger:    logger,
		Warnings:  warnings,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	fatals.OnFatal(func(error) { p.Kill() })

	_, runErr := p.Run()
	if err := fatals.Err(); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("run: %w", runErr)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(config.ExpandPath(path))
	}
	return config.Load()
}

// setupLogging writes to a file because the terminal belongs to the UI. If
// the file cannot be opened, logs are discarded.
func setupLogging(path string, debug bool) (*slog.Logger, func()) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if path == "" {
		path = filepath.Join(config.Dir(), "gitpane.log")
	}
	path = config.ExpandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			return slog.New(slog.NewTextHandler(f, opts)), func() { _ = f.Close() }
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gitpane [options]\n\n")
		fmt.Fprintf(os.Stderr, "A terminal UI for browsing a git repository.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
