package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/logger"
	"github.com/jingkaihe/rulesync/pkg/presenter"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	DebounceTime int
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		DebounceTime: 500,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

// ChangeEvent is a change inside one base directory's canonical directory.
type ChangeEvent struct {
	BaseDir string
	Path    string
	Op      fsnotify.Op
	Time    time.Time
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate tool files whenever .rulesync changes",
	Long: `Run generate once, then watch the canonical directory of every base
directory and regenerate it after changes settle.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		watchConfig := getWatchConfigFromFlags(cmd)
		if err := watchConfig.Validate(); err != nil {
			return err
		}
		config, err := getRunConfig(true)
		if err != nil {
			return err
		}
		root, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to get working directory")
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			presenter.Warning("Cancellation requested, shutting down...")
			cancel()
		}()

		return runWatchMode(ctx, root, config, watchConfig)
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
}

// getWatchConfigFromFlags extracts watch configuration from command flags
func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounceTime
	}
	return config
}

func runWatchMode(ctx context.Context, root string, config *RunConfig, watchConfig *WatchConfig) error {
	fs := fsutil.NewOS(root)
	regenerate := func(baseDir string) {
		runCtx, _ := logger.WithRun(ctx, "generate")
		once := *config
		once.BaseDirs = []string{baseDir}
		if err := runGenerate(runCtx, fs, root, &once, false); err != nil {
			presenter.Error(err, fmt.Sprintf("Generate failed for %s", baseDir))
		}
	}

	for _, baseDir := range config.BaseDirs {
		regenerate(baseDir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	for _, baseDir := range config.BaseDirs {
		if err := watchTree(ctx, watcher, filepath.Join(root, baseDir, canonical.DirName)); err != nil {
			return err
		}
	}

	events := make(chan ChangeEvent)
	debounced := make(chan ChangeEvent)
	go debounceChanges(ctx, events, debounced, time.Duration(watchConfig.DebounceTime)*time.Millisecond)

	go func() {
		for {
			select {
			case event := <-debounced:
				presenter.Info(fmt.Sprintf("Change detected: %s (%s)", event.Path, event.Op))
				regenerate(event.BaseDir)
			case <-ctx.Done():
				return
			}
		}
	}()

	presenter.Info(fmt.Sprintf("Watching %s for %s... Press Ctrl+C to stop", canonical.DirName, describeTargets(config.Targets)))
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchTree(ctx, watcher, event.Name); err != nil {
						logger.G(ctx).WithError(err).WithField("path", event.Name).Warn("failed to watch new directory")
					}
				}
			}
			baseDir, ok := changedBaseDir(root, config.BaseDirs, event.Name)
			if !ok {
				continue
			}
			select {
			case events <- ChangeEvent{BaseDir: baseDir, Path: event.Name, Op: event.Op, Time: time.Now()}:
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			presenter.Error(err, "File watcher error")
			logger.G(ctx).WithError(err).Error("error watching files")
		case <-ctx.Done():
			return nil
		}
	}
}

// watchTree adds dir and its subdirectories to the watcher.
func watchTree(ctx context.Context, watcher *fsnotify.Watcher, dir string) error {
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		logger.G(ctx).WithField("path", p).Debug("adding directory to watcher")
		return watcher.Add(p)
	})
	return errors.Wrapf(err, "failed to watch %s", dir)
}

// changedBaseDir maps a changed file to the base directory whose canonical
// directory holds it. The lock file and editor temporaries are ignored.
func changedBaseDir(root string, baseDirs []string, name string) (string, bool) {
	base := filepath.Base(name)
	if base == sync.LockFileName || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return "", false
	}
	for _, baseDir := range baseDirs {
		dir := filepath.Join(root, baseDir, canonical.DirName)
		rel, err := filepath.Rel(dir, name)
		if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			return baseDir, true
		}
	}
	return "", false
}

// debounceChanges forwards the last event of every burst per base directory,
// once no further change arrived for delay.
func debounceChanges(ctx context.Context, input <-chan ChangeEvent, output chan<- ChangeEvent, delay time.Duration) {
	pending := make(map[string]*time.Timer)
	stopAll := func() {
		for _, timer := range pending {
			timer.Stop()
		}
	}

	for {
		select {
		case event, ok := <-input:
			if !ok {
				stopAll()
				return
			}
			if timer, exists := pending[event.BaseDir]; exists {
				timer.Stop()
			}
			eventCopy := event
			pending[event.BaseDir] = time.AfterFunc(delay, func() {
				select {
				case output <- eventCopy:
				case <-ctx.Done():
				}
			})
		case <-ctx.Done():
			stopAll()
			return
		}
	}
}
