package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
	"github.com/custodia-labs/metapublish/internal/core/ports/driving"
	"github.com/custodia-labs/metapublish/internal/core/services"
	"github.com/custodia-labs/metapublish/internal/logger"
)

// DefaultSource is read when --source is not given.
const DefaultSource = "file:data/metapublish.json"

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 500 * time.Millisecond

var (
	sourceFlag string
	dryRun     bool
	watchFlag  bool
)

// Hooks replaced in tests.
var (
	exitFunc        = os.Exit
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	readSecret      = func() (string, error) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		return string(b), err
	}
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Reconcile the index with the source",
	Long: `Reads the source records and makes the provider's partition of the index
match them: every record is upserted, and indexed subjects that are no longer
in the source are deleted.

SOURCE can be file:<path>, a bare path, an http(s) URL or s3://bucket/key.

With --dry-run nothing is written to the index; the run works on an in-memory
copy of the partition and reports what it would change.
With --watch (file sources only) the source is published again whenever the
file changes, until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVarP(&sourceFlag, "source", "s", DefaultSource, "records to publish")
	publishCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing to the index")
	publishCmd.Flags().BoolVar(&watchFlag, "watch", false, "republish whenever the source file changes")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	loc, err := domain.ParseSourceLocation(sourceFlag)
	if err != nil {
		logger.Error("Source URL is not valid: %s", sourceFlag)
		return err
	}
	logger.Info("Source: %s", loc)

	if watchFlag && loc.Scheme != domain.SchemeFile {
		return fmt.Errorf("%w: --watch needs a file source", domain.ErrInvalidInput)
	}

	ctx, stop := withSignals(cmd.Context())
	defer stop()

	pub, release, err := buildPublisher(ctx, cmd, PublisherOptions{DryRun: dryRun})
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("Closing connections: %v", err)
		}
	}()

	if watchFlag {
		return watchSource(ctx, cmd, pub, loc)
	}
	return publishOnce(ctx, cmd, pub, loc)
}

// buildPublisher validates the configuration and asks the wiring for a publisher.
func buildPublisher(ctx context.Context, cmd *cobra.Command, opts PublisherOptions) (driving.Publisher, func() error, error) {
	if configStore == nil || wiring.NewPublisher == nil {
		return nil, nil, errors.New("publisher not configured")
	}

	if err := ensureSecret(cmd, configStore); err != nil {
		return nil, nil, err
	}

	cfg, err := services.LoadPublisherConfig(configStore)
	if err != nil {
		logger.Error("%v", err)
		return nil, nil, err
	}

	pub, release, err := wiring.NewPublisher(ctx, configStore, cfg, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("set up %s index: %w", cfg.Backend, err)
	}
	if release == nil {
		release = func() error { return nil }
	}
	return pub, release, nil
}

func publishOnce(ctx context.Context, cmd *cobra.Command, pub driving.Publisher, loc domain.SourceLocation) error {
	result, err := pub.Publish(ctx, loc)
	if result != nil && result.Message != "" {
		if dryRun {
			cmd.Printf("[dry run] %s\n", result.Message)
		} else {
			cmd.Println(result.Message)
		}
	}
	return err
}

// ensureSecret prompts for a missing Globus client secret on a terminal.
// The answer is kept in memory only.
func ensureSecret(cmd *cobra.Command, store driven.ConfigStore) error {
	backend := strings.ToLower(strings.TrimSpace(store.GetString(services.KeyBackend)))
	if backend != "" && backend != domain.BackendGlobus {
		return nil
	}
	if _, ok := store.Get(services.KeyGlobusClientSecret); ok {
		return nil
	}
	if !stdinIsTerminal() {
		return nil
	}

	cmd.PrintErrf("Globus client secret for %s: ", store.GetString(services.KeyGlobusClientID))
	secret, err := readSecret()
	cmd.PrintErrln()
	if err != nil {
		return fmt.Errorf("read client secret: %w", err)
	}
	if secret = strings.TrimSpace(secret); secret != "" {
		store.Override(services.KeyGlobusClientSecret, secret)
	}
	return nil
}

// withSignals returns a context that is cancelled on SIGINT or SIGTERM.
// The signal is logged and the process exits with the signal number.
func withSignals(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-ch:
			handleSignal(sig, cancel)
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(ch)
		cancel()
	}
}

func handleSignal(sig os.Signal, cancel context.CancelFunc) {
	rc := 1
	name := sig.String()
	if s, ok := sig.(syscall.Signal); ok {
		rc = int(s)
		switch s {
		case syscall.SIGINT:
			name = "SIGINT"
		case syscall.SIGTERM:
			name = "SIGTERM"
		}
	}
	logger.Critical("Caught signal=%d(%s), exiting with rc=%d", rc, name, rc)
	cancel()
	closeLog()
	exitFunc(rc)
}

// watchSource publishes once, then again after each change to the source file.
func watchSource(ctx context.Context, cmd *cobra.Command, pub driving.Publisher, loc domain.SourceLocation) error {
	path, err := filepath.Abs(loc.Path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", loc.Path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	logger.Info("Watching %s for changes", path)

	run := func() {
		if err := publishOnce(ctx, cmd, pub, loc); err != nil {
			logger.Warn("Publish from %s failed, waiting for the next change: %v", path, err)
		}
	}
	run()
	watchLoop(ctx, watcher.Events, watcher.Errors, path, watchDebounce, run)
	return nil
}

// watchLoop calls run once per burst of writes to path, until ctx ends or
// the event channel closes. Runs never overlap.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	path string,
	debounce time.Duration,
	run func(),
) {
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("Source changed: %s", ev)
			fire = time.After(debounce)
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("Watch error: %v", err)
		case <-fire:
			fire = nil
			run()
		}
	}
}
