// Package cli provides the metapublish command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
	"github.com/custodia-labs/metapublish/internal/core/services"
	"github.com/custodia-labs/metapublish/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Global flags.
var (
	configPath string
	logLevel   string
	verbose    bool
)

// Per-invocation state set up by the root pre-run hook.
var (
	configStore driven.ConfigStore
	logCloser   io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "metapublish",
	Short: "Publish metadata records to a search index",
	Long: `metapublish keeps one provider's partition of a search index in step with
a source of metadata records.

Each run reads the source, upserts every record into the index in batches,
and deletes indexed records the source no longer contains. Records of other
providers are never touched.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"configuration file (default ~/.metapublish/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log", "l", "",
		"logging level: debug, info, warning, error, critical (default warning)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log at debug level")
}

// Execute runs the root command.
func Execute() error {
	defer closeLog()
	return rootCmd.Execute()
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// needsConfig reports whether a command reads the configuration.
func needsConfig(cmd *cobra.Command) bool {
	if !cmd.HasParent() {
		return false
	}
	switch cmd.Name() {
	case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return false
	}
	return true
}

// setup opens the configuration and points the logger at its destination.
func setup(cmd *cobra.Command, _ []string) error {
	if !needsConfig(cmd) {
		return nil
	}
	if wiring.OpenConfig == nil {
		return errors.New("configuration not wired")
	}

	store, err := wiring.OpenConfig(configPath)
	if err != nil {
		return fmt.Errorf("read config %s: %w", displayPath(configPath), err)
	}
	configStore = store

	levelName := logLevel
	if levelName == "" {
		levelName = store.GetString(services.KeyLogLevel)
	}
	if levelName != "" {
		level, err := logger.ParseLevel(levelName)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}
	if verbose {
		logger.SetVerbose(true)
	}

	if file := store.GetString(services.KeyLogFile); file != "" {
		w := logger.OpenFile(file)
		logger.SetOutput(w)
		logCloser = w
	}

	logStartup(cmd, store.Path())
	return nil
}

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
		logger.SetOutput(os.Stderr)
	}
}

// logStartup records who is running what, before any work starts.
func logStartup(cmd *cobra.Command, cfgPath string) {
	uid := os.Geteuid()
	name := strconv.Itoa(uid)
	if u, err := user.LookupId(name); err == nil {
		name = u.Username
	}
	logger.Info("Starting program=%s command=%s pid=%d, uid=%d(%s)",
		filepath.Base(os.Args[0]), cmd.Name(), os.Getpid(), uid, name)
	logger.Info("Config: %s", cfgPath)
	logger.Info("Log Level: %s", logger.GetLevel())
}

func displayPath(p string) string {
	if p == "" {
		return "(default)"
	}
	return p
}

// maskSecret hides all but the last four characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return strings.Repeat("*", 4) + s[len(s)-4:]
}
