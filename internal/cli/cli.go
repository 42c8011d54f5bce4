// Package cli implements the assetpipe command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"assetpipe/internal/capability"
	"assetpipe/internal/config"
	"assetpipe/internal/livereload"
	"assetpipe/internal/logs"
	"assetpipe/internal/pipeline"
	"assetpipe/internal/watch"
)

var rootCmd = &cobra.Command{
	Use:   "assetpipe",
	Short: "Asset pipeline runner",
	Long: `Assetpipe builds theme assets from a YAML manifest: named tasks invoke
capabilities (clean, copy, or external tools), pipelines compose tasks in
order, and watch rules re-run tasks when source files change.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// Execute runs the root command and returns the process exit code.
func Execute(version string) int {
	rootCmd.Version = version
	cobra.OnInitialize(initViper)
	addPersistentFlags()
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func initViper() {
	viper.SetEnvPrefix("ASSETPIPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the manifest file")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newLogsCmd())
}

func newLogger() *logs.Logger {
	return logs.NewLogger(os.Stderr, logs.ParseLevel(viper.GetString("log-level")))
}

// bootstrap prepares the state directory and loads the manifest.
func bootstrap() (*config.Manifest, *logs.Logger, error) {
	logger := newLogger()

	if err := logs.Setup(); err != nil {
		return nil, nil, fmt.Errorf("failed to setup logs: %w", err)
	}

	if deleted, err := logs.CleanupAllRuns(logs.DefaultRetention); err != nil {
		logger.Warnf("failed to clean up old runs: %v", err)
	} else if deleted > 0 {
		logger.Debugf("cleaned up %d old runs", deleted)
	}

	manifest, err := config.LoadManifest(viper.GetString("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	return manifest, logger, nil
}

// buildOrchestrator wires the capability set, including the watch builtin,
// and constructs the orchestrator. The watch capability closes over the
// orchestrator pointer so a pipeline ending in a watch task can re-run its
// own steps on file changes.
func buildOrchestrator(manifest *config.Manifest, logger *logs.Logger) (*pipeline.Orchestrator, error) {
	caps, err := capability.FromManifest(manifest)
	if err != nil {
		return nil, err
	}

	var orch *pipeline.Orchestrator
	watchCap := capability.NewFunc(config.CapabilityWatch, func(ctx context.Context, inv capability.Invocation) (*capability.Result, error) {
		if err := startWatch(ctx, manifest, orch, logger); err != nil {
			return nil, err
		}
		return &capability.Result{}, nil
	})
	if err := caps.Register(watchCap); err != nil {
		return nil, err
	}

	orch, err = pipeline.New(manifest, caps, logger)
	if err != nil {
		return nil, err
	}
	return orch, nil
}

// startWatch runs the file watcher, and the live-reload server when the
// manifest enables it, until ctx is canceled.
func startWatch(ctx context.Context, manifest *config.Manifest, orch *pipeline.Orchestrator, logger *logs.Logger) error {
	var notifier watch.Notifier
	if manifest.LiveReload.Enabled {
		lr := livereload.New(manifest.LiveReload.Addr, logger)
		notifier = lr
		go func() {
			if err := lr.Start(ctx); err != nil {
				logger.Errorf("%v", err)
			}
		}()
	}

	w := watch.New(manifest, orch, notifier, logger)
	logger.Infof("watching rules: %s", strings.Join(w.Rules(), ", "))
	return w.Start(ctx)
}
