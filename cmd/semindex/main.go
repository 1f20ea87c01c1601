package main

// @title semindex API
// @version 1.0
// @description Semantic memory index and agent reputation registry for the Awareness Network.

// @license.name MIT

// @BasePath /
// @schemes http https

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/awareness-network/semindex/config"
	"github.com/awareness-network/semindex/pkg/logger"
	"github.com/awareness-network/semindex/pkg/version"
)

const usageExamples = `
Examples:
  semindex                              embedded dataset, in-memory registry
  semindex -config config.yaml          use a config file
  semindex -registry badger -port 9000  override single settings
  semindex -version                     print build information
`

// options holds the parsed command line.
type options struct {
	configPath string
	version    bool
	watch      bool

	port     int
	logLevel string
	dataset  string
	backend  string
	debug    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("semindex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "semindex - semantic memory index and agent reputation registry\n\nUsage: semindex [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprint(stderr, usageExamples)
	}

	fs.StringVar(&opts.configPath, "config", "", "path to the configuration file")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	fs.BoolVar(&opts.watch, "watch", true, "reload the log level when the config file changes")
	fs.IntVar(&opts.port, "port", 0, "override server.port")
	fs.StringVar(&opts.logLevel, "log-level", "", "override log.level")
	fs.StringVar(&opts.dataset, "dataset", "", "override index.dataset_path")
	fs.StringVar(&opts.backend, "registry", "", "override registry.backend (memory, badger, redis)")
	fs.BoolVar(&opts.debug, "debug", false, "force debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// overrides maps the set flags onto config keys.
func (o *options) overrides() map[string]interface{} {
	out := make(map[string]interface{})
	set := func(key string, ok bool, v interface{}) {
		if ok {
			out[key] = v
		}
	}
	set("server.port", o.port != 0, o.port)
	set("log.level", o.logLevel != "", o.logLevel)
	set("index.dataset_path", o.dataset != "", o.dataset)
	set("registry.backend", o.backend != "", o.backend)
	set("app.debug", o.debug, true)
	return out
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}
	if opts.version {
		info := version.Get()
		fmt.Printf("semindex %s (commit %s, built %s, %s)\n", info.Version, info.GitCommit, info.BuildTime, info.GoVersion)
		return 0
	}

	overrides := opts.overrides()
	loader := config.NewLoader()
	cfg, err := loader.Load(opts.configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration:\n%s\n", err)
		return 1
	}

	log := newLogger(cfg, opts.debug)
	logger.SetGlobal(log)
	defer log.Close()

	log.Info("starting semindex",
		"version", version.Version,
		"git_commit", version.GitCommit,
		"environment", cfg.App.Environment,
	)
	log.Debug("configuration loaded", "config", cfg.String(), "file", loader.File())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		return 1
	}
	if opts.watch && opts.configPath != "" {
		watchLogLevel(ctx, opts.configPath, loader, overrides, cfg, log)
	}
	if err := a.run(ctx); err != nil {
		log.Error("semindex stopped with error", "error", err)
		return 1
	}
	log.Info("semindex stopped")
	return 0
}

func newLogger(cfg *config.Config, debug bool) logger.Logger {
	level := logger.ParseLevel(cfg.Log.Level)
	if cfg.App.Debug || debug {
		level = logger.DebugLevel
	}
	return logger.New(&logger.Config{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    cfg.Log.Output,
		AddSource: cfg.Log.AddSource,
		Service:   cfg.App.Name,
		Version:   version.Version,
	})
}

// watchLogLevel applies log level edits in the config file until ctx is done.
func watchLogLevel(ctx context.Context, path string, loader *config.Loader, overrides map[string]interface{}, cfg *config.Config, log logger.Logger) {
	watcher, err := config.NewWatcher(path, loader,
		config.WithWatcherLogger(log),
		config.WithReloadOverrides(overrides),
	)
	if err != nil {
		log.Warn("config watcher disabled", "error", err)
		return
	}

	go func() {
		defer watcher.Stop()
		if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Warn("config watcher stopped", "error", err)
		}
	}()

	go func() {
		current := config.ExtractHotReloadable(cfg)
		for {
			select {
			case <-ctx.Done():
				return
			case next := <-watcher.Changes():
				hot := config.ExtractHotReloadable(next)
				if !hot.Changed(current) {
					continue
				}
				log.SetLevel(logger.ParseLevel(hot.LogLevel))
				log.Info("log level reloaded", "from", current.LogLevel, "to", hot.LogLevel)
				current = hot
			}
		}
	}()
}
