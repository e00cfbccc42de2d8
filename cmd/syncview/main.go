// ABOUTME: CLI entrypoint for syncview with terminal dashboard, HTTP server, and payload watch modes.
// ABOUTME: Wires config, logging, metrics and the dashboard engine, then runs every front-end under one errgroup.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/2389-research/syncview/catalog"
	"github.com/2389-research/syncview/config"
	"github.com/2389-research/syncview/dashboard"
	"github.com/2389-research/syncview/metrics"
	"github.com/2389-research/syncview/tui"
	"github.com/2389-research/syncview/web"
)

var version = "dev"

// cliConfig holds all CLI configuration parsed from flags and positional arguments.
type cliConfig struct {
	configFile  string
	serverMode  bool
	port        int
	tuiMode     bool
	watch       bool
	dataDir     string
	logFile     string
	verbose     bool
	showVersion bool
	payloadFile string
}

func main() {
	loadDotEnvAuto()

	cfg := parseFlags()

	if cfg.showVersion {
		fmt.Printf("syncview %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg))
}

// parseFlags parses command-line flags and returns a populated cliConfig.
func parseFlags() cliConfig {
	var cfg cliConfig

	fs := flag.NewFlagSet("syncview", flag.ContinueOnError)
	fs.StringVar(&cfg.configFile, "config", "", "YAML config file (default: $XDG_CONFIG_HOME/syncview/config.yaml)")
	fs.BoolVar(&cfg.serverMode, "server", false, "Start HTTP server mode")
	fs.IntVar(&cfg.port, "port", 0, "Server port (default: from config)")
	fs.BoolVar(&cfg.tuiMode, "tui", false, "Run the terminal dashboard")
	fs.BoolVar(&cfg.watch, "watch", false, "Reload the payload when the file changes")
	fs.StringVar(&cfg.dataDir, "data-dir", "", "Data directory (default: $XDG_DATA_HOME/syncview)")
	fs.StringVar(&cfg.logFile, "log-file", "", "Also write logs to this file")
	fs.BoolVar(&cfg.verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		printHelp(os.Stderr, version)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if fs.NArg() > 0 {
		cfg.payloadFile = fs.Arg(0)
	}

	return cfg
}

// run loads everything the engine needs and serves until the user quits or
// a signal arrives. Returns an exit code: 0 for success, 1 for failure.
func run(cfg cliConfig) int {
	if cfg.payloadFile == "" {
		printHelp(os.Stderr, version)
		return 0
	}

	settings, err := loadSettings(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	cat, err := loadCatalog(cfg.payloadFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	tuiMode := cfg.tuiMode || !cfg.serverMode
	var logCh chan tui.LogEntry
	if tuiMode {
		logCh = make(chan tui.LogEntry, 256)
	}
	f, err := openLogFile(settings.LogFile, cfg.dataDir, tuiMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	var logFile io.Writer
	if f != nil {
		defer f.Close()
		logFile = f
	}
	logger := newLogger(settings.SlogLevel(), logCh, logFile, os.Stderr)
	slog.SetDefault(logger)

	m := metrics.New()
	opts, err := dashboard.FromConfig(settings, logger, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	d, err := dashboard.New(cat, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, settings, d, m, logger, logCh); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// loadSettings loads the config file and applies flag overrides.
func loadSettings(cfg cliConfig) (config.Config, error) {
	settings, err := config.Load(resolveConfigPath(cfg.configFile))
	if err != nil {
		return config.Config{}, err
	}
	if cfg.port > 0 {
		host, _, err := net.SplitHostPort(settings.Addr)
		if err != nil {
			host = "127.0.0.1"
		}
		settings.Addr = net.JoinHostPort(host, strconv.Itoa(cfg.port))
	}
	if cfg.logFile != "" {
		settings.LogFile = cfg.logFile
	}
	if cfg.verbose {
		settings.LogLevel = "debug"
	}
	return settings, settings.Validate()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// serve runs the terminal dashboard, the HTTP server and the payload
// watcher as configured. Quitting the dashboard stops everything else.
func serve(ctx context.Context, cfg cliConfig, settings config.Config, d *dashboard.Dashboard, m *metrics.Metrics, logger *slog.Logger, logCh chan tui.LogEntry) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var program *tea.Program
	if cfg.tuiMode || !cfg.serverMode {
		model, err := tui.NewAppModel(d, logCh)
		if err != nil {
			return err
		}
		program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
		g.Go(func() error {
			defer cancel()
			_, err := program.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	}

	if cfg.serverMode {
		srv, err := web.NewServer(web.ServerConfig{
			Addr:        settings.Addr,
			Dashboard:   d,
			Metrics:     m,
			Logger:      logger,
			ChartWidth:  settings.Chart.Width,
			ChartHeight: settings.Chart.Height,
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return srv.Run(gctx) })
	}

	if cfg.watch {
		w := &catalogWatcher{
			path:   cfg.payloadFile,
			logger: logger,
			onLoad: func(cat *catalog.Catalog) {
				if program != nil {
					program.Send(tui.ReloadMsg{Catalog: cat})
					return
				}
				if err := d.Reload(cat); err != nil {
					logger.Error("catalog reload failed", "error", err)
				}
			},
			onError: func(err error) {
				if program != nil {
					program.Send(tui.ReloadErrMsg{Err: err})
				}
			},
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	return g.Wait()
}
