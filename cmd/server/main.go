package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/touchstone-factors/pkg/analysis"
	"github.com/hazyhaar/touchstone-factors/pkg/api"
	"github.com/hazyhaar/touchstone-factors/pkg/detect"
	"github.com/hazyhaar/touchstone-factors/pkg/sources"
	"github.com/hazyhaar/touchstone-factors/pkg/taxonomy"
)

const defaultTaxonomyURL = "https://raw.githubusercontent.com/titetodesco/CondicionantesPerformance/main/TaxonomiaCP_Por.xlsx"

type config struct {
	Addr          string         `yaml:"addr"`
	LogLevel      string         `yaml:"log_level"`
	Taxonomy      taxonomyConfig `yaml:"taxonomy"`
	Detect        detectConfig   `yaml:"detect"`
	SourcesDB     string         `yaml:"sources_db"`
	CheckInterval time.Duration  `yaml:"check_interval"`
	Watch         bool           `yaml:"watch"`
}

type taxonomyConfig struct {
	// Name is the registry row whose location overrides Source.Location
	// when a sources database is configured.
	Name            string `yaml:"name"`
	taxonomy.Source `yaml:",inline"`
}

type detectConfig struct {
	Threshold float64  `yaml:"threshold"`
	Workers   int      `yaml:"workers"`
	Markers   []string `yaml:"markers"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "analyze":
		cmdAnalyze(os.Args[2:])
	case "sources":
		cmdSources(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: factors <command>

Commands:
  serve     Start the HTTP server
  mcp       Serve MCP tools over stdio
  analyze   Analyze a report file and print the detected factors
  sources   List, change or check taxonomy source locations
`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	addr := fs.String("addr", "", "listen address (overrides config)")
	fs.Parse(args)

	cfg := mustLoadConfig(*cfgPath)
	if *addr != "" {
		cfg.Addr = *addr
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sdb := openSources(cfg, logger)
	if sdb != nil {
		defer sdb.Close()
		go sources.NewChecker(sdb, logger, cfg.CheckInterval).Start(ctx)
	}

	svc := newService(cfg, sdb, logger)
	// A failed first load is not fatal: the server answers 503 until a
	// reload succeeds.
	reload := func(reason string) {
		start := time.Now()
		if err := svc.Reload(ctx); err != nil {
			logger.Error("taxonomy load failed", "reason", reason, "error", err)
			return
		}
		t := svc.Table()
		logger.Info("taxonomy loaded",
			"reason", reason,
			"source", t.Source,
			"entries", t.Len(),
			"skipped", t.Skipped(),
			"languages", t.AvailableLanguages(),
			"duration", time.Since(start),
		)
	}
	reload("startup")

	// SIGHUP: hot reload the taxonomy.
	// SIGINT/SIGTERM: graceful shutdown.
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, reloading taxonomy")
			reload("sighup")
		}
	}()

	if cfg.Watch {
		if loc := currentLocation(cfg, sdb); isLocalFile(loc) {
			go func() {
				if err := taxonomy.Watch(ctx, loc, 500*time.Millisecond, logger, func() { reload("file changed") }); err != nil {
					logger.Error("taxonomy watch stopped", "path", loc, "error", err)
				}
			}()
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("factors listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	metricsAddr := fs.String("metrics-addr", "", "serve /metrics on this address (empty = disabled)")
	fs.Parse(args)

	cfg := mustLoadConfig(*cfgPath)
	// stdout carries the protocol; logs go to stderr only.
	logger := newLogger(cfg.LogLevel)

	sdb := openSources(cfg, logger)
	if sdb != nil {
		defer sdb.Close()
	}
	svc := newService(cfg, sdb, logger)
	if err := svc.Load(context.Background()); err != nil {
		logger.Error("taxonomy load failed", "error", err)
		os.Exit(1)
	}

	metrics := api.NewMetrics(svc)
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", metrics.Handler())
		go func() {
			logger.Info("metrics listening", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	srv := server.NewMCPServer("factors", "1.0.0", server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, svc, metrics, logger)

	if err := server.ServeStdio(srv); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

func defaultConfig() config {
	return config{
		Addr:     ":8430",
		LogLevel: "info",
		Taxonomy: taxonomyConfig{
			Name:   "default",
			Source: taxonomy.Source{Location: defaultTaxonomyURL},
		},
		CheckInterval: 6 * time.Hour,
		Watch:         true,
	}
}

// loadConfig applies the YAML file at path over the defaults. A missing
// file is not an error.
func loadConfig(path string) (config, bool, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return cfg, false, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, false, fmt.Errorf("parse config: %w", err)
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 6 * time.Hour
	}
	return cfg, true, nil
}

func mustLoadConfig(path string) config {
	cfg, found, err := loadConfig(path)
	if err != nil {
		slog.Error("config", "path", path, "error", err)
		os.Exit(1)
	}
	if !found {
		slog.Info("no config file, using defaults", "path", path)
	}
	return cfg
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// openSources opens and seeds the sources database, or returns nil when
// none is configured.
func openSources(cfg config, logger *slog.Logger) *sources.DB {
	if cfg.SourcesDB == "" {
		return nil
	}
	sdb, err := sources.Open(cfg.SourcesDB)
	if err != nil {
		logger.Error("open sources db", "path", cfg.SourcesDB, "error", err)
		os.Exit(1)
	}
	if err := sdb.Seed(seedSources(cfg)); err != nil {
		sdb.Close()
		logger.Error("seed sources db", "error", err)
		os.Exit(1)
	}
	return sdb
}

func seedSources(cfg config) []sources.Source {
	return []sources.Source{{
		Name:        cfg.Taxonomy.Name,
		Location:    cfg.Taxonomy.Location,
		Description: "performance-factor taxonomy",
	}}
}

func newService(cfg config, sdb *sources.DB, logger *slog.Logger) *analysis.Service {
	return analysis.NewService(taxonomyLoader(cfg, sdb, logger), analysis.Options{
		Matcher: detect.Options{Threshold: cfg.Detect.Threshold, Workers: cfg.Detect.Workers},
		Markers: cfg.Detect.Markers,
	})
}

// taxonomyLoader resolves the location on every load so that a location
// changed with "sources set" is picked up by the next reload.
func taxonomyLoader(cfg config, sdb *sources.DB, logger *slog.Logger) analysis.Loader {
	return func(ctx context.Context) (*taxonomy.Table, error) {
		src := cfg.Taxonomy.Source
		if sdb != nil {
			loc, err := sdb.Location(cfg.Taxonomy.Name)
			if err != nil {
				logger.Warn("source registry lookup failed, using configured location", "name", cfg.Taxonomy.Name, "error", err)
			} else {
				src.Location = loc
			}
		}
		return taxonomy.Load(ctx, src)
	}
}

func currentLocation(cfg config, sdb *sources.DB) string {
	if sdb != nil {
		if loc, err := sdb.Location(cfg.Taxonomy.Name); err == nil {
			return loc
		}
	}
	return cfg.Taxonomy.Location
}

func isLocalFile(loc string) bool {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return false
	}
	fi, err := os.Stat(loc)
	return err == nil && !fi.IsDir()
}
