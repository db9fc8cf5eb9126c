// taskdatad is the task data server daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eeglab/taskdata/config"
	"github.com/eeglab/taskdata/internal/errreport"
	"github.com/eeglab/taskdata/internal/handler"
	"github.com/eeglab/taskdata/internal/ingest"
	"github.com/eeglab/taskdata/internal/loader"
	"github.com/eeglab/taskdata/internal/logging"
	"github.com/eeglab/taskdata/internal/server"
	"github.com/eeglab/taskdata/internal/table"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// CLI flags
	cfgPath := flag.String("config", "config.yaml", "config file path")
	listen := flag.String("listen", "", "listen address as host:port (overrides config)")
	dataDir := flag.String("data-dir", "", "data directory (overrides config)")
	logsDir := flag.String("logs-dir", "", "logs directory (overrides config)")
	writeMode := flag.String("default-write-mode", "", "default write mode (overrides config)")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	log.Printf("taskdatad %s starting...", Version)

	// Load config
	cfg, err := loader.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("No config file found, using defaults")
			cfg = loader.DefaultConfig()
			cfg.ApplyEnv()
		} else {
			log.Fatalf("Load config: %v", err)
		}
	}

	// CLI overrides
	if *listen != "" {
		host, port, err := loader.SplitListen(*listen)
		if err != nil {
			log.Fatalf("Parse listen address: %v", err)
		}
		cfg.Host, cfg.Port = host, port
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logsDir != "" {
		cfg.LogsDir = *logsDir
	}
	if *writeMode != "" {
		cfg.DefaultWriteMode = *writeMode
	}

	// Validate
	if err := loader.Validate(cfg); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := loader.EnsureDirectories(cfg); err != nil {
		log.Fatalf("Create directories: %v", err)
	}

	// Structured logging with rotation from here on
	logging.InitFile(
		filepath.Join(cfg.LogsDir, "app.log"),
		cfg.Level(),
		cfg.LogJSON,
		cfg.LogMaxSizeMB,
		cfg.LogMaxBackups,
	)
	logging.Info("directories ready", "data_dir", cfg.DataDir, "logs_dir", cfg.LogsDir)

	// Error reporting collaborator
	reporter := errreport.Nop()
	if cfg.ErrorReport.URL != "" {
		reporter = errreport.NewWebhook(cfg.ErrorReport.URL, cfg.ErrorReport.Environment)
		logging.Info("error reporting enabled", "environment", cfg.ErrorReport.Environment)
	} else {
		logging.Info("error reporting disabled (no URL configured)")
	}

	// Ingestion service
	svc := ingest.New(ingest.Options{
		DataDir:          cfg.DataDir,
		DefaultWriteMode: table.WriteMode(cfg.DefaultWriteMode),
		DefaultTask:      config.DefaultTask,
		Reporter:         reporter,
	})

	// Server
	srv := server.New(&server.Config{
		Listen:          cfg.Listen(),
		Threads:         cfg.Threads,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimit:       cfg.RateLimit,
		RateWindow:      config.DefaultRateWindow,
		ShutdownTimeout: config.DefaultShutdownTimeout,
		Handler:         handler.New(svc, cfg.MaxBodySize),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("starting server",
		"listen", cfg.Listen(),
		"threads", cfg.Threads,
		"default_write_mode", cfg.DefaultWriteMode)

	start := time.Now()
	if err := srv.Run(ctx); err != nil {
		logging.Error("server error", "error", err)
		os.Exit(1)
	}
	logging.Info("server stopped", "uptime", time.Since(start))
}
