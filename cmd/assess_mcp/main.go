// assess_mcp sirve el motor de evaluacion como servidor MCP por stdio.
// Los logs van a stderr para no interferir con el transporte en stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pathforge/internal/app"
	"pathforge/internal/config"
	"pathforge/internal/mcptools"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := logCfg.Build()
	if err != nil {
		return err
	}
	defer logger.Sync()

	archive := app.ArchiveSQLite
	if cfg.DatabaseURL != "" {
		archive = app.ArchivePostgres
	}
	engine, err := app.Build(ctx, cfg, logger, app.Options{Archive: archive, Registry: prometheus.NewRegistry()})
	if err != nil {
		return fmt.Errorf("engine init: %w", err)
	}
	defer engine.Close()

	s := server.NewMCPServer(
		"pathforge",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Adaptive career assessment. Call assessment_start, then answer each question "+
			"with assessment_answer (score 0-10) until the step action is final_result."),
	)
	mcptools.Register(s, engine.Service)

	return server.ServeStdio(s)
}
