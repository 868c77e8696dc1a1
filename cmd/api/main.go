package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"pathforge/internal/app"
	"pathforge/internal/config"
	apihttp "pathforge/internal/http"
)

const sweepInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	archive := app.ArchiveMemory
	if cfg.DatabaseURL != "" {
		archive = app.ArchivePostgres
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine, err := app.Build(ctx, cfg, logger, app.Options{Archive: archive, Registry: reg})
	if err != nil {
		logger.Fatal("engine init", zap.Error(err))
	}
	defer engine.Close()

	go sweepSessions(ctx, engine, logger)

	assessHandler := apihttp.NewAssessmentHandler(logger, engine.Service)
	router := apihttp.NewRouter(logger, assessHandler, reg)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("archive", string(archive)),
		zap.Int("domains", len(engine.Catalog.DomainVectors)),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// sweepSessions expira sesiones inactivas hasta que ctx termina.
func sweepSessions(ctx context.Context, engine *app.Engine, logger *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := engine.Service.SweepSessions(); n > 0 {
				logger.Info("expired sessions", zap.Int("count", n))
			}
		}
	}
}
