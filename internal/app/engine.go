// Package app arma el motor de evaluacion a partir de la configuracion.
// Lo comparten el servidor HTTP, la CLI y el servidor MCP.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pathforge/internal/catalog"
	"pathforge/internal/config"
	"pathforge/internal/db"
	"pathforge/internal/email"
	"pathforge/internal/llm"
	"pathforge/internal/market"
	"pathforge/internal/metrics"
	"pathforge/internal/repository"
	"pathforge/internal/service"
)

// Archive elige donde se guardan los reportes finales.
type Archive string

const (
	ArchiveNone     Archive = "none"
	ArchiveMemory   Archive = "memory"
	ArchiveSQLite   Archive = "sqlite"
	ArchivePostgres Archive = "postgres"
)

var ErrUnknownArchive = errors.New("unknown archive backend")

type Options struct {
	Archive  Archive
	Registry prometheus.Registerer
	// Offline ignora LLM, API de mercado, Redis y SMTP aunque esten configurados.
	Offline bool
}

// Engine agrupa las piezas construidas y sus recursos a liberar.
type Engine struct {
	Catalog      *catalog.Catalog
	Metrics      *metrics.Metrics
	Orchestrator *service.Orchestrator
	Service      *service.AssessmentService
	Reports      repository.ReportRepository

	closers []func()
}

// Close libera conexiones en orden inverso al de creacion.
func (e *Engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// Build arma el motor. Solo el catalogo y el archivo elegido son obligatorios:
// el resto de colaboradores degrada a su variante local cuando falta configuracion.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cat, err := loadCatalog(cfg.CatalogDir)
	if err != nil {
		return nil, err
	}
	e := &Engine{Catalog: cat, Metrics: metrics.New(opts.Registry)}

	reports, err := e.openArchive(ctx, cfg, opts.Archive, logger)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.Reports = reports

	asmOpts := service.AssemblerOptions{Metrics: e.Metrics, Logger: logger}
	var (
		mailer  email.Sender
		limiter service.EmailRateLimiter
	)
	if !opts.Offline {
		if cfg.LLMAPIKey != "" {
			asmOpts.LLM = llm.NewHTTPClient(llm.Options{
				BaseURL: cfg.LLMBaseURL,
				APIKey:  cfg.LLMAPIKey,
				Model:   cfg.LLMModel,
				Timeout: cfg.LLMTimeout,
			}, logger)
		}
		redisClient := e.connectRedis(ctx, cfg, logger)
		asmOpts.Market = e.marketSource(cfg, cat, redisClient, logger)
		mailer = newMailer(cfg, logger)
		if redisClient != nil {
			limiter = service.NewRedisEmailRateLimiter(redisClient, cfg.ReportEmailWindow, cfg.ReportEmailLimit)
		}
	}
	if limiter == nil {
		limiter = service.NewMemoryEmailRateLimiter(cfg.ReportEmailWindow, cfg.ReportEmailLimit)
	}

	ocfg := OrchestratorConfig(cfg.Engine)
	e.Orchestrator = service.NewOrchestrator(
		service.NewTraitTracker(cat.Questions, selectorFor(cfg.Seed)),
		service.NewDomainRanker(cat.DomainVectors, ocfg.DomainGapThreshold),
		service.NewReportAssembler(cat, asmOpts),
		ocfg,
		e.Metrics,
		logger,
	)
	e.Service = service.NewAssessmentService(
		e.Orchestrator,
		service.NewSessionRegistry(cfg.SessionTTL, e.Metrics),
		reports,
		mailer,
		logger,
	)
	e.Service.SetEmailRateLimiter(limiter)
	return e, nil
}

// OrchestratorConfig traduce los umbrales de entorno; valores no positivos usan el default.
func OrchestratorConfig(ec config.EngineConfig) service.OrchestratorConfig {
	out := service.DefaultOrchestratorConfig()
	if ec.ConfidenceThreshold > 0 {
		out.ConfidenceThreshold = ec.ConfidenceThreshold
	}
	if ec.StopThreshold > 0 {
		out.StopThreshold = ec.StopThreshold
	}
	if ec.DomainGapThreshold > 0 {
		out.DomainGapThreshold = ec.DomainGapThreshold
	}
	if ec.MaxClarify > 0 {
		out.MaxClarify = ec.MaxClarify
	}
	if ec.MaxQuestions > 0 {
		out.MaxQuestions = ec.MaxQuestions
	}
	return out
}

func loadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		return catalog.Default()
	}
	return catalog.Load(dir)
}

func selectorFor(seed uint64) service.QuestionSelector {
	if seed == 0 {
		return service.FirstSelector{}
	}
	return service.NewRandomSelector(seed)
}

func (e *Engine) openArchive(ctx context.Context, cfg *config.Config, kind Archive, logger *zap.Logger) (repository.ReportRepository, error) {
	switch kind {
	case "", ArchiveNone:
		return nil, nil
	case ArchiveMemory:
		return repository.NewMemoryReportRepository(), nil
	case ArchiveSQLite:
		repo, err := repository.NewSqliteReportRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, func() {
			if err := repo.Close(); err != nil {
				logger.Warn("sqlite close failed", zap.Error(err))
			}
		})
		return repo, nil
	case ArchivePostgres:
		pool, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, pool.Close)
		return repository.NewPgReportRepository(pool), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownArchive, kind)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("postgres archive requires DATABASE_URL")
	}
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// marketSource encadena API externa (con cache) y datos del catalogo.
func (e *Engine) marketSource(cfg *config.Config, cat *catalog.Catalog, redisClient *redis.Client, logger *zap.Logger) market.Source {
	chain := market.NewFallbackSource(logger, e.Metrics)
	if cfg.MarketAPIURL != "" {
		cache := market.NewMemoryCache()
		if redisClient != nil {
			cache = market.NewRedisCache(redisClient)
		}
		var src market.Source = market.NewHTTPSource(market.HTTPOptions{
			BaseURL: cfg.MarketAPIURL,
			AppID:   cfg.MarketAppID,
			AppKey:  cfg.MarketAppKey,
		}, logger)
		src = market.NewCachedSource(src, cache, cfg.MarketCacheTTL, logger)
		chain.With("http", src)
	}
	return chain.With("catalog", market.NewCatalogSource(cat.Market))
}

// connectRedis devuelve nil si Redis no esta configurado o no responde.
func (e *Engine) connectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		logger.Warn("redis ping failed, using in-process cache and limiter", zap.Error(err))
		_ = client.Close()
		return nil
	}
	e.closers = append(e.closers, func() { _ = client.Close() })
	return client
}

func newMailer(cfg *config.Config, logger *zap.Logger) email.Sender {
	if cfg.SMTPHost == "" {
		return email.NewDisabledSender("email sender not configured")
	}
	sender, err := email.NewSMTPSender(email.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUser,
		Password:    cfg.SMTPPass,
		From:        cfg.SMTPFrom,
		FromName:    cfg.SMTPFromName,
		ImplicitTLS: cfg.SMTPUseTLS,
	})
	if err != nil {
		logger.Warn("smtp sender init failed", zap.Error(err))
		return email.NewDisabledSender(err.Error())
	}
	return sender
}
