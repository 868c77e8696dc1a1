// Package market obtiene datos de empleo por dominio. Toda fuente puede fallar:
// quien consume debe degradar a Placeholder en vez de abortar.
package market

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"pathforge/internal/catalog"
	"pathforge/internal/metrics"
)

var ErrNoData = errors.New("no market data")

const TrendUnknown = "unknown"

// Snapshot es la vista de mercado de un dominio en una ubicacion.
type Snapshot struct {
	Domain        string               `json:"domain"`
	Location      string               `json:"location"`
	TotalJobs     int                  `json:"total_jobs"`
	Jobs          []catalog.JobListing `json:"jobs"`
	HiringTrend   string               `json:"hiring_trend"`
	AverageSalary float64              `json:"average_salary"`
	MarketSize    string               `json:"market_size,omitempty"`
	Source        string               `json:"source"`
	FetchedAt     time.Time            `json:"fetched_at"`
	Note          string               `json:"note,omitempty"`
}

// Source entrega un Snapshot o error. Las implementaciones respetan ctx.
type Source interface {
	Fetch(ctx context.Context, domain, location string) (Snapshot, error)
}

// Placeholder es el dato neutro: 0 empleos, tendencia desconocida.
func Placeholder(domain, location, reason string) Snapshot {
	return Snapshot{
		Domain:      domain,
		Location:    location,
		Jobs:        []catalog.JobListing{},
		HiringTrend: TrendUnknown,
		Source:      "placeholder",
		Note:        reason,
	}
}

// CatalogSource lee los datos locales. La clave del dominio se busca por subcadena.
type CatalogSource struct {
	data catalog.MarketData
	now  func() time.Time
}

func NewCatalogSource(data catalog.MarketData) *CatalogSource {
	return &CatalogSource{data: data, now: time.Now}
}

func (s *CatalogSource) Fetch(ctx context.Context, domain, location string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	needle := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(domain)), " ", "_")
	if needle == "" {
		return Snapshot{}, ErrNoData
	}
	dm, ok := s.data.JobData[needle]
	if !ok {
		keys := make([]string, 0, len(s.data.JobData))
		for k := range s.data.JobData {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, key := range keys {
			if strings.Contains(strings.ToLower(key), needle) {
				dm, ok = s.data.JobData[key], true
				break
			}
		}
	}
	if !ok {
		return Snapshot{}, ErrNoData
	}
	trend := dm.HiringTrend
	if trend == "" {
		trend = "stable"
	}
	jobs := dm.Jobs
	if jobs == nil {
		jobs = []catalog.JobListing{}
	}
	return Snapshot{
		Domain:        domain,
		Location:      location,
		TotalJobs:     len(jobs),
		Jobs:          jobs,
		HiringTrend:   trend,
		AverageSalary: dm.AverageSalary,
		MarketSize:    dm.MarketSize,
		Source:        "catalog",
		FetchedAt:     s.now().UTC(),
	}, nil
}

// FallbackSource prueba las fuentes en orden y, si todas fallan, devuelve Placeholder sin error.
type FallbackSource struct {
	sources []namedSource
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type namedSource struct {
	name string
	src  Source
}

func NewFallbackSource(logger *zap.Logger, m *metrics.Metrics) *FallbackSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackSource{logger: logger, metrics: m}
}

// With agrega una fuente al final de la cadena.
func (f *FallbackSource) With(name string, src Source) *FallbackSource {
	if src != nil {
		f.sources = append(f.sources, namedSource{name: name, src: src})
	}
	return f
}

func (f *FallbackSource) Fetch(ctx context.Context, domain, location string) (Snapshot, error) {
	for _, s := range f.sources {
		start := time.Now()
		snap, err := s.src.Fetch(ctx, domain, location)
		f.metrics.ObserveMarketFetch(s.name, time.Since(start))
		if err == nil {
			return snap, nil
		}
		f.logger.Warn("market source failed", zap.String("source", s.name), zap.String("domain", domain), zap.Error(err))
	}
	return Placeholder(domain, location, "Fallback used - market data unavailable"), nil
}
