package repository

import (
	"context"
	"sync"

	"pathforge/internal/domain"
)

// MemoryReportRepository guarda los reportes en memoria. Se usa cuando no hay base configurada.
type MemoryReportRepository struct {
	mu      sync.RWMutex
	reports []domain.ArchivedReport
}

func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{}
}

func (r *MemoryReportRepository) Save(_ context.Context, report domain.ArchivedReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report.Profile = report.Profile.Clone()
	report.Payload = append([]byte(nil), report.Payload...)
	r.reports = append(r.reports, report)
	return nil
}

func (r *MemoryReportRepository) GetBySession(_ context.Context, sessionID string) (domain.ArchivedReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.reports) - 1; i >= 0; i-- {
		if r.reports[i].SessionID == sessionID {
			return r.reports[i], nil
		}
	}
	return domain.ArchivedReport{}, ErrReportNotFound
}

func (r *MemoryReportRepository) FindSimilar(_ context.Context, profile domain.Profile, k int) ([]domain.ArchivedReport, error) {
	r.mu.RLock()
	all := append([]domain.ArchivedReport(nil), r.reports...)
	r.mu.RUnlock()
	return nearest(all, profile, k), nil
}
