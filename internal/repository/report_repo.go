package repository

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"pathforge/internal/domain"
)

var ErrReportNotFound = errors.New("report not found")

// ReportRepository archiva reportes finales. FindSimilar ordena por distancia euclidiana
// entre perfiles (vector de 9 rasgos en orden canonico).
type ReportRepository interface {
	Save(ctx context.Context, report domain.ArchivedReport) error
	GetBySession(ctx context.Context, sessionID string) (domain.ArchivedReport, error)
	FindSimilar(ctx context.Context, profile domain.Profile, k int) ([]domain.ArchivedReport, error)
}

type PgReportRepository struct {
	pool *pgxpool.Pool
}

func NewPgReportRepository(pool *pgxpool.Pool) *PgReportRepository {
	return &PgReportRepository{pool: pool}
}

func (r *PgReportRepository) Save(ctx context.Context, report domain.ArchivedReport) error {
	const query = `
		INSERT INTO assessment_reports (id, session_id, domain, score, profile, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		report.ID,
		report.SessionID,
		report.Domain,
		report.Score,
		pgvector.NewVector(report.Profile.Vector()),
		report.Payload,
		report.CreatedAt,
	)
	return err
}

func (r *PgReportRepository) GetBySession(ctx context.Context, sessionID string) (domain.ArchivedReport, error) {
	const query = `
		SELECT id, session_id, domain, score, profile, payload, created_at
		FROM assessment_reports
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		rep domain.ArchivedReport
		vec pgvector.Vector
	)
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&rep.ID,
		&rep.SessionID,
		&rep.Domain,
		&rep.Score,
		&vec,
		&rep.Payload,
		&rep.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ArchivedReport{}, ErrReportNotFound
	}
	if err != nil {
		return domain.ArchivedReport{}, err
	}
	rep.Profile = domain.ProfileFromVector(vec.Slice())
	return rep, nil
}

func (r *PgReportRepository) FindSimilar(ctx context.Context, profile domain.Profile, k int) ([]domain.ArchivedReport, error) {
	if k <= 0 {
		k = 5
	}
	const query = `
		SELECT id, session_id, domain, score, profile, payload, created_at
		FROM assessment_reports
		ORDER BY profile <-> $1
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(profile.Vector()), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReports(rows)
}

func scanReports(rows pgxRows) ([]domain.ArchivedReport, error) {
	var reports []domain.ArchivedReport
	for rows.Next() {
		var (
			rep domain.ArchivedReport
			vec pgvector.Vector
		)
		if err := rows.Scan(
			&rep.ID,
			&rep.SessionID,
			&rep.Domain,
			&rep.Score,
			&vec,
			&rep.Payload,
			&rep.CreatedAt,
		); err != nil {
			return nil, err
		}
		rep.Profile = domain.ProfileFromVector(vec.Slice())
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

// pgxRows is a minimal interface to allow scanning from pgx rows and simplify testing.
type pgxRows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}

// profileDistance es la distancia L2, la misma que usa el operador <-> de pgvector.
func profileDistance(a, b domain.Profile) float64 {
	va, vb := a.Vector(), b.Vector()
	var sum float64
	for i := range va {
		d := float64(va[i]) - float64(vb[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// nearest ordena por distancia al perfil; empates por fecha mas reciente.
func nearest(reports []domain.ArchivedReport, profile domain.Profile, k int) []domain.ArchivedReport {
	if k <= 0 {
		k = 5
	}
	sort.SliceStable(reports, func(i, j int) bool {
		di, dj := profileDistance(reports[i].Profile, profile), profileDistance(reports[j].Profile, profile)
		if di != dj {
			return di < dj
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	if len(reports) > k {
		reports = reports[:k]
	}
	return reports
}
